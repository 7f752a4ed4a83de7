package media

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestAddDeduplicatesByContent(t *testing.T) {
	r := NewRegistry()
	data := pngBytes(t, 4, 2)

	a, err := r.Add("logo.png", data)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	b, err := r.Add("word/media/other-name.png", data)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if a != b {
		t.Errorf("same bytes produced distinct parts %q and %q", a.PartName, b.PartName)
	}
	if len(r.Images()) != 1 {
		t.Errorf("registry holds %d parts", len(r.Images()))
	}
	if a.PartName != "media/image1.png" {
		t.Errorf("part name = %q", a.PartName)
	}
}

func TestAddAllocatesSequentialNames(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Add("a", pngBytes(t, 1, 1))
	b, _ := r.Add("b", pngBytes(t, 2, 2))
	if a.PartName != "media/image1.png" || b.PartName != "media/image2.png" {
		t.Errorf("names = %q, %q", a.PartName, b.PartName)
	}
}

func TestDimensions(t *testing.T) {
	img, err := NewRegistry().Add("x.png", pngBytes(t, 7, 3))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if img.Width != 7 || img.Height != 3 {
		t.Errorf("dimensions = %dx%d", img.Width, img.Height)
	}
}

func TestSniffBeatsHintExtension(t *testing.T) {
	img, err := NewRegistry().Add("misleading.gif", pngBytes(t, 1, 1))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if img.PartName != "media/image1.png" {
		t.Errorf("part name = %q", img.PartName)
	}
}

func TestUnknownFormatRejected(t *testing.T) {
	if _, err := NewRegistry().Add("note", []byte("not an image")); err == nil {
		t.Fatal("garbage accepted")
	}
}
