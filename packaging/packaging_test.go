package packaging

import (
	"archive/zip"
	"bytes"
	"testing"
)

func buildDocx(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	order := []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml", "word/media/image1.png", "docProps/app.xml"}
	for _, name := range order {
		content, ok := parts[name]
		if !ok {
			continue
		}
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return buf.Bytes()
}

func minimalParts() map[string]string {
	return map[string]string{
		"[Content_Types].xml":   `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/></Types>`,
		"_rels/.rels":           `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"/>`,
		"word/document.xml":     `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p/></w:body></w:document>`,
		"word/media/image1.png": "\x89PNG fake bytes",
		"docProps/app.xml":      `<Properties custom="kept"/>`,
	}
}

func TestReadSplitsParsedAndRawParts(t *testing.T) {
	p, err := Read(buildDocx(t, minimalParts()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if p.Part("word/document.xml") == nil {
		t.Error("document part not parsed")
	}
	if _, ok := p.Raw["word/media/image1.png"]; !ok {
		t.Error("media part not kept raw")
	}
	if _, ok := p.Raw["docProps/app.xml"]; !ok {
		t.Error("unknown part not kept raw")
	}
}

func TestUnknownPartsRoundTripByteIdentical(t *testing.T) {
	src := minimalParts()
	p, err := Read(buildDocx(t, src))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	out, err := p.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/media/image1.png" && f.Name != "docProps/app.xml" {
			continue
		}
		rc, _ := f.Open()
		var got bytes.Buffer
		got.ReadFrom(rc)
		rc.Close()
		if got.String() != src[f.Name] {
			t.Errorf("%s changed across round trip", f.Name)
		}
	}
}

func TestWritePreservesEntryOrder(t *testing.T) {
	p, err := Read(buildDocx(t, minimalParts()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	out, err := p.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	zr, _ := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	want := []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml", "word/media/image1.png", "docProps/app.xml"}
	if len(zr.File) != len(want) {
		t.Fatalf("entry count = %d", len(zr.File))
	}
	for i, f := range zr.File {
		if f.Name != want[i] {
			t.Errorf("entry %d = %s, want %s", i, f.Name, want[i])
		}
	}
}

func TestEnsureContentType(t *testing.T) {
	p, err := Read(buildDocx(t, minimalParts()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	p.EnsureContentType("png", "image/png")
	p.EnsureContentType("png", "image/png") // idempotent
	ct := p.Part("[Content_Types].xml")
	count := 0
	for _, d := range ct.Children("Default") {
		if ext, _ := d.Attr("Extension"); ext == "png" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("png default registered %d times", count)
	}
}
