// Package media manages the image parts of a document package:
// content-addressed deduplication, canonical part naming and pixel
// dimension sniffing.
package media

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/zeebo/blake3"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image is one registered media part.
type Image struct {
	// PartName is the canonical package path, e.g. "media/image3.png".
	PartName string
	Data     []byte
	Width    int
	Height   int
}

// Registry deduplicates media by content hash. Two additions with
// identical bytes share one part regardless of their original names.
type Registry struct {
	byHash map[string]*Image
	images []*Image
	next   int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byHash: make(map[string]*Image), next: 1}
}

// Add registers image bytes and returns the canonical part. The hint
// name only contributes its extension when the content type cannot be
// sniffed.
func (r *Registry) Add(hint string, data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty media data")
	}
	sum := blake3.Sum256(data)
	key := hex.EncodeToString(sum[:])
	if img, ok := r.byHash[key]; ok {
		return img, nil
	}
	ext := sniffExtension(data)
	if ext == "" {
		ext = extensionOf(hint)
	}
	if ext == "" {
		return nil, fmt.Errorf("unrecognized media format for %q", hint)
	}
	img := &Image{
		PartName: fmt.Sprintf("media/image%d.%s", r.next, ext),
		Data:     data,
	}
	if w, h, err := Dimensions(data); err == nil {
		img.Width, img.Height = w, h
	}
	r.next++
	r.byHash[key] = img
	r.images = append(r.images, img)
	return img, nil
}

// Images returns the registered parts in allocation order.
func (r *Registry) Images() []*Image { return r.images }

// Dimensions sniffs pixel width and height without decoding the full
// image.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func sniffExtension(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "png"
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return "jpeg"
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return "gif"
	case bytes.HasPrefix(data, []byte("BM")):
		return "bmp"
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return "tiff"
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "webp"
	}
	return ""
}

func extensionOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}
