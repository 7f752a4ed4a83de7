package measure

import (
	"bytes"
	"fmt"

	gofont "github.com/go-text/typesetting/font"
)

// Measurer produces per-rune advances at a point size. Implementations
// must be safe for reuse across blocks within one layout pass.
type Measurer interface {
	// RuneWidths returns the advance of each rune of s in pixels at the
	// given size.
	RuneWidths(s string, sizePx float64) []float64
	// TabInterval is the default tab stop interval in pixels.
	TabInterval() float64
}

// FontMeasurer measures against a parsed font face.
type FontMeasurer struct {
	face *gofont.Face
	upem float64
}

// NewFontMeasurer parses TTF/OTF bytes into a measurer.
func NewFontMeasurer(data []byte) (*FontMeasurer, error) {
	face, err := gofont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &FontMeasurer{face: face, upem: float64(face.Upem())}, nil
}

// RuneWidths scales each glyph's horizontal advance from font units to
// pixels at sizePx. Runes without a glyph fall back to a half-size
// notdef advance.
func (m *FontMeasurer) RuneWidths(s string, sizePx float64) []float64 {
	runes := []rune(s)
	out := make([]float64, len(runes))
	scale := sizePx / m.upem
	for i, r := range runes {
		gid, ok := m.face.NominalGlyph(r)
		if !ok {
			out[i] = sizePx / 2
			continue
		}
		out[i] = float64(m.face.HorizontalAdvance(gid)) * scale
	}
	return out
}

// TabInterval is the Word default half inch at 96dpi.
func (m *FontMeasurer) TabInterval() float64 { return 48 }

// FixedMetrics is a deterministic measurer for tests: every glyph is
// GlyphWidth wide and tabs advance by Interval.
type FixedMetrics struct {
	GlyphWidth float64
	Interval   float64
}

// RuneWidths returns GlyphWidth per rune regardless of size.
func (m FixedMetrics) RuneWidths(s string, _ float64) []float64 {
	out := make([]float64, len([]rune(s)))
	for i := range out {
		out[i] = m.GlyphWidth
	}
	return out
}

// TabInterval returns the configured interval.
func (m FixedMetrics) TabInterval() float64 { return m.Interval }

// TextRun builds a text RunMetrics from measured widths.
func TextRun(widths []float64, letterSpacing float64) RunMetrics {
	total := 0.0
	for _, w := range widths {
		total += w + letterSpacing
	}
	return RunMetrics{Kind: RunText, CharWidths: widths, Width: total, LetterSpacing: letterSpacing}
}

// TabRun builds a tab RunMetrics with the resolved stop width.
func TabRun(width float64) RunMetrics {
	return RunMetrics{Kind: RunTab, Width: width}
}
