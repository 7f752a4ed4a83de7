// Package measure computes text run metrics and answers the two
// geometric questions layout and hit-testing need: the x coordinate of
// a character position within a line, and the character position under
// an x coordinate.
package measure

import "math"

// RunKind discriminates measured run variants.
type RunKind int

const (
	RunText RunKind = iota
	RunTab
)

// RunMetrics is one measured run of a block. Text runs carry per-rune
// advances; tab runs carry the resolved stop width verbatim and no
// per-character data.
type RunMetrics struct {
	Kind RunKind
	// CharWidths holds the advance of each rune for text runs.
	CharWidths []float64
	// Width is the run total. For tabs this is the declared stop width
	// and is used as-is, never re-derived from glyphs.
	Width float64
	// LetterSpacing is added per character, including after the final
	// character of the run.
	LetterSpacing float64
}

// CharCount returns the number of character positions the run spans.
// A tab occupies exactly one position.
func (r RunMetrics) CharCount() int {
	if r.Kind == RunTab {
		return 1
	}
	return len(r.CharWidths)
}

// Line is one laid-out line, addressing an inclusive run range with
// character offsets into the boundary runs.
type Line struct {
	FromRun  int
	ToRun    int
	FromChar int // offset into FromRun
	ToChar   int // offset into ToRun, exclusive
	Height   float64
	Ascent   float64
}

// Block is a measured content block.
type Block struct {
	Runs  []RunMetrics
	Lines []Line
	// MarkerWidth is the gutter reserved for a list marker, zero for
	// non-list blocks.
	MarkerWidth float64
}

// MeasureCharacterX returns the x coordinate of the character at
// charOffset within the line, relative to the line start. charOffset
// counts characters from the line's first character.
func (b *Block) MeasureCharacterX(line Line, charOffset int) float64 {
	x := 0.0
	remaining := charOffset
	for ri := line.FromRun; ri <= line.ToRun && ri < len(b.Runs); ri++ {
		run := b.Runs[ri]
		lo, hi := b.lineRunBounds(line, ri, run)
		if remaining <= 0 {
			break
		}
		if run.Kind == RunTab {
			x += run.Width
			remaining--
			continue
		}
		for ci := lo; ci < hi && remaining > 0; ci++ {
			x += run.CharWidths[ci] + run.LetterSpacing
			remaining--
		}
	}
	return x
}

// FindCharacterAtX returns baseOffset plus the character position under
// targetX. Within a text run the nearest boundary wins by the
// half-glyph rule; the left half of a tab maps to the position before
// the tab and the right half to the position after. Beyond the last
// character the result clamps to the line end.
func (b *Block) FindCharacterAtX(line Line, targetX float64, baseOffset int) int {
	x := 0.0
	offset := baseOffset
	for ri := line.FromRun; ri <= line.ToRun && ri < len(b.Runs); ri++ {
		run := b.Runs[ri]
		lo, hi := b.lineRunBounds(line, ri, run)
		if run.Kind == RunTab {
			if targetX < x+run.Width {
				if targetX < x+run.Width/2 {
					return offset
				}
				return offset + 1
			}
			x += run.Width
			offset++
			continue
		}
		for ci := lo; ci < hi; ci++ {
			w := run.CharWidths[ci] + run.LetterSpacing
			if targetX < x+w {
				if targetX < x+w/2 {
					return offset
				}
				return offset + 1
			}
			x += w
			offset++
		}
	}
	return offset
}

// lineRunBounds clips a run's character range to the line boundaries.
func (b *Block) lineRunBounds(line Line, ri int, run RunMetrics) (int, int) {
	lo, hi := 0, run.CharCount()
	if ri == line.FromRun {
		lo = line.FromChar
	}
	if ri == line.ToRun && line.ToChar > 0 {
		hi = line.ToChar
	}
	if hi > run.CharCount() {
		hi = run.CharCount()
	}
	return lo, hi
}

// NextTabStop resolves the stop a tab at position x advances to: the
// first explicit stop past x, else the next multiple of the default
// interval.
func NextTabStop(x float64, stops []float64, interval float64) float64 {
	for _, s := range stops {
		if s > x {
			return s
		}
	}
	if interval <= 0 {
		return x
	}
	next := math.Floor(x/interval+1) * interval
	return next
}
