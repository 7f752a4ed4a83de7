package paginate

import (
	"github.com/docmill/docmill/measure"
	"github.com/docmill/docmill/observability"
)

// BlockKind discriminates layout block variants.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockList
	BlockTable
	BlockSection
)

// Block is one measured content block handed to layout.
type Block struct {
	Kind BlockKind
	// Index is the block's position in the source document, carried
	// into fragments so the renderer can resolve content.
	Index int

	// Paragraph content.
	Measure *measure.Block

	// List content.
	Items []ListItem

	// Table content.
	Rows []TableRow

	// Section break.
	Section *SectionProps

	SpacingBefore   float64
	SpacingAfter    float64
	PageBreakBefore bool
}

// ListItem is one measured list item.
type ListItem struct {
	Measure       *measure.Block
	SpacingBefore float64
}

// Fragment is a positioned slice of a block on one page.
type Fragment struct {
	Kind  string // paragraph, list, tableRow, error
	Block int
	Item  int // list item index, -1 otherwise

	X      float64
	Y      float64
	Width  float64
	Height float64

	FromLine int
	ToLine   int // exclusive
	FromRow  int
	ToRow    int // exclusive
	// RowSplit is the in-row break position when a table row was split
	// across pages, -1 when whole rows fit.
	RowSplit int

	ContinuesFromPrev bool
	ContinuesOnNext   bool
}

// Page is one laid-out page.
type Page struct {
	Number    int // 1-based
	Width     float64
	Height    float64
	Blank     bool
	Fragments []Fragment
}

// Engine flows blocks into pages.
type Engine struct {
	state  *SectionState
	logger observability.Logger

	pages []Page

	// cursor
	col       int
	y         float64
	regionTop float64
	cols      Columns
}

// NewEngine returns an engine over the default geometry.
func NewEngine(defaults Geometry, logger observability.Logger) *Engine {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Engine{state: NewSectionState(defaults), logger: logger}
}

// Layout flows the blocks and returns the pages.
func (e *Engine) Layout(blocks []Block) []Page {
	e.startPage("")
	for _, b := range blocks {
		switch b.Kind {
		case BlockSection:
			e.applySection(b)
		case BlockParagraph:
			e.layoutParagraph(b)
		case BlockList:
			e.layoutListBlock(b)
		case BlockTable:
			e.layoutTable(b)
		}
	}
	return e.pages
}

func (e *Engine) applySection(b Block) {
	if b.Section == nil {
		return
	}
	first := b.Section.IsFirstSection && !e.state.started
	decision := e.state.ApplyBreak(*b.Section)
	if first {
		// Geometry changed under the current (still empty) page.
		e.restartCurrentPage()
		return
	}
	switch {
	case decision.ForcePageBreak:
		e.startPage(decision.RequiredParity)
	case decision.ForceMidPageRegion:
		e.startRegion(e.state.PendingColumns())
	}
}

// startPage opens a new page, committing pending geometry and honoring
// a required parity by inserting a blank page when the next number's
// parity is wrong.
func (e *Engine) startPage(parity string) {
	e.state.ApplyPendingToActive()
	n := len(e.pages) + 1
	if parity != "" && !parityMatches(n, parity) {
		g := e.state.Active
		e.pages = append(e.pages, Page{Number: n, Width: g.PageWidth, Height: g.PageHeight, Blank: true})
		n++
	}
	g := e.state.Active
	e.pages = append(e.pages, Page{Number: n, Width: g.PageWidth, Height: g.PageHeight})
	e.col = 0
	e.cols = g.Columns
	e.regionTop = e.contentTop()
	e.y = e.regionTop
}

// restartCurrentPage re-derives the cursor after the first section
// break set the real geometry.
func (e *Engine) restartCurrentPage() {
	g := e.state.Active
	p := e.page()
	p.Width = g.PageWidth
	p.Height = g.PageHeight
	e.col = 0
	e.cols = g.Columns
	e.regionTop = e.contentTop()
	e.y = e.regionTop
}

// startRegion begins a new column layout at the current y without a
// page break.
func (e *Engine) startRegion(cols Columns) {
	e.cols = cols
	e.regionTop = e.y
	e.col = 0
}

// nextColumn advances to the next column, or the next page when the
// current column was the last.
func (e *Engine) nextColumn() {
	if e.col+1 < e.colCount() {
		e.col++
		e.y = e.regionTop
		return
	}
	e.startPage("")
}

func parityMatches(n int, parity string) bool {
	if parity == "even" {
		return n%2 == 0
	}
	return n%2 == 1
}

func (e *Engine) page() *Page { return &e.pages[len(e.pages)-1] }

func (e *Engine) colCount() int {
	if e.cols.Count > 1 {
		return e.cols.Count
	}
	return 1
}

func (e *Engine) contentTop() float64    { return e.state.Active.Margins.Top }
func (e *Engine) contentBottom() float64 { return e.state.Active.PageHeight - e.state.Active.Margins.Bottom }

func (e *Engine) colWidth() float64 {
	g := e.state.Active
	content := g.PageWidth - g.Margins.Left - g.Margins.Right
	n := float64(e.colCount())
	return (content - e.cols.Gap*(n-1)) / n
}

func (e *Engine) colX() float64 {
	return e.state.Active.Margins.Left + float64(e.col)*(e.colWidth()+e.cols.Gap)
}

// applySpacingBefore consumes vertical spacing, deferring it to the
// next column or page when it alone would overflow. Spacing never
// carries across the break.
func (e *Engine) applySpacingBefore(spacing float64) {
	if spacing <= 0 {
		return
	}
	if e.y+spacing > e.contentBottom() {
		e.nextColumn()
		return
	}
	e.y += spacing
}

// layoutParagraph places a paragraph's lines greedily, splitting across
// columns and pages.
func (e *Engine) layoutParagraph(b Block) {
	if b.Measure == nil || len(b.Measure.Lines) == 0 {
		e.errorFragment(b)
		return
	}
	if b.PageBreakBefore && e.used() {
		e.startPage("")
	}
	e.applySpacingBefore(b.SpacingBefore)
	e.placeLines(b, b.Measure, -1, 0)
	e.y += b.SpacingAfter
}

// placeLines flows lines of one measured block from fromLine onward,
// emitting one fragment per column run. item is the list item index or
// -1 for paragraphs.
func (e *Engine) placeLines(b Block, m *measure.Block, item int, fromLine int) {
	kind := "paragraph"
	indent := 0.0
	if item >= 0 {
		kind = "list"
		indent = m.MarkerWidth
	}
	continued := fromLine > 0
	for fromLine < len(m.Lines) {
		to := fromLine
		top := e.y
		for to < len(m.Lines) && e.y+m.Lines[to].Height <= e.contentBottom() {
			e.y += m.Lines[to].Height
			to++
		}
		if to == fromLine {
			// Not even one line fits here.
			if !e.used() && m.Lines[fromLine].Height > e.contentBottom()-e.regionTop {
				// Oversized line on an empty column: place it anyway so
				// layout always terminates.
				e.y += m.Lines[fromLine].Height
				to++
			} else {
				e.nextColumn()
				continue
			}
		}
		frag := Fragment{
			Kind:              kind,
			Block:             b.Index,
			Item:              item,
			X:                 e.colX() + indent,
			Y:                 top,
			Width:             e.colWidth() - indent,
			Height:            e.y - top,
			FromLine:          fromLine,
			ToLine:            to,
			RowSplit:          -1,
			ContinuesFromPrev: continued,
			ContinuesOnNext:   to < len(m.Lines),
		}
		e.page().Fragments = append(e.page().Fragments, frag)
		fromLine = to
		if fromLine < len(m.Lines) {
			e.nextColumn()
			continued = true
		}
	}
}

// layoutListBlock flows each item: marker gutter from the measured
// MarkerWidth, spacing-before deferred across breaks like paragraphs.
func (e *Engine) layoutListBlock(b Block) {
	if len(b.Items) == 0 {
		e.errorFragment(b)
		return
	}
	for i, item := range b.Items {
		if item.Measure == nil || len(item.Measure.Lines) == 0 {
			e.errorFragment(b)
			continue
		}
		e.applySpacingBefore(item.SpacingBefore)
		e.placeLines(b, item.Measure, i, 0)
	}
	e.y += b.SpacingAfter
}

// used reports whether anything was placed at the cursor's column yet.
func (e *Engine) used() bool { return e.y > e.regionTop }

// errorFragment records a placeholder for a block that could not be
// measured, so a bad block degrades to a visible gap instead of
// aborting the page.
func (e *Engine) errorFragment(b Block) {
	const placeholderHeight = 16
	if e.y+placeholderHeight > e.contentBottom() {
		e.nextColumn()
	}
	e.page().Fragments = append(e.page().Fragments, Fragment{
		Kind:     "error",
		Block:    b.Index,
		Item:     -1,
		X:        e.colX(),
		Y:        e.y,
		Width:    e.colWidth(),
		Height:   placeholderHeight,
		RowSplit: -1,
	})
	e.y += placeholderHeight
	e.logger.Warn("block has no measurement, placed error fragment",
		observability.Int("block", b.Index))
}
