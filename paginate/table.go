package paginate

// TableRow is one measured table row. Cell line boxes are relative to
// the row top.
type TableRow struct {
	Height    float64
	CantSplit bool
	IsHeader  bool
	Cells     []CellMeasure
}

// CellMeasure is one cell's measured line boxes with the document
// position range they cover.
type CellMeasure struct {
	FromPos int
	ToPos   int
	Lines   []LineBox
}

// LineBox is one line's vertical extent and position range within a
// cell, relative to the row top.
type LineBox struct {
	FromPos int
	ToPos   int
	Top     float64
	Bottom  float64
}

// RowBreak is the outcome of searching a row for an in-row break.
type RowBreak struct {
	Pos    int
	Bottom float64
}

// boundaryTolerance bounds how far above the requested boundary the
// binary-search fallback may land.
const boundaryTolerance = 50

// findBreakPosInBlock looks for a natural line break inside the row's
// tallest cell: the last line whose bottom fits within boundary. Returns
// false when no line fits or the cell has a single line.
func findBreakPosInBlock(row TableRow, boundary float64) (RowBreak, bool) {
	cell := tallestCell(row)
	if cell == nil || len(cell.Lines) < 2 {
		return RowBreak{}, false
	}
	best := RowBreak{}
	found := false
	for _, line := range cell.Lines {
		if line.Bottom <= boundary && line.Bottom > best.Bottom {
			best = RowBreak{Pos: line.ToPos, Bottom: line.Bottom}
			found = true
		}
	}
	if !found || best.Bottom <= 0 {
		return RowBreak{}, false
	}
	return best, true
}

// findTableRowOverflow chooses where to split a row that exceeds
// boundary. It first tries the cell-content-aware break; when that
// fails it binary-searches document positions within the row against
// measured y-coordinates. The fallback returns the coordinates found
// during the search, never recomputed from a rewound position, so the
// chosen bottom stays at or under the boundary.
func findTableRowOverflow(row TableRow, boundary float64) (RowBreak, bool) {
	if br, ok := findBreakPosInBlock(row, boundary); ok {
		return br, true
	}
	lo, hi := rowPosRange(row)
	if lo >= hi {
		return RowBreak{}, false
	}
	best := RowBreak{}
	found := false
	for lo <= hi {
		mid := (lo + hi) / 2
		y, ok := rowYAt(row, mid)
		if !ok {
			hi = mid - 1
			continue
		}
		if y <= boundary {
			if !found || y > best.Bottom || (y == best.Bottom && mid > best.Pos) {
				best = RowBreak{Pos: mid, Bottom: y}
				found = true
			}
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if !found || best.Bottom <= 0 || boundary-best.Bottom > boundaryTolerance {
		return RowBreak{}, false
	}
	return best, true
}

func tallestCell(row TableRow) *CellMeasure {
	var best *CellMeasure
	bestH := 0.0
	for i := range row.Cells {
		cell := &row.Cells[i]
		if len(cell.Lines) == 0 {
			continue
		}
		h := cell.Lines[len(cell.Lines)-1].Bottom
		if h > bestH {
			bestH = h
			best = cell
		}
	}
	return best
}

func rowPosRange(row TableRow) (int, int) {
	lo, hi := 0, 0
	for i, cell := range row.Cells {
		if i == 0 || cell.FromPos < lo {
			lo = cell.FromPos
		}
		if cell.ToPos > hi {
			hi = cell.ToPos
		}
	}
	return lo, hi
}

// rowYAt returns the bottom coordinate of the line containing pos.
func rowYAt(row TableRow, pos int) (float64, bool) {
	for _, cell := range row.Cells {
		if pos < cell.FromPos || pos > cell.ToPos {
			continue
		}
		for _, line := range cell.Lines {
			if pos >= line.FromPos && pos <= line.ToPos {
				return line.Bottom, true
			}
		}
	}
	return 0, false
}

// rowRemainder rebases a split row onto the next column: placed lines
// are dropped and the survivors shift up by the consumed height, so the
// next overflow search sees remainder-relative coordinates.
func rowRemainder(r TableRow, br RowBreak) TableRow {
	out := TableRow{
		Height:    r.Height - br.Bottom,
		CantSplit: r.CantSplit,
		IsHeader:  r.IsHeader,
		Cells:     make([]CellMeasure, 0, len(r.Cells)),
	}
	for _, cell := range r.Cells {
		nc := CellMeasure{FromPos: cell.FromPos, ToPos: cell.ToPos}
		for _, line := range cell.Lines {
			if line.Bottom <= br.Bottom {
				continue
			}
			line.Top -= br.Bottom
			if line.Top < 0 {
				line.Top = 0
			}
			line.Bottom -= br.Bottom
			nc.Lines = append(nc.Lines, line)
		}
		if len(nc.Lines) > 0 {
			nc.FromPos = nc.Lines[0].FromPos
		}
		out.Cells = append(out.Cells, nc)
	}
	return out
}

// layoutTable flows rows, splitting oversized rows at in-row breaks.
// Row heights are copied so remainder bookkeeping never mutates the
// caller's blocks.
func (e *Engine) layoutTable(b Block) {
	if len(b.Rows) == 0 {
		e.errorFragment(b)
		return
	}
	e.applySpacingBefore(b.SpacingBefore)
	rows := make([]TableRow, len(b.Rows))
	copy(rows, b.Rows)
	row := 0
	continued := false
	for row < len(rows) {
		from := row
		top := e.y
		for row < len(rows) && e.y+rows[row].Height <= e.contentBottom() {
			e.y += rows[row].Height
			row++
		}
		if row > from {
			e.tableFragment(b, from, row, top, -1, continued, row < len(rows))
			continued = false
		}
		if row == len(rows) {
			break
		}
		r := rows[row]
		remaining := e.contentBottom() - e.y
		oversized := !e.used() && r.Height > e.contentBottom()-e.regionTop
		if r.CantSplit || remaining <= 0 {
			if oversized {
				// Taller than a full column: place whole so layout
				// always terminates.
				top = e.y
				e.y += r.Height
				e.tableFragment(b, row, row+1, top, -1, continued, false)
				continued = false
				row++
				continue
			}
			e.nextColumn()
			continue
		}
		br, ok := findTableRowOverflow(r, remaining)
		if !ok {
			if oversized {
				top = e.y
				e.y += r.Height
				e.tableFragment(b, row, row+1, top, -1, continued, false)
				continued = false
				row++
				continue
			}
			e.nextColumn()
			continue
		}
		top = e.y
		e.y += br.Bottom
		e.tableFragment(b, row, row+1, top, br.Pos, continued, true)
		rows[row] = rowRemainder(r, br)
		continued = true
		e.nextColumn()
	}
	e.y += b.SpacingAfter
}

func (e *Engine) tableFragment(b Block, from, to int, top float64, split int, contPrev, contNext bool) {
	e.page().Fragments = append(e.page().Fragments, Fragment{
		Kind:              "tableRow",
		Block:             b.Index,
		Item:              -1,
		X:                 e.colX(),
		Y:                 top,
		Width:             e.colWidth(),
		Height:            e.y - top,
		FromRow:           from,
		ToRow:             to,
		RowSplit:          split,
		ContinuesFromPrev: contPrev,
		ContinuesOnNext:   contNext,
	})
}
