// Package paginate flows measured content blocks into pages, columns
// and fragments. Geometry comes from section breaks; content comes
// pre-measured so layout never touches fonts directly.
package paginate

// Margins are page margins in pixels.
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Columns is a column layout.
type Columns struct {
	Count int
	Gap   float64
}

// Geometry is the page geometry of one section.
type Geometry struct {
	PageWidth      float64
	PageHeight     float64
	Orientation    string
	Margins        Margins
	HeaderDistance float64
	FooterDistance float64
	// Measured content heights of the section's header and footer
	// parts. Zero when the section has none.
	HeaderHeight float64
	FooterHeight float64
	Columns      Columns
}

// SectionProps carries one section break's declared geometry. Nil
// pointer fields mean "inherit from the active section".
type SectionProps struct {
	Type                string // nextPage, evenPage, oddPage, continuous
	IsFirstSection      bool
	RequirePageBoundary bool
	PageWidth           *float64
	PageHeight          *float64
	Orientation         *string
	Margins             *Margins
	HeaderDistance      *float64
	FooterDistance      *float64
	HeaderHeight        *float64
	FooterHeight        *float64
	Columns             *Columns
}

// BreakDecision is the pure outcome of applying one section break.
type BreakDecision struct {
	ForcePageBreak     bool
	ForceMidPageRegion bool
	// RequiredParity is "even" or "odd" when the next page's 1-based
	// number must match, empty otherwise.
	RequiredParity string
}

// SectionState holds the active geometry plus the pending geometry
// declared by the most recent section break. A break declared
// mid-content must not resize the page its own text sits on, so
// changes park in pending until an actual page boundary commits them.
type SectionState struct {
	started bool
	Active  Geometry
	pending SectionProps
}

// NewSectionState returns a state with the given defaults active.
func NewSectionState(defaults Geometry) *SectionState {
	return &SectionState{Active: defaults}
}

// ApplyBreak updates the state with one section break and returns the
// break decision. The first section applies immediately with no
// pending phase.
func (s *SectionState) ApplyBreak(props SectionProps) BreakDecision {
	if props.IsFirstSection && !s.started {
		s.started = true
		applyProps(&s.Active, props)
		return BreakDecision{}
	}
	s.started = true
	mergePending(&s.pending, props)

	if props.RequirePageBoundary {
		return BreakDecision{ForcePageBreak: true}
	}
	switch props.Type {
	case "nextPage":
		return BreakDecision{ForcePageBreak: true}
	case "evenPage":
		return BreakDecision{ForcePageBreak: true, RequiredParity: "even"}
	case "oddPage":
		return BreakDecision{ForcePageBreak: true, RequiredParity: "odd"}
	default: // continuous
		if props.Columns != nil && *props.Columns != s.Active.Columns {
			return BreakDecision{ForceMidPageRegion: true}
		}
		return BreakDecision{}
	}
}

// PendingColumns returns the pending column layout, falling back to the
// active one. Mid-page regions read this without committing the rest of
// the pending geometry.
func (s *SectionState) PendingColumns() Columns {
	if s.pending.Columns != nil {
		return *s.pending.Columns
	}
	return s.Active.Columns
}

// ApplyPendingToActive commits every pending field into the active
// geometry and clears the pending set. Call only at a page boundary.
func (s *SectionState) ApplyPendingToActive() {
	applyProps(&s.Active, s.pending)
	s.pending = SectionProps{}
}

func applyProps(g *Geometry, p SectionProps) {
	if p.PageWidth != nil {
		g.PageWidth = *p.PageWidth
	}
	if p.PageHeight != nil {
		g.PageHeight = *p.PageHeight
	}
	if p.Orientation != nil {
		g.Orientation = *p.Orientation
	}
	if p.Margins != nil {
		g.Margins = *p.Margins
	}
	if p.HeaderDistance != nil {
		g.HeaderDistance = *p.HeaderDistance
	}
	if p.FooterDistance != nil {
		g.FooterDistance = *p.FooterDistance
	}
	if p.HeaderHeight != nil {
		g.HeaderHeight = *p.HeaderHeight
	}
	if p.FooterHeight != nil {
		g.FooterHeight = *p.FooterHeight
	}
	if p.Columns != nil {
		g.Columns = *p.Columns
	}
	// Header and footer clearance: the text margin can never be
	// tighter than the header/footer distance plus the part's own
	// measured height.
	if res := g.HeaderDistance + g.HeaderHeight; res > g.Margins.Top {
		g.Margins.Top = res
	}
	if res := g.FooterDistance + g.FooterHeight; res > g.Margins.Bottom {
		g.Margins.Bottom = res
	}
}

func mergePending(dst *SectionProps, p SectionProps) {
	if p.PageWidth != nil {
		dst.PageWidth = p.PageWidth
	}
	if p.PageHeight != nil {
		dst.PageHeight = p.PageHeight
	}
	if p.Orientation != nil {
		dst.Orientation = p.Orientation
	}
	if p.Margins != nil {
		dst.Margins = p.Margins
	}
	if p.HeaderDistance != nil {
		dst.HeaderDistance = p.HeaderDistance
	}
	if p.FooterDistance != nil {
		dst.FooterDistance = p.FooterDistance
	}
	if p.HeaderHeight != nil {
		dst.HeaderHeight = p.HeaderHeight
	}
	if p.FooterHeight != nil {
		dst.FooterHeight = p.FooterHeight
	}
	if p.Columns != nil {
		dst.Columns = p.Columns
	}
}
