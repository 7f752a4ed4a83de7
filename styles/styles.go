// Package styles resolves effective paragraph and run properties from
// the styles part: document defaults, then the basedOn chain, then
// direct formatting. Resolution results are held in an explicit
// per-document cache keyed by stable node indexes and invalidated when
// a transaction touches the owning node.
package styles

import (
	"strconv"

	"github.com/docmill/docmill/xmltree"
)

// ParaProps are resolved paragraph-level properties in layout units
// (twips for lengths, 240ths for line spacing).
type ParaProps struct {
	SpacingBefore int
	SpacingAfter  int
	Line          int // w:spacing w:line value; 240 = single
	LineRule      string
	IndentLeft    int
	IndentRight   int
	FirstLine     int
	Hanging       int
	Align         string
	KeepNext      bool
	OutlineLevel  int // 0 = body text; headings carry 1-9
}

// RunProps are resolved run-level properties.
type RunProps struct {
	Bold       bool
	Italic     bool
	Underline  string
	Strike     bool
	Color      string
	Highlight  string
	FontFamily string
	SizeHalf   int // half-points
	Spacing    int // letter spacing, twips
}

// Style is one style definition.
type Style struct {
	ID      string
	Type    string // paragraph, character, table, numbering
	Name    string
	BasedOn string
	para    ParaProps
	run     RunProps
	paraSet propsMask
	runSet  propsMask
}

type propsMask uint32

const (
	maskSpacingBefore propsMask = 1 << iota
	maskSpacingAfter
	maskLine
	maskIndent
	maskAlign
	maskKeepNext
	maskOutline
	maskBold
	maskItalic
	maskUnderline
	maskStrike
	maskColor
	maskHighlight
	maskFont
	maskSize
	maskLetterSpacing
)

// Resolver resolves style chains for one document.
type Resolver struct {
	styles       map[string]*Style
	defaultPara  ParaProps
	defaultRun   RunProps
	defaultParaStyle string
}

// Empty returns a resolver with built-in defaults only.
func Empty() *Resolver {
	return &Resolver{
		styles:     map[string]*Style{},
		defaultRun: RunProps{SizeHalf: 22, FontFamily: "Calibri"},
		defaultPara: ParaProps{Line: 240, LineRule: "auto"},
	}
}

// Parse builds a resolver from a w:styles root element. A nil root
// yields defaults.
func Parse(root *xmltree.Node) *Resolver {
	r := Empty()
	if root == nil {
		return r
	}
	if dd := root.Child("w:docDefaults"); dd != nil {
		if rd := dd.Child("w:rPrDefault"); rd != nil {
			if rPr := rd.Child("w:rPr"); rPr != nil {
				applyRunProps(rPr, &r.defaultRun, nil)
			}
		}
		if pd := dd.Child("w:pPrDefault"); pd != nil {
			if pPr := pd.Child("w:pPr"); pPr != nil {
				applyParaProps(pPr, &r.defaultPara, nil)
			}
		}
	}
	for _, el := range root.Children("w:style") {
		s := &Style{}
		s.ID, _ = el.Attr("w:styleId")
		s.Type, _ = el.Attr("w:type")
		if n := el.Child("w:name"); n != nil {
			s.Name = n.AttrDefault("w:val", "")
		}
		if b := el.Child("w:basedOn"); b != nil {
			s.BasedOn = b.AttrDefault("w:val", "")
		}
		if pPr := el.Child("w:pPr"); pPr != nil {
			applyParaProps(pPr, &s.para, &s.paraSet)
		}
		if rPr := el.Child("w:rPr"); rPr != nil {
			applyRunProps(rPr, &s.run, &s.runSet)
		}
		if s.Type == "paragraph" {
			if def, ok := el.Attr("w:default"); ok && (def == "1" || def == "true") {
				r.defaultParaStyle = s.ID
			}
		}
		r.styles[s.ID] = s
	}
	return r
}

// Style returns the named style, or nil.
func (r *Resolver) Style(id string) *Style { return r.styles[id] }

// DefaultParagraphStyle returns the document's default paragraph style
// id ("" when the styles part declares none).
func (r *Resolver) DefaultParagraphStyle() string { return r.defaultParaStyle }

// ResolveParagraph returns the effective paragraph properties for a
// style id, following the basedOn chain over document defaults. Cycles
// are guarded by a visited set.
func (r *Resolver) ResolveParagraph(styleID string) ParaProps {
	out := r.defaultPara
	r.applyChain(styleID, map[string]bool{}, func(s *Style) {
		mergePara(&out, s)
	})
	return out
}

// ResolveRun returns the effective run properties for a paragraph style
// id (character styles chain the same way).
func (r *Resolver) ResolveRun(styleID string) RunProps {
	out := r.defaultRun
	r.applyChain(styleID, map[string]bool{}, func(s *Style) {
		mergeRun(&out, s)
	})
	return out
}

// applyChain invokes fn from the root of the basedOn chain down to
// styleID so nearer styles win.
func (r *Resolver) applyChain(styleID string, seen map[string]bool, fn func(*Style)) {
	if styleID == "" || seen[styleID] {
		return
	}
	seen[styleID] = true
	s, ok := r.styles[styleID]
	if !ok {
		return
	}
	r.applyChain(s.BasedOn, seen, fn)
	fn(s)
}

func mergePara(out *ParaProps, s *Style) {
	if s.paraSet&maskSpacingBefore != 0 {
		out.SpacingBefore = s.para.SpacingBefore
	}
	if s.paraSet&maskSpacingAfter != 0 {
		out.SpacingAfter = s.para.SpacingAfter
	}
	if s.paraSet&maskLine != 0 {
		out.Line, out.LineRule = s.para.Line, s.para.LineRule
	}
	if s.paraSet&maskIndent != 0 {
		out.IndentLeft, out.IndentRight = s.para.IndentLeft, s.para.IndentRight
		out.FirstLine, out.Hanging = s.para.FirstLine, s.para.Hanging
	}
	if s.paraSet&maskAlign != 0 {
		out.Align = s.para.Align
	}
	if s.paraSet&maskKeepNext != 0 {
		out.KeepNext = s.para.KeepNext
	}
	if s.paraSet&maskOutline != 0 {
		out.OutlineLevel = s.para.OutlineLevel
	}
}

func mergeRun(out *RunProps, s *Style) {
	if s.runSet&maskBold != 0 {
		out.Bold = s.run.Bold
	}
	if s.runSet&maskItalic != 0 {
		out.Italic = s.run.Italic
	}
	if s.runSet&maskUnderline != 0 {
		out.Underline = s.run.Underline
	}
	if s.runSet&maskStrike != 0 {
		out.Strike = s.run.Strike
	}
	if s.runSet&maskColor != 0 {
		out.Color = s.run.Color
	}
	if s.runSet&maskHighlight != 0 {
		out.Highlight = s.run.Highlight
	}
	if s.runSet&maskFont != 0 {
		out.FontFamily = s.run.FontFamily
	}
	if s.runSet&maskSize != 0 {
		out.SizeHalf = s.run.SizeHalf
	}
	if s.runSet&maskLetterSpacing != 0 {
		out.Spacing = s.run.Spacing
	}
}

func applyParaProps(pPr *xmltree.Node, p *ParaProps, set *propsMask) {
	mark := func(m propsMask) {
		if set != nil {
			*set |= m
		}
	}
	if sp := pPr.Child("w:spacing"); sp != nil {
		if v, ok := sp.Attr("w:before"); ok {
			p.SpacingBefore = atoi(v)
			mark(maskSpacingBefore)
		}
		if v, ok := sp.Attr("w:after"); ok {
			p.SpacingAfter = atoi(v)
			mark(maskSpacingAfter)
		}
		if v, ok := sp.Attr("w:line"); ok {
			p.Line = atoi(v)
			p.LineRule = sp.AttrDefault("w:lineRule", "auto")
			mark(maskLine)
		}
	}
	if ind := pPr.Child("w:ind"); ind != nil {
		p.IndentLeft = atoi(ind.AttrDefault("w:left", "0"))
		p.IndentRight = atoi(ind.AttrDefault("w:right", "0"))
		p.FirstLine = atoi(ind.AttrDefault("w:firstLine", "0"))
		p.Hanging = atoi(ind.AttrDefault("w:hanging", "0"))
		mark(maskIndent)
	}
	if jc := pPr.Child("w:jc"); jc != nil {
		p.Align = jc.AttrDefault("w:val", "left")
		mark(maskAlign)
	}
	if pPr.Child("w:keepNext") != nil {
		p.KeepNext = true
		mark(maskKeepNext)
	}
	if ol := pPr.Child("w:outlineLvl"); ol != nil {
		p.OutlineLevel = atoi(ol.AttrDefault("w:val", "0")) + 1
		mark(maskOutline)
	}
}

func applyRunProps(rPr *xmltree.Node, rp *RunProps, set *propsMask) {
	mark := func(m propsMask) {
		if set != nil {
			*set |= m
		}
	}
	if el := rPr.Child("w:b"); el != nil {
		rp.Bold = onOff(el)
		mark(maskBold)
	}
	if el := rPr.Child("w:i"); el != nil {
		rp.Italic = onOff(el)
		mark(maskItalic)
	}
	if el := rPr.Child("w:u"); el != nil {
		rp.Underline = el.AttrDefault("w:val", "single")
		mark(maskUnderline)
	}
	if el := rPr.Child("w:strike"); el != nil {
		rp.Strike = onOff(el)
		mark(maskStrike)
	}
	if el := rPr.Child("w:color"); el != nil {
		rp.Color = el.AttrDefault("w:val", "")
		mark(maskColor)
	}
	if el := rPr.Child("w:highlight"); el != nil {
		rp.Highlight = el.AttrDefault("w:val", "")
		mark(maskHighlight)
	}
	if el := rPr.Child("w:rFonts"); el != nil {
		if v, ok := el.Attr("w:ascii"); ok {
			rp.FontFamily = v
			mark(maskFont)
		}
	}
	if el := rPr.Child("w:sz"); el != nil {
		rp.SizeHalf = atoi(el.AttrDefault("w:val", "0"))
		mark(maskSize)
	}
	if el := rPr.Child("w:spacing"); el != nil {
		rp.Spacing = atoi(el.AttrDefault("w:val", "0"))
		mark(maskLetterSpacing)
	}
}

// onOff applies the OOXML boolean convention: presence without a value
// or a value in {1,true,on} is true; {0,false,off} is false; anything
// else falls back to presence-implies-true.
func onOff(el *xmltree.Node) bool {
	v, ok := el.Attr("w:val")
	if !ok {
		return true
	}
	switch v {
	case "0", "false", "off":
		return false
	}
	return true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
