package model

// Node type names of the document schema.
const (
	DocType            = "doc"
	ParagraphType      = "paragraph"
	TabType            = "tab"
	HardBreakType      = "hardBreak"
	ImageType          = "image"
	TableType          = "table"
	TableRowType       = "tableRow"
	TableCellType      = "tableCell"
	BookmarkStartType  = "bookmarkStart"
	BookmarkEndType    = "bookmarkEnd"
	CommentRangeStart  = "commentRangeStart"
	CommentRangeEnd    = "commentRangeEnd"
	CommentReference   = "commentReference"
	SectionBreakType   = "sectionBreak"
	StructuredContent  = "structuredContent"
	StructuredBlock    = "structuredContentBlock"
	FieldCodeType      = "fieldCode"
	PassthroughType    = "passthrough"
	PassthroughInline  = "passthroughInline"
)

// Mark type names of the document schema.
const (
	BoldMark          = "bold"
	ItalicMark        = "italic"
	UnderlineMark     = "underline"
	StrikeMark        = "strike"
	ColorMark         = "color"
	HighlightMark     = "highlight"
	FontFamilyMark    = "fontFamily"
	FontSizeMark      = "fontSize"
	LetterSpacingMark = "letterSpacing"
	LinkMark          = "link"
	TrackInsertMark   = "trackInsert"
	TrackDeleteMark   = "trackDelete"
	CommentMark       = "comment"
)

// DocSchema returns the schema for Word-backed documents. Lists follow
// the Word model: list items are paragraphs carrying numId/ilvl attrs
// rather than nested list container nodes.
func DocSchema() (*Schema, error) {
	nodes := []NodeSpec{
		{Name: DocType, Content: "block+"},
		{Name: ParagraphType, Content: "inline*", Group: "block", Attrs: map[string]any{
			"styleId":       nil,
			"numId":         nil,
			"ilvl":          nil,
			"spacingBefore": nil,
			"spacingAfter":  nil,
			"lineHeight":    nil,
			"indent":        nil,
			"align":         nil,
			"keepNext":      nil,
			"pageBreakBefore": nil,
			"rsid":          nil,
		}},
		{Name: TabType, Inline: true, Atom: true, Group: "inline"},
		{Name: HardBreakType, Inline: true, Atom: true, Group: "inline", Attrs: map[string]any{"breakType": "textWrapping"}},
		{Name: ImageType, Inline: true, Atom: true, Group: "inline", Attrs: map[string]any{
			"src":    nil,
			"rId":    nil,
			"width":  nil,
			"height": nil,
			"alt":    nil,
		}},
		{Name: TableType, Content: "tableRow+", Group: "block", Attrs: map[string]any{
			"gridCols": nil,
			"width":    nil,
			"borders":  nil,
			"styleId":  nil,
		}},
		{Name: TableRowType, Content: "tableCell+", Attrs: map[string]any{
			"height":    nil,
			"cantSplit": nil,
			"isHeader":  nil,
		}},
		{Name: TableCellType, Content: "block+", Attrs: map[string]any{
			"colspan": 1,
			"vMerge":  nil,
			"width":   nil,
			"shading": nil,
		}},
		{Name: BookmarkStartType, Inline: true, Atom: true, Group: "inline", Attrs: map[string]any{"id": nil, "name": nil}},
		{Name: BookmarkEndType, Inline: true, Atom: true, Group: "inline", Attrs: map[string]any{"id": nil}},
		{Name: CommentRangeStart, Inline: true, Atom: true, Group: "inline", Attrs: map[string]any{"id": nil}},
		{Name: CommentRangeEnd, Inline: true, Atom: true, Group: "inline", Attrs: map[string]any{"id": nil}},
		{Name: CommentReference, Inline: true, Atom: true, Group: "inline", Attrs: map[string]any{"id": nil}},
		{Name: SectionBreakType, Group: "block", Atom: true, Attrs: map[string]any{
			"type":            "nextPage",
			"isFirstSection":  false,
			"pageWidth":       nil,
			"pageHeight":      nil,
			"orientation":     nil,
			"margins":         nil,
			"headerDistance":  nil,
			"footerDistance":  nil,
			"columnCount":     nil,
			"columnGap":       nil,
			"requirePageBoundary": false,
			"headerRefs":      nil,
			"footerRefs":      nil,
		}},
		{Name: StructuredContent, Inline: true, Content: "inline*", Group: "inline", Attrs: map[string]any{"sdtPr": nil, "alias": nil, "tag": nil}},
		{Name: StructuredBlock, Content: "block+", Group: "block", Attrs: map[string]any{"sdtPr": nil, "alias": nil, "tag": nil}},
		{Name: FieldCodeType, Inline: true, Content: "inline*", Group: "inline", Attrs: map[string]any{"instruction": nil, "lock": false}},
		{Name: PassthroughType, Group: "block", Atom: true, Attrs: map[string]any{"xml": nil}},
		{Name: PassthroughInline, Inline: true, Atom: true, Group: "inline", Attrs: map[string]any{"xml": nil}},
	}
	marks := []MarkSpec{
		{Name: BoldMark},
		{Name: ItalicMark},
		{Name: UnderlineMark, Attrs: map[string]any{"style": "single"}},
		{Name: StrikeMark},
		{Name: ColorMark, Attrs: map[string]any{"color": nil}},
		{Name: HighlightMark, Attrs: map[string]any{"color": nil}},
		{Name: FontFamilyMark, Attrs: map[string]any{"name": nil}},
		{Name: FontSizeMark, Attrs: map[string]any{"halfPoints": nil}},
		{Name: LetterSpacingMark, Attrs: map[string]any{"twips": nil}},
		{Name: LinkMark, Attrs: map[string]any{"href": nil, "rId": nil, "anchor": nil}},
		{Name: TrackInsertMark, Attrs: map[string]any{"id": nil, "author": nil, "date": nil}},
		{Name: TrackDeleteMark, Attrs: map[string]any{"id": nil, "author": nil, "date": nil}},
		{Name: CommentMark, Attrs: map[string]any{"id": nil, "internal": false, "resolved": false}},
	}
	return NewSchema(nodes, marks)
}

// MustDocSchema returns DocSchema or panics; for registry construction
// at startup.
func MustDocSchema() *Schema {
	s, err := DocSchema()
	if err != nil {
		panic(err)
	}
	return s
}
