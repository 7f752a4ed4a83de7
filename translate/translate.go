// Package translate implements the bidirectional OOXML translation
// layer: per-element translators encode XML intermediate trees into
// document nodes and decode them back, dispatched over sibling lists by
// a ListHandler. Translators are stateless across documents; shared
// context (numbering and style tables, comments, relationship cache)
// travels in per-pass context structs.
package translate

import (
	"github.com/docmill/docmill/model"
	"github.com/docmill/docmill/numbering"
	"github.com/docmill/docmill/observability"
	"github.com/docmill/docmill/relationships"
	"github.com/docmill/docmill/styles"
	"github.com/docmill/docmill/xmltree"
)

// Kind discriminates element-level translators from attribute
// contributors whose output merges into a parent node.
type Kind int

const (
	KindNode Kind = iota
	KindAttribute
)

// Result is the outcome of one translator invocation: either the
// translator claimed the input (possibly consuming several siblings) or
// it explicitly did not handle it and the dispatcher falls through.
type Result struct {
	handled   bool
	Fragments []*model.Node
	Consumed  int
	// Attrs carries the contribution of KindAttribute translators.
	Attrs model.Attrs
}

// Handled returns a claiming result over one consumed input node.
func Handled(fragments ...*model.Node) Result {
	return Result{handled: true, Fragments: fragments, Consumed: 1}
}

// Consumed returns a claiming result that consumed n sibling nodes.
func Consumed(n int, fragments ...*model.Node) Result {
	return Result{handled: true, Fragments: fragments, Consumed: n}
}

// AttrContribution returns a claiming result carrying attribute values
// for the parent node instead of fragments.
func AttrContribution(attrs model.Attrs) Result {
	return Result{handled: true, Consumed: 1, Attrs: attrs}
}

// NotHandled signals fall-through to the next candidate translator.
func NotHandled() Result { return Result{} }

// IsHandled reports whether the translator claimed the input.
func (r Result) IsHandled() bool { return r.handled }

// EncodeContext is the shared read context of one import pass.
type EncodeContext struct {
	Numbering *numbering.Tables
	Styles    *styles.Resolver
	// Rels resolves rId references of the part being imported.
	Rels *relationships.Cache
	// Comments maps comment ids to their metadata from the comments part.
	Comments map[string]Comment
	Logger   observability.Logger
}

// CommentsExportType selects how comment anchors survive an export.
type CommentsExportType string

const (
	CommentsAll      CommentsExportType = "all"
	CommentsExternal CommentsExportType = "external" // drop internal-only threads
	CommentsClean    CommentsExportType = "clean"    // drop all anchors
)

// TrackChangesMode selects how tracked revisions are exported.
type TrackChangesMode string

const (
	TrackChangesKeep   TrackChangesMode = "keep"
	TrackChangesAccept TrackChangesMode = "accept"
	TrackChangesReject TrackChangesMode = "reject"
)

// Comment is the metadata of one comment thread.
type Comment struct {
	ID       string
	Author   string
	Date     string
	Internal bool
	Resolved bool
}

// DecodeContext is the shared context of one export pass. A fresh
// relationship cache is constructed per pass by the caller.
type DecodeContext struct {
	Comments           map[string]Comment
	CommentsExportType CommentsExportType
	// ExportedCommentDefs accumulates the comment ids whose anchors were
	// emitted, so the comments part can be filtered to match.
	ExportedCommentDefs map[string]bool
	TrackChanges        TrackChangesMode
	Rels                *relationships.Cache
	Logger              observability.Logger
}

func (c *DecodeContext) markCommentExported(id string) {
	if c.ExportedCommentDefs == nil {
		c.ExportedCommentDefs = make(map[string]bool)
	}
	c.ExportedCommentDefs[id] = true
}

// commentVisible reports whether anchors for the given comment id
// survive the configured export type.
func (c *DecodeContext) commentVisible(id string) bool {
	switch c.CommentsExportType {
	case CommentsClean:
		return false
	case CommentsExternal:
		cm, ok := c.Comments[id]
		if ok && (cm.Internal || cm.Resolved) {
			return false
		}
	}
	return true
}

// EncodeParams is the input of one encode invocation.
type EncodeParams struct {
	// Node is the XML element at the cursor.
	Node *xmltree.Node
	// Siblings is the full sibling list and Index the cursor position,
	// for translators that consume more than one node.
	Siblings []*xmltree.Node
	Index    int
	List     *ListHandler
	Ctx      *EncodeContext
}

// DecodeParams is the input of one decode invocation.
type DecodeParams struct {
	Node *model.Node
	List *ListHandler
	Ctx  *DecodeContext
}

// Translator binds one XML element name and one (or more) document node
// type names to an encode/decode pair. Encode must be pure given its
// XML input and context; Decode must be pure given the node and context.
type Translator struct {
	// XMLName is the OOXML element tag this translator claims on import.
	XMLName string
	// NodeNames lists the document node or mark type names this
	// translator claims on export. One XML element may map to several
	// document constructs (e.g. w:sdt).
	NodeNames []string
	Kind      Kind
	Encode    func(p EncodeParams) Result
	// Decode returns the XML fragment for the node, or nil to omit it.
	Decode func(p DecodeParams) []*xmltree.Node
}
