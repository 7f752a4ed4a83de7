package validator

import (
	"fmt"
	"strings"

	"github.com/docmill/docmill/model"
	"github.com/docmill/docmill/numbering"
	"github.com/docmill/docmill/xmltree"
)

// ListNumbering clears the list attributes of paragraphs referencing a
// numbering definition that does not exist, so layout never renders a
// marker from a dangling reference.
type ListNumbering struct {
	Tables *numbering.Tables
}

func (ListNumbering) Name() string { return "listNumbering" }

func (ListNumbering) Required() Required {
	return Required{Nodes: []string{model.ParagraphType}}
}

func (v ListNumbering) Validate(a *Analysis, tx *model.Transaction) []string {
	if v.Tables == nil {
		return nil
	}
	var out []string
	for _, hit := range a.Nodes[model.ParagraphType] {
		numID := hit.Node.StringAttr("numId")
		if numID == "" || v.Tables.HasNum(numID) {
			continue
		}
		out = append(out, fmt.Sprintf("paragraph at %d references missing numbering definition %q; list attributes cleared", hit.Pos, numID))
		attrs := hit.Node.Attrs.Clone()
		delete(attrs, "numId")
		delete(attrs, "ilvl")
		pos := tx.Mapping().Map(hit.Pos)
		if err := tx.SetNodeAttrs(pos, attrs); err != nil {
			out = append(out, fmt.Sprintf("clearing list attributes at %d: %v", pos, err))
		}
	}
	return out
}

// CommentPairing removes comment anchors whose id has no matching
// opposite anchor, keeping start/end ranges well formed for export.
type CommentPairing struct{}

func (CommentPairing) Name() string { return "commentPairing" }

func (CommentPairing) Required() Required {
	return Required{Nodes: []string{model.CommentRangeStart, model.CommentRangeEnd}}
}

func (CommentPairing) Validate(a *Analysis, tx *model.Transaction) []string {
	starts := map[string]int{}
	ends := map[string]int{}
	for _, hit := range a.Nodes[model.CommentRangeStart] {
		starts[hit.Node.StringAttr("id")] = hit.Pos
	}
	for _, hit := range a.Nodes[model.CommentRangeEnd] {
		ends[hit.Node.StringAttr("id")] = hit.Pos
	}
	var out []string
	drop := func(id string, pos int, kind string) {
		out = append(out, fmt.Sprintf("comment %s anchor %q at %d has no pair; removed", kind, id, pos))
		mapped := tx.Mapping().Map(pos)
		if err := tx.Delete(mapped); err != nil {
			out = append(out, fmt.Sprintf("removing anchor at %d: %v", mapped, err))
		}
	}
	for _, hit := range a.Nodes[model.CommentRangeStart] {
		id := hit.Node.StringAttr("id")
		if _, ok := ends[id]; !ok {
			drop(id, hit.Pos, "start")
		}
	}
	for _, hit := range a.Nodes[model.CommentRangeEnd] {
		id := hit.Node.StringAttr("id")
		if _, ok := starts[id]; !ok {
			drop(id, hit.Pos, "end")
		}
	}
	return out
}

// RelationshipTargets verifies, at export time, that every r:id and
// r:embed reference in the document part resolves to a relationship
// entry. Findings are advisory; a dangling reference means a bug
// upstream in the export pass.
type RelationshipTargets struct{}

func (RelationshipTargets) Name() string { return "relationshipTargets" }

func (RelationshipTargets) Validate(parts map[string]*xmltree.Node) []string {
	doc := parts["word/document.xml"]
	rels := parts["word/_rels/document.xml.rels"]
	if doc == nil {
		return nil
	}
	known := map[string]bool{}
	if rels != nil {
		for _, rel := range rels.Children("Relationship") {
			if id, ok := rel.Attr("Id"); ok {
				known[id] = true
			}
		}
	}
	var out []string
	var walk func(el *xmltree.Node)
	walk = func(el *xmltree.Node) {
		for _, attr := range el.Attributes {
			if attr.Name != "r:id" && attr.Name != "r:embed" {
				continue
			}
			if strings.HasPrefix(attr.Value, "rId") && !known[attr.Value] {
				out = append(out, fmt.Sprintf("<%s %s=%q> has no relationship entry", el.Name, attr.Name, attr.Value))
			}
		}
		for _, child := range el.Elements {
			walk(child)
		}
	}
	walk(doc)
	return out
}
