// Package relationships manages the rId-style relationship entries of
// one OOXML part during a single export pass. A Cache is constructed
// fresh per pass: it captures the highest existing numeric suffix at
// construction and allocates monotonically above it.
package relationships

import (
	"strconv"
	"strings"

	"github.com/docmill/docmill/xmltree"
)

// Relationship type names accepted by GetOrCreate, mapped to their
// OOXML relationship-type URIs.
const (
	TypeHyperlink = "hyperlink"
	TypeImage     = "image"
	TypeHeader    = "header"
	TypeFooter    = "footer"
	TypeNumbering = "numbering"
	TypeStyles    = "styles"
	TypeComments  = "comments"
	TypeFontTable = "fontTable"
	TypeSettings  = "settings"
	TypeTheme     = "theme"
)

const relBase = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"

var typeURIs = map[string]string{
	TypeHyperlink: relBase + "hyperlink",
	TypeImage:     relBase + "image",
	TypeHeader:    relBase + "header",
	TypeFooter:    relBase + "footer",
	TypeNumbering: relBase + "numbering",
	TypeStyles:    relBase + "styles",
	TypeComments:  relBase + "comments",
	TypeFontTable: relBase + "fontTable",
	TypeSettings:  relBase + "settings",
	TypeTheme:     relBase + "theme",
}

// TypeURI returns the relationship-type URI for a semantic type name.
func TypeURI(name string) (string, bool) {
	uri, ok := typeURIs[name]
	return uri, ok
}

// Cache resolves and creates relationship entries against one
// Relationships part. Not safe for concurrent use; scope one Cache to
// one export pass.
type Cache struct {
	part    *xmltree.Node // <Relationships> element
	byTgt   map[string]string
	maxID   int
	scanned bool
}

// NewCache wraps an existing Relationships part, or starts an empty one
// when part is nil.
func NewCache(part *xmltree.Node) *Cache {
	if part == nil {
		part = xmltree.NewElement("Relationships")
		part.SetAttr("xmlns", "http://schemas.openxmlformats.org/package/2006/relationships")
	}
	c := &Cache{part: part, byTgt: make(map[string]string)}
	for _, rel := range part.Children("Relationship") {
		if id, ok := rel.Attr("Id"); ok {
			if n, numOK := numericSuffix(id); numOK && n > c.maxID {
				c.maxID = n
			}
		}
	}
	return c
}

// Part returns the Relationships element including entries created by
// this cache.
func (c *Cache) Part() *xmltree.Node { return c.part }

// Find returns the Id of the relationship whose target matches (after
// normalization), or "" when absent.
func (c *Cache) Find(target string) string {
	key := normalizeTarget(target)
	if id, ok := c.byTgt[key]; ok {
		return id
	}
	if !c.scanned {
		for _, rel := range c.part.Children("Relationship") {
			tgt, _ := rel.Attr("Target")
			id, _ := rel.Attr("Id")
			c.byTgt[normalizeTarget(tgt)] = id
		}
		c.scanned = true
		if id, ok := c.byTgt[key]; ok {
			return id
		}
	}
	return ""
}

// GetOrCreate returns the Id for target, creating a relationship of the
// given semantic type when none exists. Returns "" for unknown types.
// Id allocation is monotonic and never reused within one cache.
func (c *Cache) GetOrCreate(target, typ string) string {
	if id := c.Find(target); id != "" {
		return id
	}
	uri, ok := typeURIs[typ]
	if !ok {
		return ""
	}
	c.maxID++
	id := "rId" + strconv.Itoa(c.maxID)
	rel := xmltree.NewElement("Relationship")
	rel.SetAttr("Id", id)
	rel.SetAttr("Type", uri)
	rel.SetAttr("Target", normalizeTarget(target))
	if typ == TypeHyperlink {
		rel.SetAttr("TargetMode", "External")
	}
	c.part.AppendChild(rel)
	c.byTgt[normalizeTarget(target)] = id
	return id
}

// Target returns the target path stored for an existing Id, or "".
func (c *Cache) Target(id string) string {
	for _, rel := range c.part.Children("Relationship") {
		if got, _ := rel.Attr("Id"); got == id {
			tgt, _ := rel.Attr("Target")
			return tgt
		}
	}
	return ""
}

// normalizeTarget canonicalizes relationship targets. Targets in
// word/_rels/document.xml.rels are relative to word/, so an accidental
// "word/media/x.png" spelling and "media/x.png" are the same part.
// External URLs pass through untouched.
func normalizeTarget(target string) string {
	if strings.Contains(target, "://") || strings.HasPrefix(target, "mailto:") {
		return target
	}
	target = strings.TrimPrefix(target, "/")
	return strings.TrimPrefix(target, "word/")
}

func numericSuffix(id string) (int, bool) {
	const prefix = "rId"
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(id[len(prefix):])
	if err != nil {
		return 0, false
	}
	return n, true
}
