// Package packaging reads and writes the OPC zip container. Parts the
// engine understands are exposed as parsed trees; everything else is
// kept as raw bytes and written back byte-identical.
package packaging

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/docmill/docmill/xmltree"
)

// XML part names the engine parses.
var parsedParts = map[string]bool{
	"word/document.xml":            true,
	"word/styles.xml":              true,
	"word/numbering.xml":           true,
	"word/comments.xml":            true,
	"word/settings.xml":            true,
	"[Content_Types].xml":          true,
	"_rels/.rels":                  true,
	"word/_rels/document.xml.rels": true,
}

// Package is one opened docx container.
type Package struct {
	// Parts holds parsed XML trees keyed by part name.
	Parts map[string]*xmltree.Node
	// Raw holds every part the engine does not interpret, byte for byte.
	Raw map[string][]byte
	// order preserves the archive entry order for stable output.
	order []string
}

// New returns an empty package.
func New() *Package {
	return &Package{
		Parts: make(map[string]*xmltree.Node),
		Raw:   make(map[string][]byte),
	}
}

// Read opens a docx byte stream.
func Read(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	p := New()
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open part %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", f.Name, err)
		}
		p.order = append(p.order, f.Name)
		if parsedParts[f.Name] || isHeaderFooter(f.Name) {
			tree, err := xmltree.Parse(content)
			if err != nil {
				return nil, fmt.Errorf("parse part %s: %w", f.Name, err)
			}
			p.Parts[f.Name] = tree
			continue
		}
		p.Raw[f.Name] = content
	}
	return p, nil
}

// SetPart stores a parsed part, replacing any raw copy.
func (p *Package) SetPart(name string, tree *xmltree.Node) {
	if _, parsed := p.Parts[name]; !parsed {
		if _, raw := p.Raw[name]; !raw {
			p.order = append(p.order, name)
		}
	}
	delete(p.Raw, name)
	p.Parts[name] = tree
}

// SetRaw stores an uninterpreted part.
func (p *Package) SetRaw(name string, data []byte) {
	if _, parsed := p.Parts[name]; !parsed {
		if _, raw := p.Raw[name]; !raw {
			p.order = append(p.order, name)
		}
	}
	delete(p.Parts, name)
	p.Raw[name] = data
}

// Part returns a parsed part or nil.
func (p *Package) Part(name string) *xmltree.Node { return p.Parts[name] }

// HeaderFooterParts returns the parsed header and footer part names in
// stable order.
func (p *Package) HeaderFooterParts() []string {
	var out []string
	for name := range p.Parts {
		if isHeaderFooter(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Write serializes the package back to docx bytes. Parts keep their
// original archive order; new parts append in creation order.
func (p *Package) Write() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range p.order {
		var content []byte
		switch {
		case p.Parts[name] != nil:
			content = xmltree.Serialize(p.Parts[name])
		case p.Raw[name] != nil:
			content = p.Raw[name]
		default:
			continue // part was removed
		}
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("create part %s: %w", name, err)
		}
		if _, err := w.Write(content); err != nil {
			return nil, fmt.Errorf("write part %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close package: %w", err)
	}
	return buf.Bytes(), nil
}

// Remove drops a part entirely.
func (p *Package) Remove(name string) {
	delete(p.Parts, name)
	delete(p.Raw, name)
}

// EnsureContentType registers a default extension mapping in
// [Content_Types].xml, creating the part when absent.
func (p *Package) EnsureContentType(extension, contentType string) {
	ct := p.Parts["[Content_Types].xml"]
	if ct == nil {
		ct = xmltree.NewElement("Types")
		ct.SetAttr("xmlns", "http://schemas.openxmlformats.org/package/2006/content-types")
		p.SetPart("[Content_Types].xml", ct)
	}
	for _, d := range ct.Children("Default") {
		if ext, _ := d.Attr("Extension"); ext == extension {
			return
		}
	}
	def := xmltree.NewElement("Default")
	def.SetAttr("Extension", extension)
	def.SetAttr("ContentType", contentType)
	ct.AppendChild(def)
}

func isHeaderFooter(name string) bool {
	if !strings.HasPrefix(name, "word/") || !strings.HasSuffix(name, ".xml") {
		return false
	}
	base := strings.TrimPrefix(name, "word/")
	return strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")
}
