package translate

import (
	"github.com/docmill/docmill/model"
	"github.com/docmill/docmill/xmltree"
)

// Registry holds the translator lookup maps, keyed by XML element name
// for the encode direction and by document node/mark name for decode.
// Construct once at startup and share read-only; no package-level
// mutable state so independent registries can coexist in one process.
type Registry struct {
	schema      *model.Schema
	byXML       map[string][]*Translator
	byNode      map[string]*Translator
	marks       []markHandler
	markByType  map[string]*markHandler
	supportedNS map[string]bool
}

// NewRegistry builds a registry from the given translators and the
// namespace prefixes the engine understands (consulted by the
// mc:AlternateContent translator).
func NewRegistry(schema *model.Schema, translators []*Translator, supportedNS []string) *Registry {
	r := &Registry{
		schema:      schema,
		byXML:       make(map[string][]*Translator),
		byNode:      make(map[string]*Translator),
		markByType:  make(map[string]*markHandler),
		supportedNS: make(map[string]bool, len(supportedNS)),
	}
	for _, ns := range supportedNS {
		r.supportedNS[ns] = true
	}
	for _, tr := range translators {
		if tr.XMLName != "" {
			r.byXML[tr.XMLName] = append(r.byXML[tr.XMLName], tr)
		}
		for _, name := range tr.NodeNames {
			if _, taken := r.byNode[name]; !taken {
				r.byNode[name] = tr
			}
		}
	}
	r.marks = runMarkHandlers()
	for i := range r.marks {
		r.markByType[r.marks[i].markType] = &r.marks[i]
	}
	return r
}

// Schema returns the registry's document schema.
func (r *Registry) Schema() *model.Schema { return r.schema }

// ListHandler walks sibling lists in both directions, consulting the
// registry at each position and splicing in translator output. It never
// catches translator panics; they propagate to the importer/exporter
// boundary which applies the configured recovery strategy.
type ListHandler struct {
	reg *Registry
}

// NewListHandler returns a handler over the registry.
func NewListHandler(reg *Registry) *ListHandler {
	return &ListHandler{reg: reg}
}

// Registry exposes the backing registry to translators.
func (h *ListHandler) Registry() *Registry { return h.reg }

// EncodeBlocks encodes a sibling list of block-level XML elements.
// Elements no translator claims become passthrough nodes preserving the
// original XML verbatim.
func (h *ListHandler) EncodeBlocks(els []*xmltree.Node, ctx *EncodeContext) []*model.Node {
	return h.encodeList(els, ctx, false)
}

// EncodeInline encodes paragraph-level (inline) content.
func (h *ListHandler) EncodeInline(els []*xmltree.Node, ctx *EncodeContext) []*model.Node {
	return h.encodeList(els, ctx, true)
}

func (h *ListHandler) encodeList(els []*xmltree.Node, ctx *EncodeContext, inline bool) []*model.Node {
	var out []*model.Node
	for i := 0; i < len(els); {
		el := els[i]
		if el.IsText() {
			i++
			continue
		}
		res := h.encodeOne(els, i, ctx)
		if res.IsHandled() {
			out = append(out, res.Fragments...)
			if res.Consumed < 1 {
				res.Consumed = 1
			}
			i += res.Consumed
			continue
		}
		out = append(out, passthroughNode(el, inline))
		i++
	}
	return out
}

func (h *ListHandler) encodeOne(els []*xmltree.Node, i int, ctx *EncodeContext) Result {
	for _, tr := range h.reg.byXML[els[i].Name] {
		if tr.Encode == nil {
			continue
		}
		res := tr.Encode(EncodeParams{Node: els[i], Siblings: els, Index: i, List: h, Ctx: ctx})
		if res.IsHandled() {
			return res
		}
	}
	return NotHandled()
}

// DecodeBlocks decodes a sibling list of block-level document nodes to
// an ordered XML element sequence. Schema-required child ordering is
// the translators' responsibility: each constructs fixed-position child
// arrays; the dispatcher never reorders output.
func (h *ListHandler) DecodeBlocks(nodes []*model.Node, ctx *DecodeContext) []*xmltree.Node {
	var out []*xmltree.Node
	for _, n := range nodes {
		if n.Type == model.PassthroughType || n.Type == model.PassthroughInline {
			if el := passthroughXML(n); el != nil {
				out = append(out, el)
			}
			continue
		}
		tr := h.reg.byNode[n.Type]
		if tr == nil || tr.Decode == nil {
			continue // unknown in-memory construct: silently omitted
		}
		out = append(out, tr.Decode(DecodeParams{Node: n, List: h, Ctx: ctx})...)
	}
	return out
}

func passthroughNode(el *xmltree.Node, inline bool) *model.Node {
	typ := model.PassthroughType
	if inline {
		typ = model.PassthroughInline
	}
	return model.NewNode(typ, model.Attrs{"xml": xmltree.SerializeFragment(el)})
}

func passthroughXML(n *model.Node) *xmltree.Node {
	raw := n.StringAttr("xml")
	if raw == "" {
		return nil
	}
	el, err := xmltree.ParseFragment(raw)
	if err != nil {
		return nil
	}
	return el
}
