package translate

import "github.com/docmill/docmill/model"

// SupportedNamespaces lists the namespace prefixes the engine can
// interpret. mc:AlternateContent choices requiring anything outside
// this set are skipped in favor of their fallback.
var SupportedNamespaces = []string{"w", "r", "wp", "a", "pic", "w14", "w15"}

// DefaultTranslators returns the full translator set in registration
// order. Order matters for elements with several candidates: the
// complex-field translator must see a w:r before the plain run
// translator so fldChar begin runs are claimed as field code.
func DefaultTranslators() []*Translator {
	var out []*Translator
	out = append(out, paragraphTranslator())
	out = append(out, tableTranslator())
	out = append(out, complexFieldTranslator())
	out = append(out, runTranslator())
	out = append(out, fieldSimpleTranslator())
	out = append(out, hyperlinkTranslator())
	out = append(out, drawingTranslator())
	out = append(out, sdtTranslator())
	out = append(out, alternateContentTranslator())
	out = append(out, commentAnchorTranslators()...)
	out = append(out, trackChangeTranslators()...)
	out = append(out, bookmarkTranslators()...)
	return out
}

// NewDocRegistry builds the standard registry over the document schema.
func NewDocRegistry() *Registry {
	return NewRegistry(model.MustDocSchema(), DefaultTranslators(), SupportedNamespaces)
}
