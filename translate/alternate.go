package translate

import (
	"strings"

	"github.com/docmill/docmill/xmltree"
)

// alternateContentTranslator resolves mc:AlternateContent: the first
// mc:Choice whose Requires namespaces intersect the supported set wins;
// otherwise mc:Fallback; otherwise the first choice's content; an empty
// element is dropped. The chosen content re-enters the dispatcher as if
// it appeared inline.
func alternateContentTranslator() *Translator {
	return &Translator{
		XMLName: "mc:AlternateContent",
		Encode: func(p EncodeParams) Result {
			content := chooseAlternate(p.Node, p.List.reg.supportedNS)
			if len(content) == 0 {
				return Consumed(1) // drop, but claim the element
			}
			return Handled(p.List.EncodeInline(content, p.Ctx)...)
		},
	}
}

func chooseAlternate(el *xmltree.Node, supported map[string]bool) []*xmltree.Node {
	choices := el.Children("mc:Choice")
	for _, choice := range choices {
		requires := strings.Fields(choice.AttrDefault("Requires", ""))
		if len(requires) == 0 {
			continue
		}
		for _, ns := range requires {
			if supported[ns] {
				return choice.Elements
			}
		}
	}
	if fb := el.Child("mc:Fallback"); fb != nil {
		return fb.Elements
	}
	if len(choices) > 0 {
		return choices[0].Elements
	}
	return nil
}
