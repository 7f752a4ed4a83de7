package translate

import (
	"strings"

	"github.com/docmill/docmill/fieldinst"
	"github.com/docmill/docmill/model"
	"github.com/docmill/docmill/styles"
	"github.com/docmill/docmill/xmltree"
)

// Field codes arrive in two spellings: w:fldSimple with the instruction
// as an attribute, and the begin/instrText/separate/end run sequence.
// Both encode to a fieldCode node holding the instruction text and the
// cached result as content; decode always emits the compact w:fldSimple
// form.

func fieldSimpleTranslator() *Translator {
	return &Translator{
		XMLName:   "w:fldSimple",
		NodeNames: []string{model.FieldCodeType},
		Encode: func(p EncodeParams) Result {
			instr := strings.TrimSpace(p.Node.AttrDefault("w:instr", ""))
			if instr == "" {
				return NotHandled()
			}
			content := p.List.EncodeInline(p.Node.Elements, p.Ctx)
			return Handled(model.NewNode(model.FieldCodeType,
				model.Attrs{"instruction": instr}, content...))
		},
		Decode: func(p DecodeParams) []*xmltree.Node {
			return decodeFieldCode(p.Node, p.List, p.Ctx)
		},
	}
}

// complexFieldTranslator claims a w:r containing w:fldChar begin and
// consumes siblings through the matching end. Registered ahead of the
// plain run translator so it gets first refusal on every run.
func complexFieldTranslator() *Translator {
	return &Translator{
		XMLName: "w:r",
		Encode: func(p EncodeParams) Result {
			if fldCharType(p.Node) != "begin" {
				return NotHandled()
			}
			var instr strings.Builder
			var resultRuns []*xmltree.Node
			depth := 1
			seenSeparate := false
			consumed := 1
			for i := p.Index + 1; i < len(p.Siblings); i++ {
				consumed++
				run := p.Siblings[i]
				switch fldCharType(run) {
				case "begin":
					depth++
				case "separate":
					if depth == 1 {
						seenSeparate = true
					}
				case "end":
					depth--
					if depth == 0 {
						content := p.List.EncodeInline(resultRuns, p.Ctx)
						text := strings.TrimSpace(instr.String())
						if text == "" {
							return Consumed(consumed)
						}
						return Consumed(consumed, model.NewNode(model.FieldCodeType,
							model.Attrs{"instruction": text}, content...))
					}
				default:
					if seenSeparate {
						resultRuns = append(resultRuns, run)
					} else if it := run.Child("w:instrText"); it != nil {
						instr.WriteString(it.InnerText())
					}
				}
			}
			// Unterminated field: malformed input, nothing produced here;
			// the plain run translator takes over.
			return NotHandled()
		},
	}
}

func fldCharType(run *xmltree.Node) string {
	if run.Name != "w:r" {
		return ""
	}
	if fc := run.Child("w:fldChar"); fc != nil {
		return fc.AttrDefault("w:fldCharType", "")
	}
	return ""
}

func decodeFieldCode(n *model.Node, h *ListHandler, ctx *DecodeContext) []*xmltree.Node {
	instr := n.StringAttr("instruction")
	if instr == "" {
		return nil
	}
	el := xmltree.NewElement("w:fldSimple")
	el.SetAttr("w:instr", instr)
	if n.BoolAttr("lock") {
		el.SetAttr("w:fldLock", "1")
	}
	el.AppendChild(h.DecodeInline(n.Content, ctx)...)
	return []*xmltree.Node{el}
}

// TOCEntry is one resolved table-of-contents entry.
type TOCEntry struct {
	Text     string
	Level    int // 1-based outline level
	Bookmark string
	Page     string
}

// BuildTOCEntries resolves TOC entries from the document's heading
// paragraphs (styles with an outline level within the instruction's
// \o range). Page numbers come from pageOf, which may return "" before
// pagination has run; entries then render an unknown-page placeholder
// at format time, never fabricated values.
func BuildTOCEntries(doc *model.Node, resolver *styles.Resolver, ins *fieldinst.Instruction, pageOf func(pos int) string) []TOCEntry {
	minLevel, maxLevel := 1, 3
	if rng := ins.Switch("o"); rng != "" {
		if lo, hi, ok := parseLevelRange(rng); ok {
			minLevel, maxLevel = lo, hi
		}
	}
	var entries []TOCEntry
	model.Walk(doc, func(n *model.Node, pos int) bool {
		if n.Type != model.ParagraphType {
			return true
		}
		styleID := n.StringAttr("styleId")
		if styleID == "" || resolver == nil {
			return true
		}
		level := resolver.ResolveParagraph(styleID).OutlineLevel
		if level < minLevel || level > maxLevel {
			return true
		}
		text := strings.TrimSpace(n.TextContent())
		if text == "" {
			return true
		}
		page := ""
		if pageOf != nil {
			page = pageOf(pos)
		}
		entries = append(entries, TOCEntry{
			Text:     text,
			Level:    level,
			Bookmark: bookmarkIn(n),
			Page:     page,
		})
		return true
	})
	return entries
}

func bookmarkIn(p *model.Node) string {
	for _, c := range p.Content {
		if c.Type == model.BookmarkStartType {
			if name := c.StringAttr("name"); strings.HasPrefix(name, "_Toc") {
				return name
			}
		}
	}
	return ""
}

func parseLevelRange(s string) (int, int, bool) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, ok1 := Int(strings.TrimSpace(parts[0]))
	hi, ok2 := Int(strings.TrimSpace(parts[1]))
	if !ok1 || !ok2 || lo < 1 || hi < lo {
		return 0, 0, false
	}
	return lo, hi, true
}
