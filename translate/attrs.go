package translate

import (
	"strconv"

	"github.com/docmill/docmill/model"
	"github.com/docmill/docmill/xmltree"
)

// AttrHandler maps one XML attribute to one document attribute key and
// back. Both directions are pure: Encode returns ok=false when the
// source attribute is absent, Decode returns ok=false when the
// in-memory value is the type's default so no redundant XML is emitted.
type AttrHandler struct {
	XMLAttr string
	Key     string
	Encode  func(el *xmltree.Node) (any, bool)
	Decode  func(attrs model.Attrs) (string, bool)
}

// EncodeAttrs runs every handler against el and collects present values.
func EncodeAttrs(handlers []AttrHandler, el *xmltree.Node) model.Attrs {
	var out model.Attrs
	for _, h := range handlers {
		if h.Encode == nil {
			continue
		}
		if v, ok := h.Encode(el); ok {
			if out == nil {
				out = model.Attrs{}
			}
			out[h.Key] = v
		}
	}
	return out
}

// DecodeAttrs runs every handler against attrs and sets the produced
// XML attributes on el.
func DecodeAttrs(handlers []AttrHandler, attrs model.Attrs, el *xmltree.Node) {
	for _, h := range handlers {
		if h.Decode == nil {
			continue
		}
		if v, ok := h.Decode(attrs); ok {
			el.SetAttr(h.XMLAttr, v)
		}
	}
}

// OnOff applies the OOXML boolean convention to an attribute value:
// presence without an explicit value, or a value in {1, true, on},
// means true; {0, false, off} means false; any other value falls back
// to presence-implies-true.
func OnOff(value string, present bool) bool {
	if !present {
		return false
	}
	switch value {
	case "0", "false", "off":
		return false
	}
	return true
}

// OnOffElement reads the boolean convention from an element's w:val:
// the element being present at all implies true unless w:val negates.
func OnOffElement(el *xmltree.Node) bool {
	if el == nil {
		return false
	}
	v, ok := el.Attr("w:val")
	if !ok {
		return true
	}
	return OnOff(v, true)
}

// Int parses a numeric attribute value. Malformed strings report
// ok=false rather than erroring; callers must guard.
func Int(value string) (int, bool) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return n, true
}

// StringAttr builds a handler copying an XML attribute to a string
// document attribute verbatim, omitted when empty.
func StringAttr(xmlAttr, key string) AttrHandler {
	return AttrHandler{
		XMLAttr: xmlAttr,
		Key:     key,
		Encode: func(el *xmltree.Node) (any, bool) {
			v, ok := el.Attr(xmlAttr)
			return v, ok
		},
		Decode: func(attrs model.Attrs) (string, bool) {
			s, _ := attrs[key].(string)
			return s, s != ""
		},
	}
}

// IntAttr builds a handler for integer measurement attributes.
func IntAttr(xmlAttr, key string) AttrHandler {
	return AttrHandler{
		XMLAttr: xmlAttr,
		Key:     key,
		Encode: func(el *xmltree.Node) (any, bool) {
			v, ok := el.Attr(xmlAttr)
			if !ok {
				return nil, false
			}
			n, ok := Int(v)
			if !ok {
				return nil, false
			}
			return n, true
		},
		Decode: func(attrs model.Attrs) (string, bool) {
			switch n := attrs[key].(type) {
			case int:
				return strconv.Itoa(n), true
			case float64:
				return strconv.Itoa(int(n)), true
			}
			return "", false
		},
	}
}

// BoolAttr builds a handler for boolean-flag attributes following the
// OnOff convention; false values are omitted on decode (absence is the
// default).
func BoolAttr(xmlAttr, key string) AttrHandler {
	return AttrHandler{
		XMLAttr: xmlAttr,
		Key:     key,
		Encode: func(el *xmltree.Node) (any, bool) {
			v, ok := el.Attr(xmlAttr)
			if !ok {
				return nil, false
			}
			return OnOff(v, true), true
		},
		Decode: func(attrs model.Attrs) (string, bool) {
			b, _ := attrs[key].(bool)
			if !b {
				return "", false
			}
			return "1", true
		},
	}
}
