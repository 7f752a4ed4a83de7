// Package numbering parses the numbering part into lookup tables and
// formats list marker text for layout and export.
package numbering

import (
	"strconv"
	"strings"

	"github.com/docmill/docmill/xmltree"
)

// Level is one list level definition.
type Level struct {
	Ilvl       int
	Start      int
	NumFmt     string // decimal, lowerLetter, upperLetter, lowerRoman, upperRoman, bullet, none
	LvlText    string // e.g. "%1." or a bullet glyph
	Suffix     string // tab, space, nothing
	IndentLeft int    // twips
	Hanging    int    // twips
}

type abstractNum struct {
	levels map[int]*Level
}

type num struct {
	abstractID string
	overrides  map[int]*Level
}

// Tables holds the parsed numbering definitions of one document.
type Tables struct {
	abstract map[string]*abstractNum
	nums     map[string]*num
}

// Empty returns tables with no definitions.
func Empty() *Tables {
	return &Tables{abstract: map[string]*abstractNum{}, nums: map[string]*num{}}
}

// Parse builds tables from a w:numbering root element. A nil root
// yields empty tables.
func Parse(root *xmltree.Node) *Tables {
	t := Empty()
	if root == nil {
		return t
	}
	for _, an := range root.Children("w:abstractNum") {
		id, _ := an.Attr("w:abstractNumId")
		a := &abstractNum{levels: map[int]*Level{}}
		for _, lvl := range an.Children("w:lvl") {
			l := parseLevel(lvl)
			a.levels[l.Ilvl] = l
		}
		t.abstract[id] = a
	}
	for _, n := range root.Children("w:num") {
		id, _ := n.Attr("w:numId")
		entry := &num{overrides: map[int]*Level{}}
		if ref := n.Child("w:abstractNumId"); ref != nil {
			entry.abstractID, _ = ref.Attr("w:val")
		}
		for _, ov := range n.Children("w:lvlOverride") {
			if lvl := ov.Child("w:lvl"); lvl != nil {
				l := parseLevel(lvl)
				entry.overrides[l.Ilvl] = l
			}
		}
		t.nums[id] = entry
	}
	return t
}

func parseLevel(el *xmltree.Node) *Level {
	l := &Level{Start: 1, NumFmt: "decimal", Suffix: "tab"}
	if v, ok := el.Attr("w:ilvl"); ok {
		l.Ilvl, _ = strconv.Atoi(v)
	}
	if c := el.Child("w:start"); c != nil {
		if v, ok := c.Attr("w:val"); ok {
			if n, err := strconv.Atoi(v); err == nil {
				l.Start = n
			}
		}
	}
	if c := el.Child("w:numFmt"); c != nil {
		l.NumFmt = c.AttrDefault("w:val", l.NumFmt)
	}
	if c := el.Child("w:lvlText"); c != nil {
		l.LvlText = c.AttrDefault("w:val", "")
	}
	if c := el.Child("w:suff"); c != nil {
		l.Suffix = c.AttrDefault("w:val", l.Suffix)
	}
	if pPr := el.Child("w:pPr"); pPr != nil {
		if ind := pPr.Child("w:ind"); ind != nil {
			l.IndentLeft, _ = strconv.Atoi(ind.AttrDefault("w:left", "0"))
			l.Hanging, _ = strconv.Atoi(ind.AttrDefault("w:hanging", "0"))
		}
	}
	return l
}

// HasNum reports whether numID is defined.
func (t *Tables) HasNum(numID string) bool {
	_, ok := t.nums[numID]
	return ok
}

// Level resolves the effective level definition for numID/ilvl,
// applying lvlOverride entries over the abstract definition. Returns
// nil when undefined.
func (t *Tables) Level(numID string, ilvl int) *Level {
	n, ok := t.nums[numID]
	if !ok {
		return nil
	}
	if ov, ok := n.overrides[ilvl]; ok {
		return ov
	}
	if a, ok := t.abstract[n.abstractID]; ok {
		return a.levels[ilvl]
	}
	return nil
}

// MarkerText formats the marker for numID/ilvl given the current
// counter values per level (counters[i] is the 1-based count at level
// i). %N placeholders in lvlText substitute the formatted counter of
// level N-1.
func (t *Tables) MarkerText(numID string, ilvl int, counters []int) string {
	lvl := t.Level(numID, ilvl)
	if lvl == nil {
		return ""
	}
	if lvl.NumFmt == "bullet" {
		if lvl.LvlText != "" {
			return lvl.LvlText
		}
		return "•"
	}
	text := lvl.LvlText
	if text == "" {
		text = "%" + strconv.Itoa(ilvl+1) + "."
	}
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		if text[i] == '%' && i+1 < len(text) && text[i+1] >= '1' && text[i+1] <= '9' {
			ref := int(text[i+1]-'0') - 1
			count := 1
			if ref < len(counters) && counters[ref] > 0 {
				count = counters[ref]
			}
			refLvl := t.Level(numID, ref)
			fmtName := "decimal"
			if refLvl != nil {
				fmtName = refLvl.NumFmt
			}
			b.WriteString(FormatNumber(fmtName, count))
			i++
			continue
		}
		b.WriteByte(text[i])
	}
	return b.String()
}

// FormatNumber renders n in the given OOXML number format.
func FormatNumber(numFmt string, n int) string {
	if n < 1 {
		n = 1
	}
	switch numFmt {
	case "lowerLetter":
		return letters(n, 'a')
	case "upperLetter":
		return letters(n, 'A')
	case "lowerRoman":
		return strings.ToLower(roman(n))
	case "upperRoman":
		return roman(n)
	case "none":
		return ""
	default:
		return strconv.Itoa(n)
	}
}

// letters formats 1→a, 26→z, 27→aa (Word repeats the letter rather than
// using positional base-26).
func letters(n int, base rune) string {
	reps := (n-1)/26 + 1
	ch := rune((n-1)%26) + base
	return strings.Repeat(string(ch), reps)
}

var romanValues = []struct {
	v int
	s string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

func roman(n int) string {
	var b strings.Builder
	for _, rv := range romanValues {
		for n >= rv.v {
			b.WriteString(rv.s)
			n -= rv.v
		}
	}
	return b.String()
}

// Counters tracks per-numId counter state while walking paragraphs in
// document order: entering a deeper level pushes, returning to a
// shallower level resets deeper counts.
type Counters struct {
	byNum map[string][]int
}

// NewCounters returns empty counter state.
func NewCounters() *Counters {
	return &Counters{byNum: map[string][]int{}}
}

// Advance bumps the counter at ilvl for numID and returns the counter
// snapshot to format the marker with.
func (c *Counters) Advance(t *Tables, numID string, ilvl int) []int {
	counts := c.byNum[numID]
	for len(counts) <= ilvl {
		counts = append(counts, 0)
	}
	if counts[ilvl] == 0 {
		start := 1
		if lvl := t.Level(numID, ilvl); lvl != nil {
			start = lvl.Start
		}
		counts[ilvl] = start
	} else {
		counts[ilvl]++
	}
	// Reset deeper levels.
	counts = counts[:ilvl+1]
	c.byNum[numID] = counts
	out := make([]int, len(counts))
	copy(out, counts)
	return out
}
