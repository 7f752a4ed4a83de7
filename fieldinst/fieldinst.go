// Package fieldinst parses Word field instruction text ("TOC \o "1-3"
// \h", "HYPERLINK ...", "= SUM(ABOVE)") into typed instructions. The
// grammar is small enough to express declaratively; formulas get their
// own expression parser.
package fieldinst

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Instruction is a parsed non-formula field instruction.
type Instruction struct {
	Name      string
	Arguments []string          // positional arguments, quotes stripped
	Switches  map[string]string // switch letter -> value ("" when bare)
}

// HasSwitch reports whether the switch (e.g. "h") is present.
func (ins *Instruction) HasSwitch(flag string) bool {
	_, ok := ins.Switches[flag]
	return ok
}

// Switch returns the switch's value, "" when bare or absent.
func (ins *Instruction) Switch(flag string) string {
	return ins.Switches[flag]
}

var fieldLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
	{Name: "Switch", Pattern: `\\[A-Za-z*@#]`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_.:\-]*`},
	{Name: "Number", Pattern: `[0-9]+(?:\.[0-9]+)?`},
	{Name: "whitespace", Pattern: `\s+`},
})

type fieldAST struct {
	Name  string      `parser:"@Ident"`
	Items []fieldItem `parser:"@@*"`
}

type fieldItem struct {
	Switch *switchItem `parser:"  @@"`
	Value  *string     `parser:"| @(String|Ident|Number)"`
}

type switchItem struct {
	Flag  string  `parser:"@Switch"`
	Value *string `parser:"@(String|Ident|Number)?"`
}

var fieldParser = participle.MustBuild[fieldAST](
	participle.Lexer(fieldLexer),
)

// Parse parses instruction text. Formula instructions (leading '=') are
// rejected here; use ParseFormula.
func Parse(text string) (*Instruction, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty field instruction")
	}
	if strings.HasPrefix(text, "=") {
		return nil, fmt.Errorf("formula instruction; use ParseFormula")
	}
	ast, err := fieldParser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("parsing field instruction %q: %w", text, err)
	}
	ins := &Instruction{Name: strings.ToUpper(ast.Name), Switches: map[string]string{}}
	for _, item := range ast.Items {
		if item.Switch != nil {
			val := ""
			if item.Switch.Value != nil {
				val = unquote(*item.Switch.Value)
			}
			ins.Switches[strings.TrimPrefix(item.Switch.Flag, `\`)] = val
			continue
		}
		if item.Value != nil {
			ins.Arguments = append(ins.Arguments, unquote(*item.Value))
		}
	}
	return ins, nil
}

// IsFormula reports whether instruction text is a '='-prefixed formula.
func IsFormula(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "=")
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
		s = strings.ReplaceAll(s, `\"`, `"`)
	}
	return s
}

// String re-renders the instruction as field text, quoting any argument
// the lexer would not read back as a single token.
func (ins *Instruction) String() string {
	var b strings.Builder
	b.WriteString(ins.Name)
	for _, arg := range ins.Arguments {
		b.WriteByte(' ')
		b.WriteString(maybeQuote(arg))
	}
	// Stable switch ordering for deterministic output.
	for _, flag := range sortedKeys(ins.Switches) {
		b.WriteString(` \`)
		b.WriteString(flag)
		if v := ins.Switches[flag]; v != "" {
			b.WriteByte(' ')
			b.WriteString(maybeQuote(v))
		}
	}
	return b.String()
}

// bareToken matches values the lexer reads as one Ident or Number.
// Everything else ("1-3", "a b", "") must round-trip quoted.
var bareToken = regexp.MustCompile(`^(?:[A-Za-z_][A-Za-z0-9_.:\-]*|[0-9]+(?:\.[0-9]+)?)$`)

func maybeQuote(s string) string {
	if bareToken.MatchString(s) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
