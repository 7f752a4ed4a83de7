package fieldinst

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Formula is a parsed '='-prefixed table formula. Cell and positional
// references (A1, ABOVE, LEFT) are resolved by the caller at evaluation
// time.
type Formula struct {
	root *expr
	// Text is the original instruction text after '='.
	Text string
}

var formulaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `[0-9]+(?:\.[0-9]+)?`},
	{Name: "Ref", Pattern: `[A-Za-z][A-Za-z0-9]*`},
	{Name: "Punct", Pattern: `[()+\-*/,]`},
	{Name: "whitespace", Pattern: `\s+`},
})

type expr struct {
	Left  *term     `parser:"@@"`
	Rest  []*opTerm `parser:"@@*"`
}

type opTerm struct {
	Op   string `parser:"@('+' | '-')"`
	Term *term  `parser:"@@"`
}

type term struct {
	Left *factor     `parser:"@@"`
	Rest []*opFactor `parser:"@@*"`
}

type opFactor struct {
	Op     string  `parser:"@('*' | '/')"`
	Factor *factor `parser:"@@"`
}

type factor struct {
	Number *float64 `parser:"  @Number"`
	Call   *call    `parser:"| @@"`
	Ref    *string  `parser:"| @Ref"`
	Paren  *expr    `parser:"| '(' @@ ')'"`
}

type call struct {
	Func string   `parser:"@Ref '('"`
	Args []string `parser:"( @Ref ( ',' @Ref )* )? ')'"`
}

var formulaParser = participle.MustBuild[expr](
	participle.Lexer(formulaLexer),
	participle.UseLookahead(2),
)

// ParseFormula parses a '='-prefixed formula instruction.
func ParseFormula(text string) (*Formula, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "=") {
		return nil, fmt.Errorf("formula must start with '='")
	}
	body := strings.TrimSpace(trimmed[1:])
	root, err := formulaParser.ParseString("", body)
	if err != nil {
		return nil, fmt.Errorf("parsing formula %q: %w", body, err)
	}
	return &Formula{root: root, Text: body}, nil
}

// Resolver supplies the numeric values behind a reference: a cell name
// yields one value, ABOVE/LEFT yield the values of the cells in that
// direction.
type Resolver func(ref string) []float64

// Eval evaluates the formula. Unknown references resolve to no values;
// aggregate functions over no values yield 0.
func (f *Formula) Eval(resolve Resolver) (float64, error) {
	if resolve == nil {
		resolve = func(string) []float64 { return nil }
	}
	return f.root.eval(resolve)
}

func (e *expr) eval(r Resolver) (float64, error) {
	v, err := e.Left.eval(r)
	if err != nil {
		return 0, err
	}
	for _, ot := range e.Rest {
		rhs, err := ot.Term.eval(r)
		if err != nil {
			return 0, err
		}
		if ot.Op == "+" {
			v += rhs
		} else {
			v -= rhs
		}
	}
	return v, nil
}

func (t *term) eval(r Resolver) (float64, error) {
	v, err := t.Left.eval(r)
	if err != nil {
		return 0, err
	}
	for _, of := range t.Rest {
		rhs, err := of.Factor.eval(r)
		if err != nil {
			return 0, err
		}
		if of.Op == "*" {
			v *= rhs
		} else {
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero in formula")
			}
			v /= rhs
		}
	}
	return v, nil
}

func (f *factor) eval(r Resolver) (float64, error) {
	switch {
	case f.Number != nil:
		return *f.Number, nil
	case f.Call != nil:
		return f.Call.eval(r)
	case f.Ref != nil:
		vals := r(*f.Ref)
		if len(vals) == 0 {
			return 0, nil
		}
		return vals[0], nil
	case f.Paren != nil:
		return f.Paren.eval(r)
	}
	return 0, fmt.Errorf("empty factor")
}

func (c *call) eval(r Resolver) (float64, error) {
	var vals []float64
	for _, arg := range c.Args {
		vals = append(vals, r(arg)...)
	}
	switch strings.ToUpper(c.Func) {
	case "SUM":
		return sum(vals), nil
	case "AVERAGE":
		if len(vals) == 0 {
			return 0, nil
		}
		return sum(vals) / float64(len(vals)), nil
	case "COUNT":
		return float64(len(vals)), nil
	case "MIN":
		return minMax(vals, true), nil
	case "MAX":
		return minMax(vals, false), nil
	case "PRODUCT":
		p := 1.0
		for _, v := range vals {
			p *= v
		}
		return p, nil
	}
	return 0, fmt.Errorf("unknown function %q", c.Func)
}

func sum(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

func minMax(vals []float64, min bool) float64 {
	if len(vals) == 0 {
		return 0
	}
	out := vals[0]
	for _, v := range vals[1:] {
		if (min && v < out) || (!min && v > out) {
			out = v
		}
	}
	return out
}

// FormatResult renders an evaluation result the way Word does: integers
// without a decimal point.
func FormatResult(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
