// Package validator runs advisory document checks. State validators
// inspect the live node tree and may auto-correct it through one shared
// transaction; xml validators inspect the serialized part trees during
// export. Validators report problems as strings and never return
// errors: validation is advisory or self-healing, not fatal.
package validator

import (
	"github.com/docmill/docmill/model"
	"github.com/docmill/docmill/observability"
	"github.com/docmill/docmill/xmltree"
)

// Required declares the node and mark types a validator needs
// pre-collected. The aggregate walks the tree once for the union of all
// validators' requirements.
type Required struct {
	Nodes []string
	Marks []string
}

// NodeHit is one collected node occurrence.
type NodeHit struct {
	Node *model.Node
	Pos  int
}

// MarkHit is one collected mark occurrence with the token range of the
// carrying node.
type MarkHit struct {
	Mark model.Mark
	Node *model.Node
	Pos  int
	From int
	To   int
}

// Analysis is the pre-collected lookup handed to every state validator.
type Analysis struct {
	Nodes map[string][]NodeHit
	Marks map[string][]MarkHit
}

// StateValidator checks and optionally corrects the live document. It
// returns human-readable findings and whether it modified the tree
// through the transaction.
type StateValidator interface {
	Name() string
	Required() Required
	Validate(a *Analysis, tx *model.Transaction) []string
}

// XMLValidator checks serialized export parts keyed by part name.
type XMLValidator interface {
	Name() string
	Validate(parts map[string]*xmltree.Node) []string
}

// Result is the findings of one validator.
type Result struct {
	Key     string
	Results []string
}

// Report aggregates one validation pass.
type Report struct {
	Modified bool
	Results  []Result
}

// Super aggregates validator sets, pre-collecting required nodes and
// marks in a single walk so individual validators never re-walk the
// tree.
type Super struct {
	state  []StateValidator
	xml    []XMLValidator
	logger observability.Logger
}

// Option configures a Super.
type Option func(*Super)

// WithStateValidators registers state validators.
func WithStateValidators(vs ...StateValidator) Option {
	return func(s *Super) { s.state = append(s.state, vs...) }
}

// WithXMLValidators registers xml validators.
func WithXMLValidators(vs ...XMLValidator) Option {
	return func(s *Super) { s.xml = append(s.xml, vs...) }
}

// WithLogger sets the logger.
func WithLogger(l observability.Logger) Option {
	return func(s *Super) { s.logger = l }
}

// New builds a Super over the given options.
func New(opts ...Option) *Super {
	s := &Super{logger: observability.NopLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// analyzeDocument walks the tree once collecting every occurrence of
// the required node and mark types.
func (s *Super) analyzeDocument(doc *model.Node) *Analysis {
	wantNodes := map[string]bool{}
	wantMarks := map[string]bool{}
	for _, v := range s.state {
		req := v.Required()
		for _, n := range req.Nodes {
			wantNodes[n] = true
		}
		for _, m := range req.Marks {
			wantMarks[m] = true
		}
	}
	a := &Analysis{
		Nodes: make(map[string][]NodeHit),
		Marks: make(map[string][]MarkHit),
	}
	if len(wantNodes) == 0 && len(wantMarks) == 0 {
		return a
	}
	model.Walk(doc, func(n *model.Node, pos int) bool {
		if wantNodes[n.Type] {
			a.Nodes[n.Type] = append(a.Nodes[n.Type], NodeHit{Node: n, Pos: pos})
		}
		for _, m := range n.Marks {
			if wantMarks[m.Type] {
				a.Marks[m.Type] = append(a.Marks[m.Type], MarkHit{
					Mark: m, Node: n, Pos: pos, From: pos, To: pos + n.Size(),
				})
			}
		}
		return true
	})
	return a
}

// ValidateDocument runs all state validators against one shared
// transaction over doc. The corrected tree is committed (returned)
// exactly once, and only when some validator modified it and dryRun is
// unset; otherwise the original doc comes back unchanged.
func (s *Super) ValidateDocument(doc *model.Node, dryRun bool) (Report, *model.Node) {
	a := s.analyzeDocument(doc)
	tx := model.NewTransaction(doc)
	var report Report
	for _, v := range s.state {
		results := v.Validate(a, tx)
		if len(results) > 0 {
			report.Results = append(report.Results, Result{Key: v.Name(), Results: results})
			s.logger.Debug("validator findings",
				observability.String("validator", v.Name()),
				observability.Int("count", len(results)))
		}
	}
	report.Modified = tx.Changed()
	if report.Modified && !dryRun {
		return report, tx.Doc()
	}
	return report, doc
}

// ValidateExport runs all xml validators over the export part trees.
// XML validators are self-contained, so no document walk happens here.
func (s *Super) ValidateExport(parts map[string]*xmltree.Node) Report {
	var report Report
	for _, v := range s.xml {
		results := v.Validate(parts)
		if len(results) > 0 {
			report.Results = append(report.Results, Result{Key: v.Name(), Results: results})
		}
	}
	return report
}
