// Package recovery defines the caller-configured strictness policy the
// import/export boundary consults when a translator fails. The dispatch
// layer never swallows errors; it reports them here and the strategy
// decides whether the pass aborts or the offending node is skipped.
package recovery

// Location identifies where in the package an error occurred.
type Location struct {
	Part      string // package part, e.g. "word/document.xml"
	XMLName   string // element being translated, e.g. "w:tbl"
	NodeType  string // document node type on the export direction
	Component string // subsystem, e.g. "translate", "layout"
}

type Action int

const (
	ActionFail Action = iota
	ActionSkip
	ActionWarn
)

// Strategy decides how an import/export pass reacts to a node-level
// failure.
type Strategy interface {
	OnError(err error, location Location) Action
}
