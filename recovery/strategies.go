package recovery

import (
	"fmt"

	"github.com/docmill/docmill/observability"
)

// StrictStrategy aborts the pass on the first translator failure.
type StrictStrategy struct{}

func NewStrictStrategy() *StrictStrategy {
	return &StrictStrategy{}
}

func (s *StrictStrategy) OnError(err error, location Location) Action {
	return ActionFail
}

// LenientStrategy skips failed nodes, logging each and accumulating the
// errors for inspection after the pass.
type LenientStrategy struct {
	Logger observability.Logger
	Errors []error
}

func NewLenientStrategy(logger observability.Logger) *LenientStrategy {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &LenientStrategy{Logger: logger}
}

func (s *LenientStrategy) OnError(err error, location Location) Action {
	wrapped := fmt.Errorf("%s %s/%s: %w", location.Component, location.Part, location.XMLName, err)
	s.Errors = append(s.Errors, wrapped)
	s.Logger.Warn("skipping node after translator failure",
		observability.String("part", location.Part),
		observability.String("element", location.XMLName),
		observability.Error("err", err))
	return ActionSkip
}
