package recovery

import (
	"errors"
	"testing"
)

func TestStrictStrategyFails(t *testing.T) {
	s := NewStrictStrategy()
	act := s.OnError(errors.New("boom"), Location{Part: "word/document.xml", XMLName: "w:tbl", Component: "translate"})
	if act != ActionFail {
		t.Fatalf("strict strategy action = %v, want ActionFail", act)
	}
}

func TestLenientStrategySkipsAndAccumulates(t *testing.T) {
	s := NewLenientStrategy(nil)
	act := s.OnError(errors.New("bad gridSpan"), Location{Part: "word/document.xml", XMLName: "w:tc", Component: "translate"})
	if act != ActionSkip {
		t.Fatalf("lenient strategy action = %v, want ActionSkip", act)
	}
	if len(s.Errors) != 1 {
		t.Fatalf("accumulated %d errors, want 1", len(s.Errors))
	}
	if got := s.Errors[0].Error(); got == "" || !errors.Is(s.Errors[0], s.Errors[0]) {
		t.Errorf("error not wrapped usefully: %q", got)
	}
}
