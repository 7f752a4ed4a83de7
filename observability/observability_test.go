package observability

import (
	"context"
	"testing"
)

func TestNopTracer(t *testing.T) {
	tracer := NopTracer()
	ctx := context.Background()
	ctx2, span := tracer.StartSpan(ctx, "import")
	if ctx2 != ctx {
		t.Fatalf("nop tracer should return same context")
	}
	span.SetTag("part", "word/document.xml")
	span.SetError(nil)
	span.Finish()
}

func TestFieldConstructors(t *testing.T) {
	cases := []struct {
		f    Field
		key  string
		want interface{}
	}{
		{String("part", "document.xml"), "part", "document.xml"},
		{Int("nodes", 42), "nodes", 42},
		{Float64("y", 128.5), "y", 128.5},
		{Bool("modified", true), "modified", true},
	}
	for _, c := range cases {
		if c.f.Key() != c.key {
			t.Errorf("key = %q, want %q", c.f.Key(), c.key)
		}
		if c.f.Value() != c.want {
			t.Errorf("value = %v, want %v", c.f.Value(), c.want)
		}
	}
}
