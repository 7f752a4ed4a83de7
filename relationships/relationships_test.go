package relationships

import (
	"testing"

	"github.com/docmill/docmill/xmltree"
)

func existingPart(ids ...string) *xmltree.Node {
	part := xmltree.NewElement("Relationships")
	for _, id := range ids {
		rel := xmltree.NewElement("Relationship")
		rel.SetAttr("Id", id)
		rel.SetAttr("Type", relBase+"image")
		rel.SetAttr("Target", "media/"+id+".png")
		part.AppendChild(rel)
	}
	return part
}

func TestMonotonicAllocationAboveMaxSuffix(t *testing.T) {
	c := NewCache(existingPart("rId5", "rId12", "rId3"))
	got := []string{
		c.GetOrCreate("media/a.png", TypeImage),
		c.GetOrCreate("media/b.png", TypeImage),
		c.GetOrCreate("https://example.com", TypeHyperlink),
	}
	want := []string{"rId13", "rId14", "rId15"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("allocation %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRepeatedTargetReturnsSameIdWithoutIncrement(t *testing.T) {
	c := NewCache(nil)
	first := c.GetOrCreate("media/image1.png", TypeImage)
	if first != "rId1" {
		t.Fatalf("first id = %q", first)
	}
	if again := c.GetOrCreate("media/image1.png", TypeImage); again != first {
		t.Errorf("repeated GetOrCreate = %q, want %q", again, first)
	}
	// word/ prefix normalizes to the same target.
	if again := c.GetOrCreate("word/media/image1.png", TypeImage); again != first {
		t.Errorf("word/-prefixed GetOrCreate = %q, want %q", again, first)
	}
	if found := c.Find("word/media/image1.png"); found != first {
		t.Errorf("Find = %q, want %q", found, first)
	}
	if next := c.GetOrCreate("media/image2.png", TypeImage); next != "rId2" {
		t.Errorf("next id = %q, want rId2 (no wasted ids)", next)
	}
}

func TestFindScansExistingPart(t *testing.T) {
	c := NewCache(existingPart("rId7"))
	if id := c.Find("media/rId7.png"); id != "rId7" {
		t.Errorf("Find existing = %q, want rId7", id)
	}
	if id := c.Find("media/missing.png"); id != "" {
		t.Errorf("Find missing = %q, want empty", id)
	}
}

func TestHyperlinkGetsExternalTargetMode(t *testing.T) {
	c := NewCache(nil)
	id := c.GetOrCreate("https://example.com/page", TypeHyperlink)
	var rel *xmltree.Node
	for _, r := range c.Part().Children("Relationship") {
		if got, _ := r.Attr("Id"); got == id {
			rel = r
		}
	}
	if rel == nil {
		t.Fatal("relationship element not appended")
	}
	if mode, _ := rel.Attr("TargetMode"); mode != "External" {
		t.Errorf("TargetMode = %q, want External", mode)
	}
	if tgt, _ := rel.Attr("Target"); tgt != "https://example.com/page" {
		t.Errorf("external target mangled: %q", tgt)
	}
}

func TestUnknownTypeReturnsEmpty(t *testing.T) {
	c := NewCache(nil)
	if id := c.GetOrCreate("something", "teleport"); id != "" {
		t.Errorf("unknown type allocated %q", id)
	}
}
