package validator

import (
	"testing"

	"github.com/docmill/docmill/model"
	"github.com/docmill/docmill/numbering"
	"github.com/docmill/docmill/xmltree"
)

func listDoc() *model.Node {
	return model.NewNode(model.DocType, nil,
		model.NewNode(model.ParagraphType, model.Attrs{"styleId": "ListParagraph", "numId": "99", "ilvl": 0},
			model.NewText("dangling")),
		model.NewNode(model.ParagraphType, nil, model.NewText("plain")),
	)
}

func TestListNumberingClearsDanglingRefs(t *testing.T) {
	s := New(WithStateValidators(ListNumbering{Tables: numbering.Empty()}))
	report, doc := s.ValidateDocument(listDoc(), false)

	if !report.Modified {
		t.Fatal("report not marked modified")
	}
	if len(report.Results) != 1 || report.Results[0].Key != "listNumbering" {
		t.Fatalf("results = %+v", report.Results)
	}
	first := doc.Content[0]
	if first.StringAttr("numId") != "" {
		t.Error("numId not cleared")
	}
	if first.StringAttr("styleId") != "ListParagraph" {
		t.Error("unrelated attribute lost")
	}
}

func TestDryRunLeavesDocumentUntouched(t *testing.T) {
	src := listDoc()
	s := New(WithStateValidators(ListNumbering{Tables: numbering.Empty()}))
	report, doc := s.ValidateDocument(src, true)

	if !report.Modified {
		t.Fatal("dry run should still report modification")
	}
	if doc != src {
		t.Error("dry run returned a new tree")
	}
	if src.Content[0].StringAttr("numId") != "99" {
		t.Error("dry run mutated the source tree")
	}
}

func TestCommentPairingDropsOrphans(t *testing.T) {
	doc := model.NewNode(model.DocType, nil,
		model.NewNode(model.ParagraphType, nil,
			model.NewNode(model.CommentRangeStart, model.Attrs{"id": "1"}),
			model.NewText("kept"),
			model.NewNode(model.CommentRangeEnd, model.Attrs{"id": "1"}),
			model.NewNode(model.CommentRangeStart, model.Attrs{"id": "2"}),
		),
	)
	s := New(WithStateValidators(CommentPairing{}))
	report, out := s.ValidateDocument(doc, false)

	if !report.Modified {
		t.Fatal("orphan anchor not removed")
	}
	para := out.Content[0]
	if len(para.Content) != 3 {
		t.Fatalf("paragraph content = %d nodes", len(para.Content))
	}
	for _, n := range para.Content {
		if n.Type == model.CommentRangeStart && n.StringAttr("id") == "2" {
			t.Error("orphan start anchor survived")
		}
	}
}

// One walk serves every validator: a second validator requiring the
// same node type must see the same analysis without re-walking.
func TestSingleAnalysisSharedAcrossValidators(t *testing.T) {
	walks := 0
	counting := countingValidator{walks: &walks}
	s := New(WithStateValidators(counting, counting))
	s.ValidateDocument(listDoc(), true)
	if walks != 2 {
		t.Fatalf("validators ran %d times, want 2", walks)
	}
}

type countingValidator struct{ walks *int }

func (countingValidator) Name() string       { return "counting" }
func (countingValidator) Required() Required { return Required{Nodes: []string{model.ParagraphType}} }

func (c countingValidator) Validate(a *Analysis, tx *model.Transaction) []string {
	*c.walks++
	if len(a.Nodes[model.ParagraphType]) != 2 {
		return []string{"analysis missing paragraphs"}
	}
	return nil
}

func TestRelationshipTargets(t *testing.T) {
	doc := xmltree.NewElement("w:document")
	body := xmltree.NewElement("w:body")
	link := xmltree.NewElement("w:hyperlink")
	link.SetAttr("r:id", "rId42")
	body.AppendChild(link)
	doc.AppendChild(body)

	rels := xmltree.NewElement("Relationships")
	entry := xmltree.NewElement("Relationship")
	entry.SetAttr("Id", "rId1")
	rels.AppendChild(entry)

	s := New(WithXMLValidators(RelationshipTargets{}))
	report := s.ValidateExport(map[string]*xmltree.Node{
		"word/document.xml":            doc,
		"word/_rels/document.xml.rels": rels,
	})
	if len(report.Results) != 1 || len(report.Results[0].Results) != 1 {
		t.Fatalf("report = %+v", report)
	}

	entry.SetAttr("Id", "rId42")
	report = s.ValidateExport(map[string]*xmltree.Node{
		"word/document.xml":            doc,
		"word/_rels/document.xml.rels": rels,
	})
	if len(report.Results) != 0 {
		t.Fatalf("resolved reference still reported: %+v", report)
	}
}
