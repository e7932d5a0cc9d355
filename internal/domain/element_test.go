package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestElementJSONDispatchesOnType(t *testing.T) {
	raw := `{"id":"e1","type":"crossword","x":10,"y":20,"width":300,"height":300,
		"content":{"rows":5,"cols":5,"clues":[{"id":"c1","number":1,"direction":"across","row":0,"col":0,"text":"warm","answer":"hot"}]},
		"styles":{"color":"#333"}}`
	var el Element
	if err := json.Unmarshal([]byte(raw), &el); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cw, ok := el.Content.(CrosswordContent)
	if !ok {
		t.Fatalf("expected crossword content, got %T", el.Content)
	}
	if len(cw.Clues) != 1 || el.Geometry.X != 10 || el.Styles["color"] != "#333" {
		t.Fatalf("unexpected element %+v", el)
	}

	out, err := json.Marshal(el)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Element
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if back.Type != ElementCrossword || back.Geometry != el.Geometry {
		t.Fatalf("unexpected re-decoded element %+v", back)
	}
}

func TestElementJSONRejectsMismatchedContent(t *testing.T) {
	cases := map[string]error{
		`{"id":"e","type":"image","content":{"question":"?"}}`: ErrContentMismatch,
		`{"id":"e","type":"text"}`:                             ErrContentMismatch,
		`{"id":"e","type":"text","content":null}`:              ErrContentMismatch,
		`{"id":"e","type":"slide","content":{}}`:               ErrUnknownElementType,
	}
	for raw, want := range cases {
		var el Element
		if err := json.Unmarshal([]byte(raw), &el); !errors.Is(err, want) {
			t.Fatalf("%s: expected %v, got %v", raw, want, err)
		}
	}
}

func TestMarshalRejectsContentOfAnotherType(t *testing.T) {
	el := Element{ID: "e", Type: ElementImage, Content: TextContent{Text: "hi"}}
	if _, err := json.Marshal(el); !errors.Is(err, ErrContentMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestDefaultContentMatchesEveryType(t *testing.T) {
	for _, typ := range ElementTypes {
		content, err := DefaultContent(typ)
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if content.ElementType() != typ {
			t.Fatalf("%s: default content is %s", typ, content.ElementType())
		}
		if g := DefaultGeometry(typ, 0, 0); g.Width < 1 || g.Height < 1 {
			t.Fatalf("%s: degenerate default geometry %+v", typ, g)
		}
	}
	if _, err := DefaultContent("slide"); !errors.Is(err, ErrUnknownElementType) {
		t.Fatalf("expected unknown type, got %v", err)
	}
}

func TestStylesMergeCopies(t *testing.T) {
	base := Styles{"color": "red", "fontSize": 12}
	merged := base.Merge(Styles{"fontSize": 16})
	if merged["color"] != "red" || merged["fontSize"] != 16 {
		t.Fatalf("unexpected merge %+v", merged)
	}
	if base["fontSize"] != 12 {
		t.Fatalf("merge modified the receiver")
	}
}

func TestCrosswordSolution(t *testing.T) {
	c := CrosswordContent{Rows: 3, Cols: 3, Clues: []CrosswordClue{
		{ID: "a", Number: 1, Direction: Across, Row: 0, Col: 0, Answer: "cat"},
		{ID: "d", Number: 2, Direction: Down, Row: 0, Col: 2, Answer: "tops"},
	}}
	sol := c.Solution()
	if got := sol[Position{0, 2}].Letter; got != "T" {
		t.Fatalf("expected shared T, got %q", got)
	}
	if _, ok := sol[Position{3, 2}]; ok {
		t.Fatalf("cells outside the grid must be dropped")
	}
	if len(sol) != 5 {
		t.Fatalf("expected 5 letter cells, got %d", len(sol))
	}
}
