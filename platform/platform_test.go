package platform

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSnippet(t *testing.T) {
	tests := []struct {
		text, words, want string
	}{
		{"Red Box", "box", "Red <b>Box</b>."},
		{"Red Box", "green", "Red Box."},
		{"one, two; three", "TWO three", "one, <b>two</b>; <b>three</b>."},
		{"", "x", "."},
	}
	for _, tt := range tests {
		if got := Snippet(tt.text, tt.words); got != tt.want {
			t.Errorf("Snippet(%q, %q) = %q, want %q", tt.text, tt.words, got, tt.want)
		}
	}
}

func TestSnippet_Truncates(t *testing.T) {
	long := strings.Repeat("word ", 60) + "needle " + strings.Repeat("tail ", 10)
	got := Snippet(long, "needle")
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis, got %q", got)
	}
	if !strings.Contains(got, "<b>needle</b>") {
		t.Errorf("expected the match inside the window, got %q", got)
	}
	if n := len([]rune(strings.TrimSuffix(got, "..."))) - len("<b></b>"); n != SnippetLength {
		t.Errorf("window length = %d", n)
	}
}

func TestParseSnippet(t *testing.T) {
	words, field, ok := ParseSnippet(`snippet("red \"box\"", title)`)
	if !ok || words != `red "box"` || field != "title" {
		t.Errorf("got %q %q %v", words, field, ok)
	}
	if _, _, ok := ParseSnippet("title"); ok {
		t.Error("bare field parsed as snippet")
	}
}

func TestEvaluate(t *testing.T) {
	d := Document{ID: "1", Fields: []Field{
		{Name: "title", Type: FieldText, Value: "Red Box"},
		{Name: "price", Type: FieldNumber, Value: float64(3)},
	}}
	got := Evaluate(d, []FieldExpression{
		{Name: "title", Expression: `snippet("box", title)`},
		{Name: "cost", Expression: "price"},
		{Name: "nope", Expression: `snippet("x", price)`},
		{Name: "gone", Expression: "missing"},
	})
	if len(got) != 2 {
		t.Fatalf("got %+v", got)
	}
	if got[0].Type != FieldHTML || got[0].Value != "Red <b>Box</b>." {
		t.Errorf("snippet = %+v", got[0])
	}
	if got[1].Name != "cost" || got[1].Value != float64(3) {
		t.Errorf("expression = %+v", got[1])
	}
}

func TestOffsetCursor(t *testing.T) {
	n, err := DecodeOffsetCursor(EncodeOffsetCursor(40))
	if err != nil || n != 40 {
		t.Errorf("round trip = %d, %v", n, err)
	}
	if n, err := DecodeOffsetCursor(""); err != nil || n != 0 {
		t.Errorf("empty token = %d, %v", n, err)
	}
	for _, bad := range []string{"!!", "eA", EncodeOffsetCursor(-1)} {
		if _, err := DecodeOffsetCursor(bad); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("DecodeOffsetCursor(%q) = %v", bad, err)
		}
	}
}

func TestNextCursor(t *testing.T) {
	if c := NextCursor(0, 20, 50); c == nil {
		t.Error("expected cursor")
	} else if n, _ := DecodeOffsetCursor(c.Token); n != 20 {
		t.Errorf("next offset = %d", n)
	}
	if c := NextCursor(40, 10, 50); c != nil {
		t.Errorf("cursor past end: %+v", c)
	}
	if c := NextCursor(0, 0, 50); c != nil {
		t.Errorf("cursor after empty page: %+v", c)
	}
}

func TestDefaultRank(t *testing.T) {
	if got := DefaultRank(rankEpoch.Add(90 * time.Second)); got != 90 {
		t.Errorf("DefaultRank = %d", got)
	}
}

func TestFieldTypeIsText(t *testing.T) {
	for _, ft := range []FieldType{FieldText, FieldHTML, FieldAtom} {
		if !ft.IsText() {
			t.Errorf("%s should be text", ft)
		}
	}
	for _, ft := range []FieldType{FieldNumber, FieldDate, FieldGeoPoint} {
		if ft.IsText() {
			t.Errorf("%s should not be text", ft)
		}
	}
}

func TestError(t *testing.T) {
	err := &Error{Op: OpGet, Err: ErrDocumentNotFound}
	if err.Error() != "get: platform: document not found" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Error("errors.Is failed")
	}
}
