package docsearch

import "testing"

func TestQuoteHelpers(t *testing.T) {
	tests := []struct {
		in       string
		wrapped  bool
		stripped string
	}{
		{`"red box"`, true, "red box"},
		{`'red'`, true, "red"},
		{`"red'`, false, `"red'`},
		{`red`, false, "red"},
		{``, false, ""},
	}
	for _, tt := range tests {
		if got := IsWrappedInQuotes(tt.in); got != tt.wrapped {
			t.Errorf("IsWrappedInQuotes(%q) = %v", tt.in, got)
		}
		if got := StripSurroundingQuotes(tt.in); got != tt.stripped {
			t.Errorf("StripSurroundingQuotes(%q) = %q, want %q", tt.in, got, tt.stripped)
		}
	}
}

func TestStripSpecialSearchCharacters(t *testing.T) {
	tests := []struct{ in, want string }{
		{"hello, world!", "hello world"},
		{"bob@example.com", "bob@example.com"},
		{"a_b-c", "a_b-c"},
		{"(x) OR [y]", "x OR y"},
		{"café", "café"},
	}
	for _, tt := range tests {
		if got := StripSpecialSearchCharacters(tt.in); got != tt.want {
			t.Errorf("StripSpecialSearchCharacters(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripMultiValueOperators(t *testing.T) {
	tests := []struct{ in, want string }{
		{"AND cats", "cats"},
		{"cats OR", "cats"},
		{"OR cats AND", "cats"},
		{"cats and dogs", "cats and dogs"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripMultiValueOperators(tt.in); got != tt.want {
			t.Errorf("StripMultiValueOperators(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilterSearch(t *testing.T) {
	base := newQuery(t, &fakeClient{})
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"empty", "", ""},
		{"quoted is exact", `"red box"`, `(name:"red box")`},
		{"contains", "hello, world!", "(name:(hello world))"},
		{"email is exact", "bob@example.com hello", `((name:"bob@example.com") AND (name:(hello)))`},
		{"dangling operator", "AND cats", "(name:(cats))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilterSearch(base, tt.value, "name").String(); got != tt.want {
				t.Errorf("FilterSearch(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
