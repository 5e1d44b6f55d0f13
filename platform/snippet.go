package platform

import (
	"regexp"
	"strings"
	"unicode"
)

// SnippetLength is the maximum number of runes of source text in a snippet.
const SnippetLength = 160

var snippetExprRegex = regexp.MustCompile(`^\s*snippet\(\s*"((?:[^"\\]|\\.)*)"\s*,\s*([\w.]+)\s*\)\s*$`)

// ParseSnippet splits a snippet("words", field) expression into its words
// and field name.
func ParseSnippet(expr string) (words, field string, ok bool) {
	m := snippetExprRegex.FindStringSubmatch(expr)
	if m == nil {
		return "", "", false
	}
	return strings.ReplaceAll(m[1], `\"`, `"`), m[2], true
}

// Snippet renders text the way the platform returns snippets: words matching
// the query are wrapped in <b> tags, text longer than SnippetLength is cut
// and ends in "...", anything else ends in a period.
func Snippet(text, words string) string {
	terms := make(map[string]bool)
	for _, w := range splitWords(words) {
		terms[strings.ToLower(w)] = true
	}

	runes := []rune(text)
	start, truncated := 0, false
	if len(runes) > SnippetLength {
		truncated = true
		if first := firstMatch(runes, terms); first > 0 {
			start = first
			if start+SnippetLength > len(runes) {
				start = len(runes) - SnippetLength
			}
		}
		runes = runes[start : start+SnippetLength]
	}

	var b strings.Builder
	i := 0
	for i < len(runes) {
		if !isWordRune(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && isWordRune(runes[j]) {
			j++
		}
		word := string(runes[i:j])
		if terms[strings.ToLower(word)] {
			b.WriteString("<b>")
			b.WriteString(word)
			b.WriteString("</b>")
		} else {
			b.WriteString(word)
		}
		i = j
	}

	if truncated {
		b.WriteString("...")
	} else {
		b.WriteString(".")
	}
	return b.String()
}

func firstMatch(runes []rune, terms map[string]bool) int {
	i := 0
	for i < len(runes) {
		if !isWordRune(runes[i]) {
			i++
			continue
		}
		j := i
		for j < len(runes) && isWordRune(runes[j]) {
			j++
		}
		if terms[strings.ToLower(string(runes[i:j]))] {
			return i
		}
		i = j
	}
	return -1
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return !isWordRune(r) })
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// Evaluate computes returned expressions for a hit. Supported are
// snippet("words", field) over a text field and bare field names; anything
// else is skipped.
func Evaluate(d Document, exprs []FieldExpression) []Field {
	var out []Field
	for _, e := range exprs {
		if words, name, ok := ParseSnippet(e.Expression); ok {
			f, found := d.Field(name)
			if !found || !f.Type.IsText() {
				continue
			}
			text, _ := f.Value.(string)
			out = append(out, Field{Name: e.Name, Type: FieldHTML, Value: Snippet(text, words)})
			continue
		}
		if f, found := d.Field(e.Expression); found {
			out = append(out, Field{Name: e.Name, Type: f.Type, Value: f.Value})
		}
	}
	return out
}
