// Package indexer holds the token functions used to expand text values before
// they are indexed, so that prefix, substring and first-letter searches become
// plain term matches on the platform.
package indexer

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Func is a configured indexer, ready to be attached to a text field.
type Func = func(string) []string

// Option bounds or folds the tokens produced by Startswith and Contains.
type Option func(*options)

type options struct {
	minSize int
	maxSize int
	fold    func(string) string
	joined  bool
}

func newOptions(opts []Option) options {
	o := options{maxSize: math.MaxInt, fold: func(s string) string { return s }}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// WithMinSize drops tokens shorter than n runes.
func WithMinSize(n int) Option {
	return func(o *options) { o.minSize = n }
}

// WithMaxSize drops tokens longer than n runes.
func WithMaxSize(n int) Option {
	return func(o *options) { o.maxSize = n }
}

// WithFold applies fn to every token.
func WithFold(fn func(string) string) Option {
	return func(o *options) { o.fold = fn }
}

// WithJoined also expands the whole value with its spaces removed, so a
// search can span more than one word.
func WithJoined() Option {
	return func(o *options) { o.joined = true }
}

var lowerCaser = cases.Lower(language.Und)

// Lower folds tokens to lower case.
func Lower(s string) string {
	return lowerCaser.String(s)
}

// CleanValue replaces punctuation with spaces, collapses runs of whitespace
// and trims the result.
func CleanValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if !keepRune(r) {
			r = ' '
		}
		if r == ' ' {
			if space {
				continue
			}
			space = true
		} else {
			space = false
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// IsPunctuation reports whether CleanValue would replace r with a space.
func IsPunctuation(r rune) bool {
	return !keepRune(r)
}

// keepRune reports whether r survives CleanValue: word characters, the
// space-to-apostrophe range, double quote and plus.
func keepRune(r rune) bool {
	switch {
	case isWordRune(r):
		return true
	case r >= ' ' && r <= '\'':
		return true
	case r == '+':
		return true
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// prefixes returns the folded word when it is within bounds followed by every
// shorter prefix within bounds.
func prefixes(word string, o options) []string {
	runes := []rune(word)
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		if seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	if n := len(runes); o.minSize <= n && n <= o.maxSize {
		add(o.fold(word))
	}
	for i := 1; i < len(runes); i++ {
		seg := o.fold(string(runes[:i]))
		if n := utf8.RuneCountInString(seg); n < o.minSize || n > o.maxSize {
			continue
		}
		add(seg)
	}
	return out
}

func words(s string, o options) []string {
	clean := CleanValue(s)
	ws := strings.Fields(clean)
	if o.joined && len(ws) > 1 {
		ws = append(ws, strings.ReplaceAll(clean, " ", ""))
	}
	return ws
}

// Startswith expands every word of s into its prefixes, each followed by its
// anglicised form when that differs.
func Startswith(s string, opts ...Option) []string {
	o := newOptions(opts)
	return startswith(s, o)
}

func startswith(s string, o options) []string {
	var out []string
	seen := map[string]bool{}
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}

	for _, w := range words(s, o) {
		segs := prefixes(w, o)
		for _, seg := range segs {
			add(seg)
		}
		for _, seg := range segs {
			if a := Anglicise(seg); a != seg {
				add(a)
			}
		}
	}
	return out
}

// Contains expands every word of s into all of its substrings within the
// size bounds. The result is sorted.
func Contains(s string, opts ...Option) []string {
	o := newOptions(opts)
	set := map[string]struct{}{}
	for _, w := range words(s, o) {
		runes := []rune(w)
		for i := range runes {
			for _, t := range startswith(string(runes[i:]), o) {
				set[t] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Firstletter removes each ignored word from s and returns the first
// character of what remains, or an empty string.
func Firstletter(s string, ignore ...string) []string {
	for _, w := range ignore {
		s = removeWord(s, w)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{""}
	}
	r, _ := utf8.DecodeRuneInString(s)
	return []string{string(r)}
}

// removeWord deletes every whole-word, case-insensitive occurrence of w.
func removeWord(s, w string) string {
	src, target := []rune(s), []rune(w)
	if len(target) == 0 {
		return s
	}

	var out []rune
	for i := 0; i < len(src); {
		if i+len(target) <= len(src) &&
			strings.EqualFold(string(src[i:i+len(target)]), w) &&
			(i == 0 || !isWordRune(src[i-1])) &&
			(i+len(target) == len(src) || !isWordRune(src[i+len(target)])) {
			i += len(target)
			continue
		}
		out = append(out, src[i])
		i++
	}
	return string(out)
}

// Literal indexes a value as itself.
func Literal(s string) []string {
	return []string{s}
}

// With binds options to Startswith or Contains.
func With(fn func(string, ...Option) []string, opts ...Option) Func {
	return func(s string) []string { return fn(s, opts...) }
}

// Ignoring binds ignorable words to Firstletter.
func Ignoring(ignore ...string) Func {
	return func(s string) []string { return Firstletter(s, ignore...) }
}

// Pair is one value contributing to a corpus and the indexer that expands it.
// A nil Index indexes the value literally.
type Pair struct {
	Value any
	Index Func
}

// BuildCorpus joins the words of every string value with the sorted tokens
// produced by each pair's indexer, leaving out tokens that are already words.
func BuildCorpus(pairs ...Pair) string {
	var ws []string
	tokens := map[string]struct{}{}
	for _, p := range pairs {
		index := p.Index
		if index == nil {
			index = Literal
		}
		s, isString := p.Value.(string)
		if !isString {
			s = fmt.Sprint(p.Value)
		}
		for _, t := range index(s) {
			tokens[t] = struct{}{}
		}
		if isString {
			ws = append(ws, strings.Split(s, " ")...)
		}
	}

	for _, w := range ws {
		delete(tokens, w)
	}
	rest := make([]string, 0, len(tokens))
	for t := range tokens {
		rest = append(rest, t)
	}
	sort.Strings(rest)

	return strings.Join(ws, " ") + " " + strings.Join(rest, " ")
}
