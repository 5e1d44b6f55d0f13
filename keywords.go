package docsearch

import (
	"regexp"
	"strings"
)

// allowedPunctuation survives StripSpecialSearchCharacters. Terms containing
// any of it are searched exactly.
const allowedPunctuation = "_-@."

// asciiPunctuation is every ASCII punctuation character.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var (
	leadingOperator  = regexp.MustCompile(`^(OR|AND)`)
	trailingOperator = regexp.MustCompile(`(OR|AND)$`)
)

// IsWrappedInQuotes reports whether s starts and ends with the same single or
// double quote.
func IsWrappedInQuotes(s string) bool {
	if s == "" {
		return false
	}
	return (s[0] == '"' || s[0] == '\'') && s[0] == s[len(s)-1]
}

// StripSurroundingQuotes removes the quotes around a quoted string.
func StripSurroundingQuotes(s string) string {
	if !IsWrappedInQuotes(s) {
		return s
	}
	return strings.Trim(s, s[:1])
}

// StripSpecialSearchCharacters removes ASCII punctuation other than
// "_-@." since the platform's parser rejects it.
func StripSpecialSearchCharacters(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(asciiPunctuation, r) && !strings.ContainsRune(allowedPunctuation, r) {
			return -1
		}
		return r
	}, s)
}

// StripMultiValueOperators removes a leading or trailing AND/OR, which the
// platform parses as an incomplete expression.
func StripMultiValueOperators(s string) string {
	if s == "" {
		return s
	}
	s = leadingOperator.ReplaceAllString(s, "")
	s = trailingOperator.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// FilterSearch narrows sq to documents whose corpus field matches a user's
// search box value. A quoted value is matched exactly; terms containing
// "_-@." (such as email addresses) are matched exactly; the rest is a
// contains search.
func FilterSearch(sq *SearchQuery, value, corpus string) *SearchQuery {
	if value == "" {
		return sq
	}

	exact := IsWrappedInQuotes(value)
	value = StripSurroundingQuotes(value)
	if exact {
		return sq.Where(corpus, value)
	}

	value = StripSpecialSearchCharacters(value)

	var terms []string
	for _, term := range strings.Split(value, " ") {
		if strings.ContainsAny(term, allowedPunctuation) {
			sq = sq.Where(corpus, term)
		} else {
			terms = append(terms, term)
		}
	}

	value = StripMultiValueOperators(strings.Join(terms, " "))
	if value != "" {
		sq = sq.Where(corpus+"__contains", value)
	}
	return sq
}
