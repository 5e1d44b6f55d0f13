package indexer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters with no canonical decomposition.
var ligatures = map[rune]string{
	'Æ': "Ae", 'æ': "ae",
	'Œ': "Oe", 'œ': "oe",
	'ß': "ss",
	'Ø': "O", 'ø': "o",
	'Ł': "L", 'ł': "l",
	'Đ': "D", 'đ': "d",
	'Þ': "Th", 'þ': "th",
	'ð': "d",
	'ı': "i",
}

// Latin-1 Supplement through Latin Extended-B, plus Latin Extended
// Additional for Vietnamese.
var foreignRanges = [][2]rune{
	{0x00C0, 0x024F},
	{0x1E00, 0x1EFF},
}

var characterMap = buildCharacterMap()

func buildCharacterMap() map[rune]string {
	m := make(map[rune]string, 512)
	strip := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	for _, rg := range foreignRanges {
		for r := rg[0]; r <= rg[1]; r++ {
			s, _, err := transform.String(strip, string(r))
			if err != nil || s == string(r) || !isASCII(s) {
				continue
			}
			m[r] = s
		}
	}
	for r, s := range ligatures {
		m[r] = s
	}
	return m
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// Anglicise replaces each foreign character in s with its closest Latin
// alphabet equivalent. Characters without one pass through unchanged.
func Anglicise(s string) string {
	var b strings.Builder
	changed := false
	for _, r := range s {
		if rep, ok := characterMap[r]; ok {
			b.WriteString(rep)
			changed = true
			continue
		}
		b.WriteRune(r)
	}
	if !changed {
		return s
	}
	return b.String()
}
