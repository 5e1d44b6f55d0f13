// Package rank derives document ranks from model values. The platform returns
// documents in descending rank order when a query sets no sort.
package rank

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kailas-cloud/docsearch/indexer"
)

// MaxRank bounds ranks so that ascending ranks stay positive.
const MaxRank int64 = 1 << 31

// DefaultDigits keeps the order of the first five characters of a string.
const DefaultDigits = 9

// maxDigits keeps the parsed rank inside int64.
const maxDigits = 18

const (
	smallestOrd    = 'A'
	punctuationOrd = smallestOrd - 1
	// Words starting with 'A' would otherwise start with "00" and lose a
	// digit when parsed.
	ordOffset = smallestOrd - 11
)

// ErrUnsupported is returned for rank values that are neither strings nor
// integers.
var ErrUnsupported = errors.New("unsupported rank value")

// ASCIIStringRank converts s into a number whose order follows the
// lexicographic order of s. Characters are folded to ASCII first; anything
// that is not a letter sorts after every letter. Only the first digits/2
// characters take part, so "Python" and "Pythonic" share a rank.
func ASCIIStringRank(s string, digits int) int64 {
	if digits <= 0 {
		digits = DefaultDigits
	}
	if digits > maxDigits {
		digits = maxDigits
	}

	var b strings.Builder
	for _, r := range indexer.Anglicise(s) + strings.Repeat(string(rune(punctuationOrd)), digits) {
		if b.Len() >= digits {
			break
		}
		o := punctuationOrd
		if isASCIILetter(r) {
			o = r
		}
		fmt.Fprintf(&b, "%02d", o-ordOffset)
	}

	out := b.String()
	if len(out) > digits {
		out = out[:digits]
	}
	n, _ := strconv.ParseInt(out, 10, 64)
	return n
}

func isASCIILetter(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

// Of returns the rank for v. Strings go through ASCIIStringRank. Ascending
// ranks are reflected below MaxRank so that the platform's descending order
// lists them smallest first.
func Of(v any, descending bool) (int64, error) {
	var r int64
	switch x := v.(type) {
	case string:
		r = ASCIIStringRank(x, DefaultDigits)
	case fmt.Stringer:
		r = ASCIIStringRank(x.String(), DefaultDigits)
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			r = rv.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			r = int64(rv.Uint())
		default:
			return 0, fmt.Errorf("%w: %T", ErrUnsupported, v)
		}
	}
	if !descending {
		r = MaxRank - r
	}
	return r, nil
}

// Field splits a rank spec such as "-created" into the field name and whether
// the rank descends. A spec without the '-' prefix ascends.
func Field(spec string) (name string, descending bool) {
	name, descending = strings.CutPrefix(spec, "-")
	return name, descending
}
