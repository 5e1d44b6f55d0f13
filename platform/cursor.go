package platform

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const cursorPrefix = "offset:"

// EncodeOffsetCursor returns a cursor token that resumes at offset.
func EncodeOffsetCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset)))
}

// DecodeOffsetCursor returns the offset stored in token. An empty token is
// offset zero.
func DecodeOffsetCursor(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("%w: bad cursor", ErrInvalidRequest)
	}
	rest, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, fmt.Errorf("%w: bad cursor", ErrInvalidRequest)
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad cursor", ErrInvalidRequest)
	}
	return n, nil
}

// NextCursor returns the cursor for the page after offset+returned, or nil
// when total results are exhausted.
func NextCursor(offset, returned, total int) *Cursor {
	if next := offset + returned; returned > 0 && next < total {
		return &Cursor{Token: EncodeOffsetCursor(next)}
	}
	return nil
}
