// Package clipboard moves annotation documents through the system
// clipboard.
package clipboard

import (
	"bytes"
	"errors"
)

// ErrNotJSON is returned when clipboard content is not a JSON object.
var ErrNotJSON = errors.New("clipboard content is not a JSON document")

func looksLikeJSON(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) >= 2 && b[0] == '{' && b[len(b)-1] == '}'
}
