//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package clipboard

import (
	"fmt"
)

func WriteText(string) error {
	return fmt.Errorf("clipboard text operations are not supported on this platform")
}

func WriteJSON(data []byte) error {
	if !looksLikeJSON(data) {
		return ErrNotJSON
	}
	return WriteText(string(data))
}

func ReadText() (string, error) {
	return "", fmt.Errorf("clipboard text operations are not supported on this platform")
}

func ReadJSON() ([]byte, error) {
	return nil, fmt.Errorf("clipboard text operations are not supported on this platform")
}
