// Package textcodec encodes and decodes message text in the URL-safe
// base64 dialect used by the chat platform: '-' and '_' instead of
// '+' and '/', no padding.
package textcodec

import (
	"encoding/base64"
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrNotText is returned when syntactically valid base64 decodes to
// bytes that are not UTF-8 text. Short plain-text messages like
// "abcd" parse as base64, so without this check they would be
// mangled instead of kept raw.
var ErrNotText = errors.New("decoded payload is not utf-8 text")

// markerPrefix marks payloads where the platform stripped the text and
// left only an empty base64 wrapper.
const markerPrefix = "base64("

// Encode returns the URL-safe base64 form of s.
func Encode(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

// Decode reverses Encode. Padded input is accepted as well. Input
// that decodes to non-UTF-8 bytes yields ErrNotText.
func Decode(s string) (string, error) {
	trimmed := strings.TrimRight(s, "=")
	b, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrNotText
	}
	return string(b), nil
}

// IsEmptyMarker reports whether s is a raw base64 marker with no
// decodable payload, i.e. a message that carries no actual text.
func IsEmptyMarker(s string) bool {
	return len(s) >= len(markerPrefix) && strings.EqualFold(s[:len(markerPrefix)], markerPrefix)
}
