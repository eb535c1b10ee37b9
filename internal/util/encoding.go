package util

import (
	"encoding/hex"
	"strings"
)

// HexEncode returns the lowercase hex encoding of src.
func HexEncode(src []byte) string {
	return hex.EncodeToString(src)
}

// HexDecode decodes a hex string. Surrounding whitespace is ignored and
// either letter case is accepted.
func HexDecode(s string) ([]byte, error) {
	return hex.DecodeString(strings.ToLower(strings.TrimSpace(s)))
}
