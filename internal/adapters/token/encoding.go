package token

import (
	"encoding/base64"
	"strings"
)

// BytesToBase64 encodes raw bytes as standard base64.
func BytesToBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Base64ToBytes decodes standard base64 into raw bytes.
func Base64ToBytes(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// Base64ToURLSafe converts standard base64 to its URL-safe form:
// '+' becomes '-', '/' becomes '_', trailing '=' padding is stripped.
func Base64ToURLSafe(s string) string {
	s = strings.ReplaceAll(s, "+", "-")
	s = strings.ReplaceAll(s, "/", "_")
	return strings.TrimRight(s, "=")
}

// URLSafeToBase64 reverses Base64ToURLSafe, restoring '=' padding to a
// multiple-of-4 length. Applying it to a string that is already standard
// base64 is a no-op apart from re-padding.
func URLSafeToBase64(s string) string {
	s = strings.ReplaceAll(s, "-", "+")
	s = strings.ReplaceAll(s, "_", "/")
	if m := len(s) % 4; m != 0 {
		s += strings.Repeat("=", 4-m)
	}
	return s
}
