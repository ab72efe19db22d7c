package token

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"teamo/internal/domain"
)

var whitespaceRegexp = regexp.MustCompile(`\s+`)

// EncodeToken serializes cipher output into the wire format
// <urlsafe ciphertext>.<urlsafe authTag>.<'0'|'1'>.
func EncodeToken(s Sealed) string {
	flag := "0"
	if s.Compressed {
		flag = "1"
	}
	return Base64ToURLSafe(s.CiphertextB64) + "." + Base64ToURLSafe(s.AuthTagB64) + "." + flag
}

// DecodeToken parses a wire token back into cipher input, returning the
// first two segments as standard base64. A token with fewer than two
// dot-delimited segments has no auth tag and is rejected as malformed
// rather than treated as bare ciphertext.
func DecodeToken(tok string) (Sealed, error) {
	parts := strings.Split(tok, ".")
	if len(parts) < 2 {
		return Sealed{}, fmt.Errorf("expected ciphertext.authTag[.compressed], got %d segment(s): %w",
			len(parts), domain.ErrMalformedToken)
	}
	s := Sealed{
		CiphertextB64: URLSafeToBase64(parts[0]),
		AuthTagB64:    URLSafeToBase64(parts[1]),
	}
	if len(parts) > 2 && parts[2] == "1" {
		s.Compressed = true
	}
	return s, nil
}

// NormalizeToken repairs transport damage before decoding: percent-encoding
// left over from URL embedding, whitespace inserted by copy/paste or mail
// clients, and segments whose URL-safe characters were already restored
// once. The URL-safe check is a best-effort heuristic — a segment that
// happens to contain no '+' or '/' is indistinguishable from one that was
// URL-safe encoded — but it only rewrites characters DecodeToken maps the
// same way, so a false positive is harmless. NormalizeToken is idempotent.
func NormalizeToken(tok string) string {
	if strings.Contains(tok, "%") {
		// PathUnescape keeps '+' literal; the token alphabet relies on it.
		if decoded, err := url.PathUnescape(tok); err == nil {
			tok = decoded
		}
	}
	tok = whitespaceRegexp.ReplaceAllString(tok, "")

	if strings.Contains(tok, ".") {
		parts := strings.Split(tok, ".")
		hasURLSafe := strings.ContainsAny(parts[0], "-_")
		hasStandard := strings.ContainsAny(parts[0], "+/")
		if hasURLSafe && !hasStandard {
			r := strings.NewReplacer("-", "+", "_", "/")
			parts[0] = r.Replace(parts[0])
			if len(parts) > 1 {
				parts[1] = r.Replace(parts[1])
			}
			tok = strings.Join(parts, ".")
		}
	}
	return tok
}
