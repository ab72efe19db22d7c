package domain

import (
	"context"
	"errors"
)

// Sentinel errors for token operations.
var (
	// ErrMalformedToken means the wire format is violated (fewer than two
	// dot-delimited segments, or segments that are not base64).
	ErrMalformedToken = errors.New("malformed token")
	// ErrDecryptionFailed means both the authenticated and the legacy
	// decryption attempts failed; the usual cause is key/iv material that
	// differs from the material used to encrypt.
	ErrDecryptionFailed = errors.New("token decryption failed")
	// ErrTokenExpired means the timestamp embedded in a token is outside
	// its staleness window.
	ErrTokenExpired = errors.New("token expired")
)

// InvitePayload is the object carried inside an invitation token.
// Timestamp is Unix milliseconds at mint time.
type InvitePayload struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	WorkspaceID string `json:"workspaceId"`
	Type        string `json:"type,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// TokenService encrypts values into opaque URL-safe tokens and back.
//
// Two implementations exist: a local one with direct access to the key
// material (trusted execution context) and a remote one that delegates to
// the token HTTP endpoints (untrusted context). Callers pick one by
// injection; nothing sniffs the runtime environment.
type TokenService interface {
	// Encrypt serializes data (JSON for non-strings) and returns the wire
	// token.
	Encrypt(ctx context.Context, data any) (string, error)
	// Decrypt returns the decrypted plaintext of a wire token.
	Decrypt(ctx context.Context, token string) (string, error)
	// DecryptToObject decrypts and JSON-decodes a token.
	DecryptToObject(ctx context.Context, token string) (map[string]any, error)
}
