package token

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"teamo/internal/domain"
)

type localService struct {
	engine *Engine
}

// NewLocalService returns a TokenService with direct access to the cipher
// engine. Use it in trusted execution contexts that hold key material; the
// remote variant covers everything else.
func NewLocalService(engine *Engine) domain.TokenService {
	return &localService{engine: engine}
}

func (s *localService) Encrypt(ctx context.Context, data any) (string, error) {
	plaintext, err := stringify(data)
	if err != nil {
		return "", fmt.Errorf("serialize payload: %w", err)
	}
	sealed, err := s.engine.Encrypt(plaintext)
	if err != nil {
		return "", fmt.Errorf("encrypt payload: %w", err)
	}
	return EncodeToken(sealed), nil
}

func (s *localService) Decrypt(ctx context.Context, tok string) (string, error) {
	sealed, err := DecodeToken(NormalizeToken(tok))
	if err != nil {
		return "", err
	}
	return s.engine.Decrypt(sealed)
}

func (s *localService) DecryptToObject(ctx context.Context, tok string) (map[string]any, error) {
	plain, err := s.Decrypt(ctx, tok)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(plain), &obj); err == nil {
		return obj, nil
	}
	// Older tokens occasionally carry stray control characters from the
	// double-encoding era; strip them and retry before giving up.
	sanitized := strings.TrimSpace(stripControlChars(plain))
	if strings.Contains(sanitized, "{") {
		if err := json.Unmarshal([]byte(sanitized), &obj); err == nil {
			return obj, nil
		}
	}
	return nil, fmt.Errorf("decrypted payload is not a JSON object: %w", domain.ErrDecryptionFailed)
}

func stringify(data any) (string, error) {
	if s, ok := data.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func stripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 {
			return -1
		}
		return r
	}, s)
}
