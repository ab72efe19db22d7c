package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"teamo/internal/domain"
)

type remoteService struct {
	baseURL string
	client  *http.Client
}

// NewRemoteService returns a TokenService that delegates to the token HTTP
// endpoints of a trusted server. It holds no key material and is safe to
// construct in untrusted execution contexts. Requests carry the caller's
// context, so timeouts and cancellation propagate to the wire.
func NewRemoteService(baseURL string, client *http.Client) domain.TokenService {
	if client == nil {
		client = http.DefaultClient
	}
	return &remoteService{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

func (s *remoteService) Encrypt(ctx context.Context, data any) (string, error) {
	var out struct {
		Token string `json:"token"`
		Error string `json:"error"`
	}
	if err := s.post(ctx, "/token/new", map[string]any{"data": data}, &out); err != nil {
		return "", err
	}
	if out.Error != "" {
		return "", fmt.Errorf("token service: %s", out.Error)
	}
	if out.Token == "" {
		return "", fmt.Errorf("token service returned an empty token")
	}
	return out.Token, nil
}

func (s *remoteService) Decrypt(ctx context.Context, tok string) (string, error) {
	obj, err := s.DecryptToObject(ctx, tok)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("reserialize decrypted payload: %w", err)
	}
	return string(b), nil
}

func (s *remoteService) DecryptToObject(ctx context.Context, tok string) (map[string]any, error) {
	var out map[string]any
	if err := s.post(ctx, "/token/decrypt", map[string]any{"token": tok}, &out); err != nil {
		return nil, err
	}
	// The decrypt endpoint never fails hard; a fallback body signals that
	// decryption did not succeed server-side.
	if errMsg, ok := out["error"].(string); ok && errMsg != "" {
		return nil, fmt.Errorf("token service: %s: %w", errMsg, domain.ErrDecryptionFailed)
	}
	delete(out, "_decrypted")
	return out, nil
}

func (s *remoteService) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("call token service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("token service returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode token service response: %w", err)
	}
	return nil
}
