package controllers

import (
	"log/slog"
	"net/http"

	h "teamo/internal/delivery/http/helpers"
	"teamo/internal/domain"
)

// EncryptRequest is the request body for POST /token/new
type EncryptRequest struct {
	Data any `json:"data"`
}

// Validate implements Validator.
func (e EncryptRequest) Validate() []string {
	if e.Data == nil {
		return []string{"data is required"}
	}
	return nil
}

// EncryptResponse is the response body for POST /token/new
type EncryptResponse struct {
	Token string `json:"token"`
}

// DecryptRequest is the request body for POST /token/decrypt. Email and
// WorkspaceID are accepted for compatibility with older callers and ignored.
type DecryptRequest struct {
	Token       string `json:"token"`
	Email       string `json:"email,omitempty"`
	WorkspaceID string `json:"workspaceId,omitempty"`
}

type TokenController struct {
	Logger  *slog.Logger
	Service domain.TokenService
}

func NewTokenController(logger *slog.Logger, svc domain.TokenService) *TokenController {
	return &TokenController{
		Logger:  logger,
		Service: svc,
	}
}

// New godoc
// @Summary Encrypt data into a token
// @Description Encrypt an arbitrary JSON value into an opaque token string. Strings are encrypted as-is; other values are JSON-serialized first.
// @Tags token
// @Accept json
// @Produce json
// @Param body body EncryptRequest true "Value to encrypt"
// @Success 200 {object} EncryptResponse
// @Failure 400 {object} helpers.ErrorResponse
// @Failure 500 {object} helpers.ErrorResponse
// @Router /token/new [post]
func (c *TokenController) New(w http.ResponseWriter, r *http.Request) {
	var req EncryptRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	token, err := c.Service.Encrypt(r.Context(), req.Data)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "encryption failed", "path", r.URL.Path, "err", err)
		h.WriteError(w, http.StatusInternalServerError, "encryption failed")
		return
	}
	h.WriteJSON(w, http.StatusOK, EncryptResponse{Token: token})
}

// Decrypt godoc
// @Summary Decrypt a token
// @Description Decrypt a token back into its JSON object, marked with "_decrypted": true. This endpoint always resolves: malformed or undecryptable tokens produce a 200 with {error, fallback: true, timestamp} so callers can degrade instead of crashing.
// @Tags token
// @Accept json
// @Produce json
// @Param body body DecryptRequest true "Token to decrypt"
// @Success 200 {object} map[string]any "decrypted object or fallback body"
// @Failure 400 {object} helpers.ErrorResponse "only for non-JSON request bodies"
// @Router /token/decrypt [post]
func (c *TokenController) Decrypt(w http.ResponseWriter, r *http.Request) {
	var req DecryptRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	if req.Token == "" {
		h.WriteFallback(w, "token is required")
		return
	}
	obj, err := c.Service.DecryptToObject(r.Context(), req.Token)
	if err != nil {
		c.Logger.WarnContext(r.Context(), "token decryption failed", "err", err)
		h.WriteFallback(w, "decryption failed")
		return
	}
	obj["_decrypted"] = true
	h.WriteJSON(w, http.StatusOK, obj)
}
