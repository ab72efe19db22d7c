package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	h "teamo/internal/delivery/http/helpers"
	"teamo/internal/domain"
)

// VerifyInviteRequest is the request body for POST /invite/verify
type VerifyInviteRequest struct {
	Code  string `json:"code"`
	Email string `json:"email"`
}

// Validate implements Validator.
func (v VerifyInviteRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(v.Code) == "" {
		errs = append(errs, "code is required")
	}
	if strings.TrimSpace(v.Email) == "" {
		errs = append(errs, "email is required")
	}
	return errs
}

// VerifyInviteResponse is the response body for POST /invite/verify
type VerifyInviteResponse struct {
	Invitation *domain.Invitation `json:"invitation"`
	Employee   *domain.Employee   `json:"employee,omitempty"`
	Token      string             `json:"token"`
}

// AcceptInviteRequest is the request body for POST /invite/accept
type AcceptInviteRequest struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// Validate implements Validator.
func (a AcceptInviteRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(a.Token) == "" {
		errs = append(errs, "token is required")
	}
	if strings.TrimSpace(a.Email) == "" {
		errs = append(errs, "email is required")
	}
	return errs
}

// AcceptInviteResponse is the response body for POST /invite/accept
type AcceptInviteResponse struct {
	Success       bool   `json:"success"`
	WorkspaceID   string `json:"workspaceId"`
	WorkspaceName string `json:"workspaceName"`
	WorkspaceSlug string `json:"workspaceSlug"`
}

type InviteController struct {
	Logger  *slog.Logger
	Service domain.InvitationService
}

func NewInviteController(logger *slog.Logger, svc domain.InvitationService) *InviteController {
	return &InviteController{
		Logger:  logger,
		Service: svc,
	}
}

// Verify godoc
// @Summary Verify an invite code
// @Description Check the 6-digit invite code against the pending invitation for the email. On success returns the invitation, the pre-created employee if one exists, and a short-lived token to submit back on accept.
// @Tags invite
// @Accept json
// @Produce json
// @Param body body VerifyInviteRequest true "Code and email"
// @Success 200 {object} VerifyInviteResponse
// @Failure 400 {object} helpers.ErrorResponse
// @Failure 401 {object} helpers.ErrorResponse "invalid invite code"
// @Failure 404 {object} helpers.ErrorResponse "no pending invitation"
// @Failure 410 {object} helpers.ErrorResponse "invitation expired"
// @Router /invite/verify [post]
func (c *InviteController) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyInviteRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	result, err := c.Service.VerifyInvite(r.Context(), req.Code, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvitationNotFound):
			h.WriteError(w, http.StatusNotFound, "no pending invitation for this email")
		case errors.Is(err, domain.ErrInvalidCode):
			h.WriteError(w, http.StatusUnauthorized, "invalid invite code")
		case errors.Is(err, domain.ErrInvitationExpired):
			h.WriteError(w, http.StatusGone, "invitation has expired")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			h.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	h.WriteJSON(w, http.StatusOK, VerifyInviteResponse{
		Invitation: result.Invitation,
		Employee:   result.Employee,
		Token:      result.Token,
	})
}

// Accept godoc
// @Summary Accept an invitation
// @Description Consume a token minted by /invite/verify and activate workspace membership. The token must match the email and be no older than one hour.
// @Tags invite
// @Accept json
// @Produce json
// @Param body body AcceptInviteRequest true "Token and email"
// @Success 200 {object} AcceptInviteResponse
// @Failure 400 {object} helpers.ErrorResponse "malformed or undecryptable token"
// @Failure 401 {object} helpers.ErrorResponse "stale token"
// @Failure 403 {object} helpers.ErrorResponse "email mismatch"
// @Failure 404 {object} helpers.ErrorResponse "invitation or user not found"
// @Failure 410 {object} helpers.ErrorResponse "invitation expired"
// @Router /invite/accept [post]
func (c *InviteController) Accept(w http.ResponseWriter, r *http.Request) {
	var req AcceptInviteRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	result, err := c.Service.AcceptInvite(r.Context(), req.Token, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMalformedToken), errors.Is(err, domain.ErrDecryptionFailed):
			h.WriteError(w, http.StatusBadRequest, "invalid invitation token")
		case errors.Is(err, domain.ErrTokenExpired):
			h.WriteError(w, http.StatusUnauthorized, "invitation token has expired, verify the code again")
		case errors.Is(err, domain.ErrEmailMismatch):
			h.WriteError(w, http.StatusForbidden, "email does not match invitation")
		case errors.Is(err, domain.ErrInvitationNotFound):
			h.WriteError(w, http.StatusNotFound, "invitation not found")
		case errors.Is(err, domain.ErrUserNotFound):
			h.WriteError(w, http.StatusNotFound, "no account for this email")
		case errors.Is(err, domain.ErrInvitationExpired):
			h.WriteError(w, http.StatusGone, "invitation has expired")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			h.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	h.WriteJSON(w, http.StatusOK, AcceptInviteResponse{
		Success:       true,
		WorkspaceID:   result.WorkspaceID,
		WorkspaceName: result.WorkspaceName,
		WorkspaceSlug: result.WorkspaceSlug,
	})
}
