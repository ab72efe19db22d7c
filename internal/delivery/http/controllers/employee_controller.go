package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	h "teamo/internal/delivery/http/helpers"
	"teamo/internal/domain"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// InviteEmployeeRequest is the request body for POST /employees/invite
type InviteEmployeeRequest struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	PositionID    string `json:"position_id,omitempty"`
	DepartmentID  string `json:"department_id,omitempty"`
	EmployeeCode  string `json:"employee_code,omitempty"`
	HireDate      string `json:"hire_date,omitempty"` // RFC 3339 date, defaults to today
	WorkspaceSlug string `json:"workspace_slug"`
}

// Validate implements Validator.
func (i InviteEmployeeRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(i.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(i.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	email := strings.TrimSpace(strings.ToLower(i.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	if strings.TrimSpace(i.WorkspaceSlug) == "" {
		errs = append(errs, "workspace_slug is required")
	}
	if i.HireDate != "" {
		if _, err := time.Parse("2006-01-02", i.HireDate); err != nil {
			errs = append(errs, "hire_date must be a YYYY-MM-DD date")
		}
	}
	return errs
}

type EmployeeController struct {
	Logger  *slog.Logger
	Service domain.InvitationService
}

func NewEmployeeController(logger *slog.Logger, svc domain.InvitationService) *EmployeeController {
	return &EmployeeController{
		Logger:  logger,
		Service: svc,
	}
}

// Invite godoc
// @Summary Invite an employee
// @Description Create a pending employee in the workspace and email them an invite code. When the email has no account yet, a pending user with a temporary password is created alongside.
// @Tags employees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body InviteEmployeeRequest true "Employee details"
// @Success 201 {object} domain.Employee
// @Failure 400 {object} helpers.ErrorResponse
// @Failure 401 {object} helpers.ErrorResponse
// @Failure 404 {object} helpers.ErrorResponse "workspace not found"
// @Failure 409 {object} helpers.ErrorResponse "already an employee of the workspace"
// @Router /employees/invite [post]
func (c *EmployeeController) Invite(w http.ResponseWriter, r *http.Request) {
	var req InviteEmployeeRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	invite := &domain.EmployeeInvite{
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Email:         req.Email,
		Phone:         req.Phone,
		PositionID:    req.PositionID,
		DepartmentID:  req.DepartmentID,
		EmployeeCode:  req.EmployeeCode,
		WorkspaceSlug: req.WorkspaceSlug,
	}
	if req.HireDate != "" {
		d, _ := time.Parse("2006-01-02", req.HireDate)
		invite.HireDate = &d
	}

	employee, err := c.Service.InviteEmployee(r.Context(), invite)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrWorkspaceNotFound):
			h.WriteError(w, http.StatusNotFound, "workspace not found")
		case errors.Is(err, domain.ErrEmployeeExists):
			h.WriteError(w, http.StatusConflict, "already an employee of this workspace")
		case errors.Is(err, domain.ErrDuplicateEmail):
			h.WriteError(w, http.StatusConflict, "email already registered")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			h.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	h.WriteJSON(w, http.StatusCreated, employee)
}
