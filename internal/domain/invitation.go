package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for invitation operations.
var (
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationExpired  = errors.New("invitation expired")
	ErrInvalidCode        = errors.New("invalid invite code")
	ErrEmailMismatch      = errors.New("email does not match invitation")
)

// Invitation statuses. PENDING transitions to exactly one of the others;
// EXPIRED is applied lazily when a pending invitation is read past its
// expires_at.
const (
	InvitationPending  = "PENDING"
	InvitationAccepted = "ACCEPTED"
	InvitationRejected = "REJECTED"
	InvitationExpired  = "EXPIRED"
)

// Invitation kinds.
const (
	InviteTypeEmployee    = "EMPLOYEE"     // existing user joins as employee
	InviteTypeEmployeeNew = "EMPLOYEE_NEW" // user account created alongside the employee
	InviteTypeWorkspace   = "WORKSPACE"    // plain workspace membership
)

// Invitation represents a pending offer for a person to join a workspace.
// Code holds a bcrypt hash of the invite code, never the plaintext.
// swagger:model Invitation
type Invitation struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspace_id"`
	Email       string     `json:"email"`
	Code        string     `json:"-"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Data        string     `json:"-"` // opaque JSON payload (employee/user references)
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	// Workspace summary joined in by the repository when available.
	WorkspaceName string `json:"-"`
	WorkspaceSlug string `json:"-"`
}

// InvitationData is the auxiliary payload stored in Invitation.Data.
type InvitationData struct {
	EmployeeID string `json:"employeeId,omitempty"`
	UserID     string `json:"userId,omitempty"`
}

// InvitationRepository defines storage operations for invitations.
type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	GetByID(ctx context.Context, id string) (*Invitation, error)
	GetPendingByEmail(ctx context.Context, email string) (*Invitation, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// InviteVerification is the result of a successful code check: the matched
// invitation, the pre-created employee record if one exists, and a freshly
// minted token the client submits back on accept.
type InviteVerification struct {
	Invitation *Invitation
	Employee   *Employee
	Token      string
}

// AcceptResult identifies the workspace the accepting user joined.
type AcceptResult struct {
	WorkspaceID   string
	WorkspaceName string
	WorkspaceSlug string
}

// EmployeeInvite is the request to invite an employee into a workspace.
type EmployeeInvite struct {
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	PositionID    string
	DepartmentID  string
	EmployeeCode  string
	HireDate      *time.Time
	WorkspaceSlug string
}

// InvitationService defines the invitation verification protocol.
type InvitationService interface {
	// InviteEmployee creates the pending employee (and user when the email
	// is new), persists the invitation, and emails the invite code.
	InviteEmployee(ctx context.Context, req *EmployeeInvite) (*Employee, error)
	// VerifyInvite checks code against the stored hash for the pending
	// invitation matching email and mints a short-lived token.
	VerifyInvite(ctx context.Context, code, email string) (*InviteVerification, error)
	// AcceptInvite consumes a token minted by VerifyInvite and activates
	// membership. The token carries its own 1-hour staleness window,
	// independent of the invitation's expires_at.
	AcceptInvite(ctx context.Context, token, email string) (*AcceptResult, error)
}
