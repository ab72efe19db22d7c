package domain

import (
	"context"
	"errors"
	"time"
)

// ErrWorkspaceNotFound is returned when no workspace matches the lookup.
var ErrWorkspaceNotFound = errors.New("workspace not found")

// Workspace is a tenant: employees, invitations, and memberships all hang
// off a workspace id.
// swagger:model Workspace
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// Membership statuses and roles.
const (
	MemberActive = "ACTIVE"
	RoleMember   = "MEMBER"
)

// WorkspaceMember links a user to a workspace.
type WorkspaceMember struct {
	WorkspaceID string    `json:"workspace_id"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// WorkspaceRepository defines workspace lookups.
type WorkspaceRepository interface {
	GetByID(ctx context.Context, id string) (*Workspace, error)
	GetBySlug(ctx context.Context, slug string) (*Workspace, error)
}

// WorkspaceMemberRepository persists workspace membership. Upsert is
// idempotent: re-activating an existing membership is not an error, which
// keeps concurrent accepts of the same invitation from corrupting state.
type WorkspaceMemberRepository interface {
	Upsert(ctx context.Context, member *WorkspaceMember) error
}
