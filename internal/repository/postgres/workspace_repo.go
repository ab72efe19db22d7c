package postgres

import (
	"context"
	"database/sql"

	"teamo/internal/domain"
)

type workspaceRepository struct {
	DB *sql.DB
}

func NewWorkspaceRepository(db *sql.DB) domain.WorkspaceRepository {
	return &workspaceRepository{DB: db}
}

func (r *workspaceRepository) GetByID(ctx context.Context, id string) (*domain.Workspace, error) {
	query := `
		SELECT id, name, slug, created_at
		FROM workspaces
		WHERE id = $1
	`
	w := &domain.Workspace{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&w.ID, &w.Name, &w.Slug, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *workspaceRepository) GetBySlug(ctx context.Context, slug string) (*domain.Workspace, error) {
	query := `
		SELECT id, name, slug, created_at
		FROM workspaces
		WHERE slug = $1
	`
	w := &domain.Workspace{}
	err := r.DB.QueryRowContext(ctx, query, slug).Scan(&w.ID, &w.Name, &w.Slug, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

type workspaceMemberRepository struct {
	DB *sql.DB
}

func NewWorkspaceMemberRepository(db *sql.DB) domain.WorkspaceMemberRepository {
	return &workspaceMemberRepository{DB: db}
}

// Upsert reactivates an existing membership instead of failing on the
// unique constraint, so repeated accepts converge on the same row.
func (r *workspaceMemberRepository) Upsert(ctx context.Context, m *domain.WorkspaceMember) error {
	query := `
		INSERT INTO workspace_members (workspace_id, user_id, role, status, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (workspace_id, user_id)
		DO UPDATE SET status = EXCLUDED.status
	`
	_, err := r.DB.ExecContext(ctx, query, m.WorkspaceID, m.UserID, m.Role, m.Status)
	return err
}
