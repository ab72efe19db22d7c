package postgres

import (
	"context"
	"database/sql"

	"teamo/internal/domain"
)

type invitationRepository struct {
	DB *sql.DB
}

func NewInvitationRepository(db *sql.DB) domain.InvitationRepository {
	return &invitationRepository{DB: db}
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	query := `
		INSERT INTO invitations (workspace_id, email, code, type, status, data, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		inv.WorkspaceID, inv.Email, inv.Code, inv.Type, inv.Status, inv.Data, inv.ExpiresAt, inv.CreatedAt,
	).Scan(&inv.ID)
}

func (r *invitationRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	query := `
		SELECT i.id, i.workspace_id, i.email, i.code, i.type, i.status, i.data, i.expires_at, i.created_at,
		       w.name, w.slug
		FROM invitations i
		JOIN workspaces w ON w.id = i.workspace_id
		WHERE i.id = $1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

func (r *invitationRepository) GetPendingByEmail(ctx context.Context, email string) (*domain.Invitation, error) {
	query := `
		SELECT i.id, i.workspace_id, i.email, i.code, i.type, i.status, i.data, i.expires_at, i.created_at,
		       w.name, w.slug
		FROM invitations i
		JOIN workspaces w ON w.id = i.workspace_id
		WHERE i.email = $1 AND i.status = 'PENDING'
		ORDER BY i.created_at DESC
		LIMIT 1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, email))
}

func (r *invitationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE invitations
		SET status = $2
		WHERE id = $1
	`
	_, err := r.DB.ExecContext(ctx, query, id, status)
	return err
}

func (r *invitationRepository) scanOne(row *sql.Row) (*domain.Invitation, error) {
	inv := &domain.Invitation{}
	var data sql.NullString
	err := row.Scan(
		&inv.ID, &inv.WorkspaceID, &inv.Email, &inv.Code, &inv.Type, &inv.Status,
		&data, &inv.ExpiresAt, &inv.CreatedAt,
		&inv.WorkspaceName, &inv.WorkspaceSlug,
	)
	if err != nil {
		return nil, err
	}
	inv.Data = data.String
	return inv, nil
}
