package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"teamo/internal/domain"
)

type employeeRepository struct {
	DB *sql.DB
}

func NewEmployeeRepository(db *sql.DB) domain.EmployeeRepository {
	return &employeeRepository{DB: db}
}

func (r *employeeRepository) Create(ctx context.Context, e *domain.Employee) error {
	query := `
		INSERT INTO employees (workspace_id, user_id, employee_code, first_name, last_name, email,
		                       phone, position_id, department_id, hire_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.WorkspaceID, nullString(e.UserID), nullString(e.EmployeeCode), e.FirstName, e.LastName, e.Email,
		nullString(e.Phone), nullString(e.PositionID), nullString(e.DepartmentID), e.HireDate, e.Status, e.CreatedAt,
	).Scan(&e.ID)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return domain.ErrEmployeeExists
	}
	return err
}

func (r *employeeRepository) GetByEmailAndWorkspace(ctx context.Context, email, workspaceID string) (*domain.Employee, error) {
	query := selectEmployee + ` WHERE email = $1 AND workspace_id = $2`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, email, workspaceID))
}

func (r *employeeRepository) GetByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*domain.Employee, error) {
	query := selectEmployee + ` WHERE user_id = $1 AND workspace_id = $2`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userID, workspaceID))
}

// Activate marks the employee ACTIVE. A non-empty userID also links the
// employee to the account created for them.
func (r *employeeRepository) Activate(ctx context.Context, id, userID string) error {
	query := `
		UPDATE employees
		SET status = 'ACTIVE', user_id = COALESCE(NULLIF($2, ''), user_id)
		WHERE id = $1
	`
	_, err := r.DB.ExecContext(ctx, query, id, userID)
	return err
}

const selectEmployee = `
	SELECT id, workspace_id, user_id, employee_code, first_name, last_name, email,
	       phone, position_id, department_id, hire_date, status, created_at
	FROM employees`

func (r *employeeRepository) scanOne(row *sql.Row) (*domain.Employee, error) {
	e := &domain.Employee{}
	var userID, code, phone, positionID, departmentID sql.NullString
	err := row.Scan(
		&e.ID, &e.WorkspaceID, &userID, &code, &e.FirstName, &e.LastName, &e.Email,
		&phone, &positionID, &departmentID, &e.HireDate, &e.Status, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.UserID = userID.String
	e.EmployeeCode = code.String
	e.Phone = phone.String
	e.PositionID = positionID.String
	e.DepartmentID = departmentID.String
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
