package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for employee operations.
var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrEmployeeExists   = errors.New("employee already belongs to workspace")
)

// Employee statuses.
const (
	EmployeePending = "PENDING"
	EmployeeActive  = "ACTIVE"
)

// Employee is a person employed in a workspace. UserID is empty until the
// invitation linking the employee to an account is accepted.
// swagger:model Employee
type Employee struct {
	ID           string     `json:"id"`
	WorkspaceID  string     `json:"workspace_id"`
	UserID       string     `json:"user_id,omitempty"`
	EmployeeCode string     `json:"employee_code,omitempty"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	PositionID   string     `json:"position_id,omitempty"`
	DepartmentID string     `json:"department_id,omitempty"`
	HireDate     *time.Time `json:"hire_date,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
}

// EmployeeRepository defines storage operations for employees.
type EmployeeRepository interface {
	Create(ctx context.Context, e *Employee) error
	GetByEmailAndWorkspace(ctx context.Context, email, workspaceID string) (*Employee, error)
	GetByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*Employee, error)
	Activate(ctx context.Context, id, userID string) error
}
