package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"teamo/internal/domain"
)

const (
	// invitationValidity is how long an invitation record stays acceptable.
	invitationValidity = 7 * 24 * time.Hour
	// tokenMaxAge is the staleness window of a minted verification token,
	// deliberately much shorter than the invitation validity: the token is
	// only meant to bridge the verify and accept requests.
	tokenMaxAge = time.Hour
)

type invitationService struct {
	invitations domain.InvitationRepository
	employees   domain.EmployeeRepository
	users       domain.UserRepository
	workspaces  domain.WorkspaceRepository
	members     domain.WorkspaceMemberRepository
	tokens      domain.TokenService
	codes       domain.CodeHasher
	creds       domain.CredentialGenerator
	emails      domain.EmailService
	baseURL     string
	logger      *slog.Logger
}

// NewInvitationService creates an InvitationService with the given
// repositories and ports. baseURL is the public origin used to build invite
// links.
func NewInvitationService(
	invitations domain.InvitationRepository,
	employees domain.EmployeeRepository,
	users domain.UserRepository,
	workspaces domain.WorkspaceRepository,
	members domain.WorkspaceMemberRepository,
	tokens domain.TokenService,
	codes domain.CodeHasher,
	creds domain.CredentialGenerator,
	emails domain.EmailService,
	baseURL string,
	logger *slog.Logger,
) domain.InvitationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &invitationService{
		invitations: invitations,
		employees:   employees,
		users:       users,
		workspaces:  workspaces,
		members:     members,
		tokens:      tokens,
		codes:       codes,
		creds:       creds,
		emails:      emails,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		logger:      logger,
	}
}

func (s *invitationService) InviteEmployee(ctx context.Context, req *domain.EmployeeInvite) (*domain.Employee, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))

	workspace, err := s.workspaces.GetBySlug(ctx, req.WorkspaceSlug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("get workspace: %w", err)
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", err)
	}

	code, err := s.creds.InviteCode()
	if err != nil {
		return nil, fmt.Errorf("generate invite code: %w", err)
	}
	codeHash, err := s.codes.Hash(code)
	if err != nil {
		return nil, fmt.Errorf("hash invite code: %w", err)
	}

	hireDate := req.HireDate
	if hireDate == nil {
		now := time.Now()
		hireDate = &now
	}

	if existingUser != nil {
		// Existing account: guard against double membership, then create the
		// pending employee and an EMPLOYEE invitation.
		if _, err := s.employees.GetByUserAndWorkspace(ctx, existingUser.ID, workspace.ID); err == nil {
			return nil, domain.ErrEmployeeExists
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get employee: %w", err)
		}

		employee, err := s.createPendingEmployee(ctx, req, workspace.ID, existingUser.ID, email, hireDate)
		if err != nil {
			return nil, err
		}
		if err := s.createInvitation(ctx, workspace.ID, email, codeHash, domain.InviteTypeEmployee, employee.ID, existingUser.ID); err != nil {
			return nil, err
		}

		if err := s.emails.SendInvitation(ctx, &domain.InvitationEmailData{
			Email:      email,
			Name:       req.FirstName + " " + req.LastName,
			Workspace:  workspace.Name,
			InviteCode: code,
			InviteURL:  s.inviteURL(ctx, code, email),
		}); err != nil {
			return nil, fmt.Errorf("send invitation email: %w", err)
		}
		return employee, nil
	}

	// New account: create a pending user with a temporary password, the
	// pending employee, and an EMPLOYEE_NEW invitation.
	tempPassword, err := s.creds.TemporaryPassword()
	if err != nil {
		return nil, fmt.Errorf("generate temporary password: %w", err)
	}
	passwordHash, err := s.codes.Hash(tempPassword)
	if err != nil {
		return nil, fmt.Errorf("hash temporary password: %w", err)
	}
	now := time.Now()
	user := &domain.User{
		Email:        email,
		Name:         req.FirstName + " " + req.LastName,
		PasswordHash: passwordHash,
		Status:       domain.UserPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	employee, err := s.createPendingEmployee(ctx, req, workspace.ID, user.ID, email, hireDate)
	if err != nil {
		return nil, err
	}
	if err := s.createInvitation(ctx, workspace.ID, email, codeHash, domain.InviteTypeEmployeeNew, employee.ID, user.ID); err != nil {
		return nil, err
	}

	if err := s.emails.SendEmployeeAccount(ctx, &domain.EmployeeAccountEmailData{
		Email:             email,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Workspace:         workspace.Name,
		InviteCode:        code,
		InviteURL:         s.inviteURL(ctx, code, email),
		TemporaryPassword: tempPassword,
	}); err != nil {
		return nil, fmt.Errorf("send employee account email: %w", err)
	}
	return employee, nil
}

func (s *invitationService) VerifyInvite(ctx context.Context, code, email string) (*domain.InviteVerification, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	inv, err := s.invitations.GetPendingByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("get pending invitation: %w", err)
	}

	if expired, err := s.expireIfPast(ctx, inv); err != nil {
		return nil, err
	} else if expired {
		return nil, domain.ErrInvitationExpired
	}

	if err := s.codes.Compare(inv.Code, code); err != nil {
		return nil, domain.ErrInvalidCode
	}

	var employee *domain.Employee
	if e, err := s.employees.GetByEmailAndWorkspace(ctx, email, inv.WorkspaceID); err == nil {
		employee = e
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get employee: %w", err)
	}

	payload := domain.InvitePayload{
		ID:          inv.ID,
		Email:       inv.Email,
		WorkspaceID: inv.WorkspaceID,
		Type:        inv.Type,
		Timestamp:   time.Now().UnixMilli(),
	}
	tok, err := s.tokens.Encrypt(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("mint invitation token: %w", err)
	}

	return &domain.InviteVerification{
		Invitation: inv,
		Employee:   employee,
		Token:      tok,
	}, nil
}

func (s *invitationService) AcceptInvite(ctx context.Context, tok, email string) (*domain.AcceptResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	plain, err := s.tokens.Decrypt(ctx, tok)
	if err != nil {
		return nil, err
	}
	var payload domain.InvitePayload
	if err := json.Unmarshal([]byte(plain), &payload); err != nil {
		return nil, fmt.Errorf("token payload is not valid JSON: %w", domain.ErrMalformedToken)
	}
	if payload.ID == "" || payload.Email == "" {
		return nil, fmt.Errorf("token payload missing invitation reference: %w", domain.ErrMalformedToken)
	}

	// Validate the request before touching any state: a mismatched email
	// must leave invitation and membership untouched.
	if !strings.EqualFold(payload.Email, email) {
		return nil, domain.ErrEmailMismatch
	}
	if payload.Timestamp <= 0 || time.Since(time.UnixMilli(payload.Timestamp)) > tokenMaxAge {
		return nil, domain.ErrTokenExpired
	}

	inv, err := s.invitations.GetByID(ctx, payload.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	if inv.Status != domain.InvitationPending || !strings.EqualFold(inv.Email, email) {
		return nil, domain.ErrInvitationNotFound
	}

	if expired, err := s.expireIfPast(ctx, inv); err != nil {
		return nil, err
	} else if expired {
		return nil, domain.ErrInvitationExpired
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	var data domain.InvitationData
	if inv.Data != "" {
		// Tolerate an unreadable payload: the references inside are
		// auxiliary, the invitation itself is authoritative.
		if err := json.Unmarshal([]byte(inv.Data), &data); err != nil {
			s.logger.Warn("invitation data payload is not valid JSON", "invitation_id", inv.ID)
		}
	}

	switch inv.Type {
	case domain.InviteTypeEmployee:
		if err := s.invitations.UpdateStatus(ctx, inv.ID, domain.InvitationAccepted); err != nil {
			return nil, fmt.Errorf("accept invitation: %w", err)
		}
		if data.EmployeeID != "" {
			if err := s.employees.Activate(ctx, data.EmployeeID, ""); err != nil {
				return nil, fmt.Errorf("activate employee: %w", err)
			}
		}

	case domain.InviteTypeEmployeeNew:
		if err := s.invitations.UpdateStatus(ctx, inv.ID, domain.InvitationAccepted); err != nil {
			return nil, fmt.Errorf("accept invitation: %w", err)
		}
		if data.EmployeeID != "" {
			if err := s.employees.Activate(ctx, data.EmployeeID, user.ID); err != nil {
				return nil, fmt.Errorf("activate employee: %w", err)
			}
		}
		userID := data.UserID
		if userID == "" {
			userID = user.ID
		}
		if err := s.users.UpdateStatus(ctx, userID, domain.UserActive); err != nil {
			return nil, fmt.Errorf("activate user: %w", err)
		}

	case domain.InviteTypeWorkspace:
		if err := s.invitations.UpdateStatus(ctx, inv.ID, domain.InvitationAccepted); err != nil {
			return nil, fmt.Errorf("accept invitation: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported invitation type %q", inv.Type)
	}

	// The upsert is idempotent, so a concurrent accept of the same token at
	// worst repeats this write.
	member := &domain.WorkspaceMember{
		WorkspaceID: inv.WorkspaceID,
		UserID:      user.ID,
		Role:        domain.RoleMember,
		Status:      domain.MemberActive,
	}
	if err := s.members.Upsert(ctx, member); err != nil {
		return nil, fmt.Errorf("upsert workspace member: %w", err)
	}

	return &domain.AcceptResult{
		WorkspaceID:   inv.WorkspaceID,
		WorkspaceName: inv.WorkspaceName,
		WorkspaceSlug: inv.WorkspaceSlug,
	}, nil
}

// expireIfPast lazily applies the PENDING -> EXPIRED transition when the
// invitation's validity window has passed.
func (s *invitationService) expireIfPast(ctx context.Context, inv *domain.Invitation) (bool, error) {
	if inv.ExpiresAt == nil || time.Now().Before(*inv.ExpiresAt) {
		return false, nil
	}
	if err := s.invitations.UpdateStatus(ctx, inv.ID, domain.InvitationExpired); err != nil {
		return false, fmt.Errorf("expire invitation: %w", err)
	}
	return true, nil
}

func (s *invitationService) createPendingEmployee(ctx context.Context, req *domain.EmployeeInvite, workspaceID, userID, email string, hireDate *time.Time) (*domain.Employee, error) {
	employee := &domain.Employee{
		WorkspaceID:  workspaceID,
		UserID:       userID,
		EmployeeCode: req.EmployeeCode,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        email,
		Phone:        req.Phone,
		PositionID:   req.PositionID,
		DepartmentID: req.DepartmentID,
		HireDate:     hireDate,
		Status:       domain.EmployeePending,
		CreatedAt:    time.Now(),
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	return employee, nil
}

func (s *invitationService) createInvitation(ctx context.Context, workspaceID, email, codeHash, inviteType, employeeID, userID string) error {
	data, err := json.Marshal(domain.InvitationData{EmployeeID: employeeID, UserID: userID})
	if err != nil {
		return fmt.Errorf("marshal invitation data: %w", err)
	}
	expiresAt := time.Now().Add(invitationValidity)
	inv := &domain.Invitation{
		WorkspaceID: workspaceID,
		Email:       email,
		Code:        codeHash,
		Type:        inviteType,
		Status:      domain.InvitationPending,
		Data:        string(data),
		ExpiresAt:   &expiresAt,
		CreatedAt:   time.Now(),
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

// inviteURL builds the link embedded in invitation emails: the code and
// email travel as one encrypted bundle. If encryption fails the plain
// parameters are used so the email can still go out; the code is present
// in the same email body regardless.
func (s *invitationService) inviteURL(ctx context.Context, code, email string) string {
	base := s.baseURL + "/invite"
	params := map[string]any{"code": code, "email": email}
	tok, err := s.tokens.Encrypt(ctx, params)
	if err != nil {
		s.logger.Warn("failed to encrypt invite URL params, using plain query", "err", err)
		return base + "?code=" + url.QueryEscape(code) + "&email=" + url.QueryEscape(email)
	}
	return base + "?encrypted=" + url.QueryEscape(tok)
}
