package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"teamo/internal/domain"
)

type mockInvitationRepository struct {
	byID           map[string]*domain.Invitation
	pendingByEmail map[string]*domain.Invitation
	created        []*domain.Invitation
	statusUpdates  map[string]string
	err            error
}

func (m *mockInvitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	if m.err != nil {
		return m.err
	}
	inv.ID = "inv-created"
	m.created = append(m.created, inv)
	return nil
}

func (m *mockInvitationRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	if m.err != nil {
		return nil, m.err
	}
	inv, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return inv, nil
}

func (m *mockInvitationRepository) GetPendingByEmail(ctx context.Context, email string) (*domain.Invitation, error) {
	if m.err != nil {
		return nil, m.err
	}
	inv, ok := m.pendingByEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return inv, nil
}

func (m *mockInvitationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if m.statusUpdates == nil {
		m.statusUpdates = map[string]string{}
	}
	m.statusUpdates[id] = status
	return nil
}

type mockEmployeeRepository struct {
	byEmailAndWorkspace map[string]*domain.Employee
	byUserAndWorkspace  map[string]*domain.Employee
	created             []*domain.Employee
	activated           map[string]string
}

func (m *mockEmployeeRepository) Create(ctx context.Context, e *domain.Employee) error {
	e.ID = "emp-created"
	m.created = append(m.created, e)
	return nil
}

func (m *mockEmployeeRepository) GetByEmailAndWorkspace(ctx context.Context, email, workspaceID string) (*domain.Employee, error) {
	if e, ok := m.byEmailAndWorkspace[email+":"+workspaceID]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEmployeeRepository) GetByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*domain.Employee, error) {
	if e, ok := m.byUserAndWorkspace[userID+":"+workspaceID]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEmployeeRepository) Activate(ctx context.Context, id, userID string) error {
	if m.activated == nil {
		m.activated = map[string]string{}
	}
	m.activated[id] = userID
	return nil
}

type mockUserRepository struct {
	byEmail       map[string]*domain.User
	created       []*domain.User
	statusUpdates map[string]string
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	user.ID = "user-created"
	m.created = append(m.created, user)
	return nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return nil, sql.ErrNoRows
}

func (m *mockUserRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if m.statusUpdates == nil {
		m.statusUpdates = map[string]string{}
	}
	m.statusUpdates[id] = status
	return nil
}

type mockWorkspaceRepository struct {
	bySlug map[string]*domain.Workspace
}

func (m *mockWorkspaceRepository) GetByID(ctx context.Context, id string) (*domain.Workspace, error) {
	return nil, sql.ErrNoRows
}

func (m *mockWorkspaceRepository) GetBySlug(ctx context.Context, slug string) (*domain.Workspace, error) {
	if w, ok := m.bySlug[slug]; ok {
		return w, nil
	}
	return nil, sql.ErrNoRows
}

type mockMemberRepository struct {
	upserts []*domain.WorkspaceMember
}

func (m *mockMemberRepository) Upsert(ctx context.Context, member *domain.WorkspaceMember) error {
	m.upserts = append(m.upserts, member)
	return nil
}

// mockTokenService encrypts by JSON-marshalling and decrypts by returning the
// stored string, which is enough to drive the protocol end to end.
type mockTokenService struct {
	encrypted  string
	encryptErr error
	decrypted  string
	decryptErr error
}

func (m *mockTokenService) Encrypt(ctx context.Context, data any) (string, error) {
	if m.encryptErr != nil {
		return "", m.encryptErr
	}
	if m.encrypted != "" {
		return m.encrypted, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (m *mockTokenService) Decrypt(ctx context.Context, token string) (string, error) {
	if m.decryptErr != nil {
		return "", m.decryptErr
	}
	if m.decrypted != "" {
		return m.decrypted, nil
	}
	return token, nil
}

func (m *mockTokenService) DecryptToObject(ctx context.Context, token string) (map[string]any, error) {
	plain, err := m.Decrypt(ctx, token)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(plain), &out); err != nil {
		return nil, err
	}
	return out, nil
}

type mockCodeHasher struct {
	compareErr error
}

func (m *mockCodeHasher) Hash(code string) (string, error) { return "hashed:" + code, nil }

func (m *mockCodeHasher) Compare(hash, code string) error {
	if m.compareErr != nil {
		return m.compareErr
	}
	if hash != "hashed:"+code {
		return errors.New("mismatch")
	}
	return nil
}

type mockCredentialGenerator struct{}

func (m *mockCredentialGenerator) InviteCode() (string, error)        { return "123456", nil }
func (m *mockCredentialGenerator) TemporaryPassword() (string, error) { return "TempPass2345", nil }

type mockEmailService struct {
	invitations []*domain.InvitationEmailData
	accounts    []*domain.EmployeeAccountEmailData
	err         error
}

func (m *mockEmailService) SendInvitation(ctx context.Context, data *domain.InvitationEmailData) error {
	if m.err != nil {
		return m.err
	}
	m.invitations = append(m.invitations, data)
	return nil
}

func (m *mockEmailService) SendEmployeeAccount(ctx context.Context, data *domain.EmployeeAccountEmailData) error {
	if m.err != nil {
		return m.err
	}
	m.accounts = append(m.accounts, data)
	return nil
}

type invitationFixture struct {
	invitations *mockInvitationRepository
	employees   *mockEmployeeRepository
	users       *mockUserRepository
	workspaces  *mockWorkspaceRepository
	members     *mockMemberRepository
	tokens      *mockTokenService
	codes       *mockCodeHasher
	emails      *mockEmailService
	svc         domain.InvitationService
}

func newInvitationFixture() *invitationFixture {
	f := &invitationFixture{
		invitations: &mockInvitationRepository{byID: map[string]*domain.Invitation{}, pendingByEmail: map[string]*domain.Invitation{}},
		employees:   &mockEmployeeRepository{byEmailAndWorkspace: map[string]*domain.Employee{}, byUserAndWorkspace: map[string]*domain.Employee{}},
		users:       &mockUserRepository{byEmail: map[string]*domain.User{}},
		workspaces:  &mockWorkspaceRepository{bySlug: map[string]*domain.Workspace{}},
		members:     &mockMemberRepository{},
		tokens:      &mockTokenService{},
		codes:       &mockCodeHasher{},
		emails:      &mockEmailService{},
	}
	f.svc = NewInvitationService(
		f.invitations, f.employees, f.users, f.workspaces, f.members,
		f.tokens, f.codes, &mockCredentialGenerator{}, f.emails,
		"https://app.example.com", nil,
	)
	return f
}

func pendingInvitation(email string) *domain.Invitation {
	expires := time.Now().Add(24 * time.Hour)
	return &domain.Invitation{
		ID:            "inv1",
		WorkspaceID:   "w1",
		Email:         email,
		Code:          "hashed:123456",
		Type:          domain.InviteTypeEmployee,
		Status:        domain.InvitationPending,
		Data:          `{"employeeId":"emp1"}`,
		ExpiresAt:     &expires,
		CreatedAt:     time.Now(),
		WorkspaceName: "Acme",
		WorkspaceSlug: "acme",
	}
}

func TestInvitationService_VerifyInvite(t *testing.T) {
	t.Run("valid code mints token", func(t *testing.T) {
		f := newInvitationFixture()
		inv := pendingInvitation("jane@example.com")
		f.invitations.pendingByEmail["jane@example.com"] = inv
		f.employees.byEmailAndWorkspace["jane@example.com:w1"] = &domain.Employee{ID: "emp1", WorkspaceID: "w1", Email: "jane@example.com"}

		got, err := f.svc.VerifyInvite(context.Background(), "123456", "Jane@Example.com")
		if err != nil {
			t.Fatalf("VerifyInvite() error = %v", err)
		}
		if got.Invitation.ID != "inv1" {
			t.Errorf("invitation ID = %q, want inv1", got.Invitation.ID)
		}
		if got.Employee == nil || got.Employee.ID != "emp1" {
			t.Errorf("employee = %+v, want emp1", got.Employee)
		}
		var payload domain.InvitePayload
		if err := json.Unmarshal([]byte(got.Token), &payload); err != nil {
			t.Fatalf("token payload: %v", err)
		}
		if payload.ID != "inv1" || payload.Email != "jane@example.com" || payload.WorkspaceID != "w1" {
			t.Errorf("payload = %+v", payload)
		}
		if payload.Timestamp <= 0 {
			t.Errorf("payload timestamp = %d, want positive unix millis", payload.Timestamp)
		}
	})

	t.Run("no pending invitation", func(t *testing.T) {
		f := newInvitationFixture()
		_, err := f.svc.VerifyInvite(context.Background(), "123456", "nobody@example.com")
		if !errors.Is(err, domain.ErrInvitationNotFound) {
			t.Errorf("error = %v, want ErrInvitationNotFound", err)
		}
	})

	t.Run("wrong code", func(t *testing.T) {
		f := newInvitationFixture()
		f.invitations.pendingByEmail["jane@example.com"] = pendingInvitation("jane@example.com")
		_, err := f.svc.VerifyInvite(context.Background(), "000000", "jane@example.com")
		if !errors.Is(err, domain.ErrInvalidCode) {
			t.Errorf("error = %v, want ErrInvalidCode", err)
		}
	})

	t.Run("expired invitation is marked EXPIRED lazily", func(t *testing.T) {
		f := newInvitationFixture()
		inv := pendingInvitation("jane@example.com")
		past := time.Now().Add(-time.Minute)
		inv.ExpiresAt = &past
		f.invitations.pendingByEmail["jane@example.com"] = inv

		_, err := f.svc.VerifyInvite(context.Background(), "123456", "jane@example.com")
		if !errors.Is(err, domain.ErrInvitationExpired) {
			t.Fatalf("error = %v, want ErrInvitationExpired", err)
		}
		if got := f.invitations.statusUpdates["inv1"]; got != domain.InvitationExpired {
			t.Errorf("status update = %q, want EXPIRED", got)
		}
	})

	t.Run("no employee record yet is fine", func(t *testing.T) {
		f := newInvitationFixture()
		f.invitations.pendingByEmail["jane@example.com"] = pendingInvitation("jane@example.com")
		got, err := f.svc.VerifyInvite(context.Background(), "123456", "jane@example.com")
		if err != nil {
			t.Fatalf("VerifyInvite() error = %v", err)
		}
		if got.Employee != nil {
			t.Errorf("employee = %+v, want nil", got.Employee)
		}
	})
}

func acceptToken(t *testing.T, payload domain.InvitePayload) string {
	t.Helper()
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return string(b)
}

func TestInvitationService_AcceptInvite(t *testing.T) {
	freshPayload := func() domain.InvitePayload {
		return domain.InvitePayload{
			ID:          "inv1",
			Email:       "jane@example.com",
			WorkspaceID: "w1",
			Type:        domain.InviteTypeEmployee,
			Timestamp:   time.Now().UnixMilli(),
		}
	}

	t.Run("EMPLOYEE accept activates employee and upserts membership", func(t *testing.T) {
		f := newInvitationFixture()
		f.invitations.byID["inv1"] = pendingInvitation("jane@example.com")
		f.users.byEmail["jane@example.com"] = &domain.User{ID: "u1", Email: "jane@example.com"}

		got, err := f.svc.AcceptInvite(context.Background(), acceptToken(t, freshPayload()), "jane@example.com")
		if err != nil {
			t.Fatalf("AcceptInvite() error = %v", err)
		}
		if got.WorkspaceID != "w1" || got.WorkspaceName != "Acme" || got.WorkspaceSlug != "acme" {
			t.Errorf("result = %+v", got)
		}
		if f.invitations.statusUpdates["inv1"] != domain.InvitationAccepted {
			t.Errorf("invitation status = %q, want ACCEPTED", f.invitations.statusUpdates["inv1"])
		}
		if _, ok := f.employees.activated["emp1"]; !ok {
			t.Errorf("employee emp1 not activated")
		}
		if len(f.members.upserts) != 1 {
			t.Fatalf("member upserts = %d, want 1", len(f.members.upserts))
		}
		m := f.members.upserts[0]
		if m.WorkspaceID != "w1" || m.UserID != "u1" || m.Role != domain.RoleMember || m.Status != domain.MemberActive {
			t.Errorf("member = %+v", m)
		}
	})

	t.Run("EMPLOYEE_NEW accept also activates the user", func(t *testing.T) {
		f := newInvitationFixture()
		inv := pendingInvitation("jane@example.com")
		inv.Type = domain.InviteTypeEmployeeNew
		inv.Data = `{"employeeId":"emp1","userId":"u1"}`
		f.invitations.byID["inv1"] = inv
		f.users.byEmail["jane@example.com"] = &domain.User{ID: "u1", Email: "jane@example.com", Status: domain.UserPending}

		p := freshPayload()
		p.Type = domain.InviteTypeEmployeeNew
		if _, err := f.svc.AcceptInvite(context.Background(), acceptToken(t, p), "jane@example.com"); err != nil {
			t.Fatalf("AcceptInvite() error = %v", err)
		}
		if f.employees.activated["emp1"] != "u1" {
			t.Errorf("employee activated with user %q, want u1", f.employees.activated["emp1"])
		}
		if f.users.statusUpdates["u1"] != domain.UserActive {
			t.Errorf("user status = %q, want ACTIVE", f.users.statusUpdates["u1"])
		}
	})

	t.Run("email mismatch leaves state untouched", func(t *testing.T) {
		f := newInvitationFixture()
		f.invitations.byID["inv1"] = pendingInvitation("jane@example.com")
		f.users.byEmail["jane@example.com"] = &domain.User{ID: "u1"}

		_, err := f.svc.AcceptInvite(context.Background(), acceptToken(t, freshPayload()), "other@example.com")
		if !errors.Is(err, domain.ErrEmailMismatch) {
			t.Fatalf("error = %v, want ErrEmailMismatch", err)
		}
		if len(f.invitations.statusUpdates) != 0 {
			t.Errorf("status updates = %v, want none", f.invitations.statusUpdates)
		}
		if len(f.members.upserts) != 0 {
			t.Errorf("member upserts = %d, want 0", len(f.members.upserts))
		}
	})

	t.Run("stale token", func(t *testing.T) {
		f := newInvitationFixture()
		f.invitations.byID["inv1"] = pendingInvitation("jane@example.com")

		p := freshPayload()
		p.Timestamp = time.Now().Add(-2 * time.Hour).UnixMilli()
		_, err := f.svc.AcceptInvite(context.Background(), acceptToken(t, p), "jane@example.com")
		if !errors.Is(err, domain.ErrTokenExpired) {
			t.Errorf("error = %v, want ErrTokenExpired", err)
		}
	})

	t.Run("zero timestamp is treated as expired", func(t *testing.T) {
		f := newInvitationFixture()
		p := freshPayload()
		p.Timestamp = 0
		_, err := f.svc.AcceptInvite(context.Background(), acceptToken(t, p), "jane@example.com")
		if !errors.Is(err, domain.ErrTokenExpired) {
			t.Errorf("error = %v, want ErrTokenExpired", err)
		}
	})

	t.Run("payload without invitation reference is malformed", func(t *testing.T) {
		f := newInvitationFixture()
		_, err := f.svc.AcceptInvite(context.Background(), `{"email":"jane@example.com"}`, "jane@example.com")
		if !errors.Is(err, domain.ErrMalformedToken) {
			t.Errorf("error = %v, want ErrMalformedToken", err)
		}
	})

	t.Run("non-JSON payload is malformed", func(t *testing.T) {
		f := newInvitationFixture()
		_, err := f.svc.AcceptInvite(context.Background(), "not json at all", "jane@example.com")
		if !errors.Is(err, domain.ErrMalformedToken) {
			t.Errorf("error = %v, want ErrMalformedToken", err)
		}
	})

	t.Run("already accepted invitation is not found", func(t *testing.T) {
		f := newInvitationFixture()
		inv := pendingInvitation("jane@example.com")
		inv.Status = domain.InvitationAccepted
		f.invitations.byID["inv1"] = inv
		f.users.byEmail["jane@example.com"] = &domain.User{ID: "u1"}

		_, err := f.svc.AcceptInvite(context.Background(), acceptToken(t, freshPayload()), "jane@example.com")
		if !errors.Is(err, domain.ErrInvitationNotFound) {
			t.Errorf("error = %v, want ErrInvitationNotFound", err)
		}
	})

	t.Run("decrypt failure surfaces unchanged", func(t *testing.T) {
		f := newInvitationFixture()
		f.tokens.decryptErr = domain.ErrDecryptionFailed
		_, err := f.svc.AcceptInvite(context.Background(), "whatever", "jane@example.com")
		if !errors.Is(err, domain.ErrDecryptionFailed) {
			t.Errorf("error = %v, want ErrDecryptionFailed", err)
		}
	})
}

func TestInvitationService_InviteEmployee(t *testing.T) {
	req := func() *domain.EmployeeInvite {
		return &domain.EmployeeInvite{
			FirstName:     "Jane",
			LastName:      "Doe",
			Email:         "Jane@Example.com",
			WorkspaceSlug: "acme",
		}
	}

	t.Run("existing user gets EMPLOYEE invitation", func(t *testing.T) {
		f := newInvitationFixture()
		f.workspaces.bySlug["acme"] = &domain.Workspace{ID: "w1", Name: "Acme", Slug: "acme"}
		f.users.byEmail["jane@example.com"] = &domain.User{ID: "u1", Email: "jane@example.com"}

		emp, err := f.svc.InviteEmployee(context.Background(), req())
		if err != nil {
			t.Fatalf("InviteEmployee() error = %v", err)
		}
		if emp.Status != domain.EmployeePending || emp.Email != "jane@example.com" {
			t.Errorf("employee = %+v", emp)
		}
		if len(f.invitations.created) != 1 {
			t.Fatalf("invitations created = %d, want 1", len(f.invitations.created))
		}
		inv := f.invitations.created[0]
		if inv.Type != domain.InviteTypeEmployee {
			t.Errorf("invitation type = %q, want EMPLOYEE", inv.Type)
		}
		if inv.Code != "hashed:123456" {
			t.Errorf("invitation code = %q, want the hash, not plaintext", inv.Code)
		}
		if inv.ExpiresAt == nil || time.Until(*inv.ExpiresAt) < 6*24*time.Hour {
			t.Errorf("invitation expiry = %v, want ~7 days out", inv.ExpiresAt)
		}
		if len(f.emails.invitations) != 1 {
			t.Fatalf("invitation emails = %d, want 1", len(f.emails.invitations))
		}
		mail := f.emails.invitations[0]
		if mail.InviteCode != "123456" {
			t.Errorf("email code = %q, want plaintext 123456", mail.InviteCode)
		}
		if !strings.HasPrefix(mail.InviteURL, "https://app.example.com/invite?") {
			t.Errorf("invite URL = %q", mail.InviteURL)
		}
		if len(f.users.created) != 0 {
			t.Errorf("users created = %d, want 0", len(f.users.created))
		}
	})

	t.Run("new email gets pending user and EMPLOYEE_NEW invitation", func(t *testing.T) {
		f := newInvitationFixture()
		f.workspaces.bySlug["acme"] = &domain.Workspace{ID: "w1", Name: "Acme", Slug: "acme"}

		if _, err := f.svc.InviteEmployee(context.Background(), req()); err != nil {
			t.Fatalf("InviteEmployee() error = %v", err)
		}
		if len(f.users.created) != 1 {
			t.Fatalf("users created = %d, want 1", len(f.users.created))
		}
		u := f.users.created[0]
		if u.Status != domain.UserPending || u.PasswordHash != "hashed:TempPass2345" {
			t.Errorf("user = %+v", u)
		}
		if len(f.invitations.created) != 1 || f.invitations.created[0].Type != domain.InviteTypeEmployeeNew {
			t.Fatalf("invitations = %+v, want one EMPLOYEE_NEW", f.invitations.created)
		}
		if len(f.emails.accounts) != 1 {
			t.Fatalf("account emails = %d, want 1", len(f.emails.accounts))
		}
		if f.emails.accounts[0].TemporaryPassword != "TempPass2345" {
			t.Errorf("email temp password = %q", f.emails.accounts[0].TemporaryPassword)
		}
	})

	t.Run("unknown workspace slug", func(t *testing.T) {
		f := newInvitationFixture()
		_, err := f.svc.InviteEmployee(context.Background(), req())
		if !errors.Is(err, domain.ErrWorkspaceNotFound) {
			t.Errorf("error = %v, want ErrWorkspaceNotFound", err)
		}
	})

	t.Run("user already employed in workspace", func(t *testing.T) {
		f := newInvitationFixture()
		f.workspaces.bySlug["acme"] = &domain.Workspace{ID: "w1", Name: "Acme", Slug: "acme"}
		f.users.byEmail["jane@example.com"] = &domain.User{ID: "u1"}
		f.employees.byUserAndWorkspace["u1:w1"] = &domain.Employee{ID: "emp1"}

		_, err := f.svc.InviteEmployee(context.Background(), req())
		if !errors.Is(err, domain.ErrEmployeeExists) {
			t.Errorf("error = %v, want ErrEmployeeExists", err)
		}
	})
}
