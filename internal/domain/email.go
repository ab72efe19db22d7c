package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// InvitationEmailData holds data for the workspace invitation email sent to
// an existing user.
type InvitationEmailData struct {
	Email      string
	Name       string
	Workspace  string
	InviteCode string
	InviteURL  string
}

// EmployeeAccountEmailData holds data for the new-employee email, which also
// carries the temporary credentials of the account created for them.
type EmployeeAccountEmailData struct {
	Email             string
	FirstName         string
	LastName          string
	Workspace         string
	InviteCode        string
	InviteURL         string
	TemporaryPassword string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendInvitation(ctx context.Context, data *InvitationEmailData) error
	SendEmployeeAccount(ctx context.Context, data *EmployeeAccountEmailData) error
}
