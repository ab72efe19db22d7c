package services

import (
	"context"
	"fmt"
	"log/slog"

	"teamo/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	if logger == nil {
		logger = slog.Default()
	}
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendInvitation sends the workspace invitation email using the "invitation" template.
func (s *emailService) SendInvitation(ctx context.Context, data *domain.InvitationEmailData) error {
	if data == nil {
		return fmt.Errorf("invitation email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("invitation", data)
	if err != nil {
		return fmt.Errorf("failed to render invitation template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send invitation email: %w", err)
	}
	s.logger.Info("invitation email sent", "to", data.Email, "workspace", data.Workspace)
	return nil
}

// SendEmployeeAccount sends the new-employee email, including the temporary
// credentials, using the "employee_account" template.
func (s *emailService) SendEmployeeAccount(ctx context.Context, data *domain.EmployeeAccountEmailData) error {
	if data == nil {
		return fmt.Errorf("employee account email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("employee_account", data)
	if err != nil {
		return fmt.Errorf("failed to render employee_account template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send employee account email: %w", err)
	}
	s.logger.Info("employee account email sent", "to", data.Email, "workspace", data.Workspace)
	return nil
}
