package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventreservation/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendReservationConfirmation sends the confirmation email using the "reservation_confirmation" template.
func (s *emailService) SendReservationConfirmation(ctx context.Context, data *domain.ReservationConfirmationEmailData) error {
	if data == nil {
		return fmt.Errorf("reservation confirmation data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("reservation_confirmation", data)
	if err != nil {
		return fmt.Errorf("failed to render reservation_confirmation template: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send reservation confirmation email: %w", err)
	}
	s.logger.InfoContext(ctx, "reservation confirmation sent", "email", data.Email, "reservation_number", data.ReservationNumber)
	return nil
}
