package domain

import (
	"context"
	"time"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// ReservationConfirmationEmailData holds data for the reservation confirmation email.
type ReservationConfirmationEmailData struct {
	Email             string
	Name              string
	URL               string
	QRCodeURL         string
	ReservationDate   time.Time
	ReservationNumber int
}

// FormattedDate returns the reservation date as shown in the email, e.g. "Mon, Jan 2, 2006".
func (d *ReservationConfirmationEmailData) FormattedDate() string {
	return d.ReservationDate.Format("Mon, Jan 2, 2006")
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendReservationConfirmation(ctx context.Context, data *ReservationConfirmationEmailData) error
}
