package domain

import (
	"context"
	"time"
)

// Reservation is a slot held by one person for an event.
// Number is derived from the event's current reservations and is never stored.
// swagger:model Reservation
type Reservation struct {
	ID              int64     `json:"reservation_id"`
	EventID         int64     `json:"event_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	MobileNumber    string    `json:"mobile_number"`
	ReservationDate time.Time `json:"reservation_date"`
	Address         string    `json:"address"`
	Scanned         bool      `json:"scanned"`
	Token           string    `json:"reservation_uuid"`
	Number          int       `json:"reservation_number"`
}

// PublicReservation is the view of a reservation shown on the public confirmation page.
// It carries neither the internal id nor the scanned flag.
// swagger:model PublicReservation
type PublicReservation struct {
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	MobileNumber    string    `json:"mobile_number"`
	ReservationDate time.Time `json:"reservation_date"`
	Address         string    `json:"address"`
	Number          int       `json:"reservation_number"`
}

// Public returns the public view of r.
func (r *Reservation) Public() *PublicReservation {
	return &PublicReservation{
		Name:            r.Name,
		Email:           r.Email,
		MobileNumber:    r.MobileNumber,
		ReservationDate: r.ReservationDate,
		Address:         r.Address,
		Number:          r.Number,
	}
}

// ReservationRequest holds the caller-validated input of an admission attempt.
type ReservationRequest struct {
	EventID         int64
	Name            string
	Email           string
	MobileNumber    string
	ReservationDate time.Time
	Address         string
}

// AdmissionOutcome is the result kind of an admission attempt.
type AdmissionOutcome string

const (
	AdmissionAdmitted       AdmissionOutcome = "admitted"
	AdmissionDuplicateEmail AdmissionOutcome = "duplicate_email"
	AdmissionSlotsFull      AdmissionOutcome = "slots_full"
)

// Admission is the result of an admission attempt. EventID, Token and Number are only
// set when Outcome is AdmissionAdmitted.
// swagger:model Admission
type Admission struct {
	Outcome AdmissionOutcome `json:"outcome"`
	EventID int64            `json:"event_id,omitempty"`
	Token   string           `json:"reservation_uuid,omitempty"`
	Number  int              `json:"reservation_number,omitempty"`
}

// ScanOutcome is the result kind of a check-in.
type ScanOutcome string

const (
	ScanNewlyScanned   ScanOutcome = "newly_scanned"
	ScanAlreadyScanned ScanOutcome = "already_scanned"
	ScanNotFound       ScanOutcome = "not_found"
)

// CheckIn is the result of scanning a reservation token. Event and Reservation are nil
// when Outcome is ScanNotFound.
// swagger:model CheckIn
type CheckIn struct {
	Outcome     ScanOutcome  `json:"outcome"`
	Event       *Event       `json:"event,omitempty"`
	Reservation *Reservation `json:"reservation,omitempty"`
}

// PublicReservationDetails bundles the event and public reservation view for the confirmation page.
// swagger:model PublicReservationDetails
type PublicReservationDetails struct {
	Event       *Event             `json:"event"`
	Reservation *PublicReservation `json:"reservation"`
}

// ReservationRepository defines storage operations for reservations.
type ReservationRepository interface {
	// Admit atomically checks the duplicate rule and the event's capacity and inserts res.
	// res.Email must already be normalized and res.Token set. On AdmissionAdmitted res.ID is set.
	// Returns ErrNotFound when the event does not exist.
	Admit(ctx context.Context, res *Reservation) (AdmissionOutcome, error)
	// GetNumbered returns the reservation with its current number, or ErrNotFound.
	GetNumbered(ctx context.Context, eventID int64, token string) (*Reservation, error)
	// ListByEventID returns one page of numbered reservations and the event's total count.
	ListByEventID(ctx context.Context, eventID int64, params PaginationParams) ([]*Reservation, int, error)
	// MarkScanned flips scanned to true. It reports false when no unscanned reservation matched.
	MarkScanned(ctx context.Context, eventID int64, token string) (bool, error)
	Delete(ctx context.Context, id int64) (*Reservation, error)
}

// TokenGenerator produces globally unique opaque reservation tokens.
type TokenGenerator interface {
	NewToken() string
}

// QRCodeEncoder renders content as a PNG QR code.
type QRCodeEncoder interface {
	EncodePNG(content string) ([]byte, error)
}

// ReservationMetrics observes admission and check-in outcomes.
type ReservationMetrics interface {
	ObserveAdmission(outcome AdmissionOutcome)
	ObserveCheckIn(outcome ScanOutcome)
}

// ReservationService defines the public and admin reservation operations.
type ReservationService interface {
	AttemptReservation(ctx context.Context, req ReservationRequest) (*Admission, error)
	Scan(ctx context.Context, eventID int64, token string) (*CheckIn, error)
	GetPublicReservation(ctx context.Context, eventID int64, token string) (*PublicReservationDetails, error)
	ListEventReservations(ctx context.Context, eventID int64, params PaginationParams) ([]*Reservation, int, error)
	DeleteReservation(ctx context.Context, id int64) (*Reservation, error)
	ReservationQRCode(ctx context.Context, eventID int64, token string) ([]byte, error)
}
