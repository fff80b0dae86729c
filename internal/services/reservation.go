package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"eventreservation/internal/domain"
)

type reservationService struct {
	reservationRepo domain.ReservationRepository
	eventRepo       domain.EventRepository
	emailService    domain.EmailService
	tokens          domain.TokenGenerator
	qr              domain.QRCodeEncoder
	metrics         domain.ReservationMetrics
	logger          *slog.Logger
	frontendURL     string
	publicAPIURL    string
	contextTimeout  time.Duration
}

func NewReservationService(
	reservationRepo domain.ReservationRepository,
	eventRepo domain.EventRepository,
	emailService domain.EmailService,
	tokens domain.TokenGenerator,
	qr domain.QRCodeEncoder,
	metrics domain.ReservationMetrics,
	logger *slog.Logger,
	frontendURL, publicAPIURL string,
	timeout time.Duration,
) domain.ReservationService {
	return &reservationService{
		reservationRepo: reservationRepo,
		eventRepo:       eventRepo,
		emailService:    emailService,
		tokens:          tokens,
		qr:              qr,
		metrics:         metrics,
		logger:          logger,
		frontendURL:     strings.TrimSuffix(frontendURL, "/"),
		publicAPIURL:    strings.TrimSuffix(publicAPIURL, "/"),
		contextTimeout:  timeout,
	}
}

// confirmationURL is the public page a reservation's QR code points at.
func (s *reservationService) confirmationURL(eventID int64, token string) string {
	q := url.Values{}
	q.Set("event_id", fmt.Sprint(eventID))
	q.Set("reservation_id", token)
	return s.frontendURL + "/reserve-details?" + q.Encode()
}

func (s *reservationService) qrCodeURL(eventID int64, token string) string {
	return fmt.Sprintf("%s/events/%d/reservations/%s/qrcode", s.publicAPIURL, eventID, url.PathEscape(token))
}

// AttemptReservation admits one reservation request. Duplicate and full rejections are
// reported through Admission.Outcome; an error means the attempt did not complete.
// The admission runs detached from ctx cancellation so a client that goes away cannot
// leave it half applied.
func (s *reservationService) AttemptReservation(ctx context.Context, req domain.ReservationRequest) (*domain.Admission, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.contextTimeout)
	defer cancel()

	res := &domain.Reservation{
		EventID:         req.EventID,
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		MobileNumber:    strings.TrimSpace(req.MobileNumber),
		ReservationDate: req.ReservationDate,
		Address:         strings.TrimSpace(req.Address),
		Token:           s.tokens.NewToken(),
	}

	outcome, err := s.reservationRepo.Admit(ctx, res)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("admit reservation: %w", err)
	}
	s.metrics.ObserveAdmission(outcome)
	if outcome != domain.AdmissionAdmitted {
		s.logger.InfoContext(ctx, "reservation rejected", "event_id", res.EventID, "outcome", outcome)
		return &domain.Admission{Outcome: outcome}, nil
	}

	admission := &domain.Admission{
		Outcome: domain.AdmissionAdmitted,
		EventID: res.EventID,
		Token:   res.Token,
	}
	numbered, err := s.reservationRepo.GetNumbered(ctx, res.EventID, res.Token)
	if err != nil {
		// the reservation is committed; the confirmation page recomputes the number
		s.logger.WarnContext(ctx, "reservation number lookup failed", "event_id", res.EventID, "err", err)
	} else {
		admission.Number = numbered.Number
	}

	err = s.emailService.SendReservationConfirmation(ctx, &domain.ReservationConfirmationEmailData{
		Email:             res.Email,
		Name:              res.Name,
		URL:               s.confirmationURL(res.EventID, res.Token),
		QRCodeURL:         s.qrCodeURL(res.EventID, res.Token),
		ReservationDate:   res.ReservationDate,
		ReservationNumber: admission.Number,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "reservation confirmation email failed", "event_id", res.EventID, "err", err)
	}

	return admission, nil
}

// Scan checks in the reservation identified by token. Scanning twice is harmless and
// reports ScanAlreadyScanned.
func (s *reservationService) Scan(ctx context.Context, eventID int64, token string) (*domain.CheckIn, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	flipped, err := s.reservationRepo.MarkScanned(ctx, eventID, token)
	if err != nil {
		return nil, fmt.Errorf("mark scanned: %w", err)
	}
	res, err := s.reservationRepo.GetNumbered(ctx, eventID, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.ObserveCheckIn(domain.ScanNotFound)
			return &domain.CheckIn{Outcome: domain.ScanNotFound}, nil
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.ObserveCheckIn(domain.ScanNotFound)
			return &domain.CheckIn{Outcome: domain.ScanNotFound}, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	outcome := domain.ScanAlreadyScanned
	if flipped {
		outcome = domain.ScanNewlyScanned
	}
	s.metrics.ObserveCheckIn(outcome)
	return &domain.CheckIn{Outcome: outcome, Event: event, Reservation: res}, nil
}

func (s *reservationService) GetPublicReservation(ctx context.Context, eventID int64, token string) (*domain.PublicReservationDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	res, err := s.reservationRepo.GetNumbered(ctx, eventID, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return &domain.PublicReservationDetails{Event: event, Reservation: res.Public()}, nil
}

func (s *reservationService) ListEventReservations(ctx context.Context, eventID int64, params domain.PaginationParams) ([]*domain.Reservation, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get event: %w", err)
	}
	reservations, total, err := s.reservationRepo.ListByEventID(ctx, eventID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations: %w", err)
	}
	if reservations == nil {
		reservations = []*domain.Reservation{}
	}
	return reservations, total, nil
}

func (s *reservationService) DeleteReservation(ctx context.Context, id int64) (*domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	res, err := s.reservationRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("delete reservation: %w", err)
	}
	s.logger.InfoContext(ctx, "reservation deleted", "reservation_id", res.ID, "event_id", res.EventID)
	return res, nil
}

// ReservationQRCode renders the confirmation URL of an existing reservation as a PNG.
func (s *reservationService) ReservationQRCode(ctx context.Context, eventID int64, token string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.reservationRepo.GetNumbered(ctx, eventID, token); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	png, err := s.qr.EncodePNG(s.confirmationURL(eventID, token))
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
