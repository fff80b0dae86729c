package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"eventreservation/internal/delivery/http/helpers"
	"eventreservation/internal/domain"
)

// CreateReservationRequest is the request body for POST /reservations.
type CreateReservationRequest struct {
	EventID         int64  `json:"event_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	MobileNumber    string `json:"mobile_number"`
	ReservationDate string `json:"reservation_date"` // YYYY-MM-DD
	Address         string `json:"address"`
}

// Validate implements Validator.
func (c CreateReservationRequest) Validate() []string {
	var errs []string
	if c.EventID <= 0 {
		errs = append(errs, "event_id must be a positive integer")
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		errs = append(errs, "name is required")
	} else if utf8.RuneCountInString(name) > maxNameLength {
		errs = append(errs, "name must be at most 100 characters")
	} else if !nameRegex.MatchString(name) {
		errs = append(errs, "name may only contain letters, spaces and ',-.")
	}
	email := strings.TrimSpace(c.Email)
	if email == "" {
		errs = append(errs, "email is required")
	} else if utf8.RuneCountInString(email) > maxEmailLength {
		errs = append(errs, "email must be at most 100 characters")
	} else if !emailRegex.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	if !mobileRegex.MatchString(strings.TrimSpace(c.MobileNumber)) {
		errs = append(errs, "mobile_number must look like 9XX XXX XXXX")
	}
	if _, err := time.Parse(dateLayout, c.ReservationDate); err != nil {
		errs = append(errs, "reservation_date must be YYYY-MM-DD")
	}
	address := storedAddress(c.Address)
	if address == "" {
		errs = append(errs, "address is required")
	} else if utf8.RuneCountInString(address) > maxAddressLength {
		errs = append(errs, "address must be at most 255 characters once < and > are escaped")
	}
	return errs
}

// AdmissionSuccessResponse is the success response envelope for POST /reservations (201).
type AdmissionSuccessResponse struct {
	Data  *domain.Admission `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// PublicReservationSuccessResponse is the success response envelope for the public reservation page.
type PublicReservationSuccessResponse struct {
	Data  *domain.PublicReservationDetails `json:"data"`
	Error *helpers.APIError                `json:"error"`
}

// ReservationPageResponse is one page of an event's reservations.
type ReservationPageResponse struct {
	Items      []*domain.Reservation  `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ReservationPageSuccessResponse is the success response envelope for GET /admin/events/{eventID}/reservations.
type ReservationPageSuccessResponse struct {
	Data  ReservationPageResponse `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// CheckInSuccessResponse is the success response envelope for a scan.
type CheckInSuccessResponse struct {
	Data  *domain.CheckIn   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ReservationSuccessResponse is the success response envelope for a single reservation.
type ReservationSuccessResponse struct {
	Data  *domain.Reservation `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

type ReservationController struct {
	Logger  *slog.Logger
	Service domain.ReservationService
}

func NewReservationController(logger *slog.Logger, svc domain.ReservationService) *ReservationController {
	return &ReservationController{
		Logger:  logger,
		Service: svc,
	}
}

func (c *ReservationController) internalError(w http.ResponseWriter, r *http.Request, err error) {
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal server error")
}

// CreateReservation godoc
// @Summary Reserve a slot
// @Description Reserves one slot of an event for the given email. The email is compared case-insensitively; one reservation per email per event. On success a confirmation email with the reservation link and QR code is sent.
// @Tags reservations
// @Accept json
// @Produce json
// @Param body body CreateReservationRequest true "Reservation data"
// @Success 201 {object} controllers.AdmissionSuccessResponse "data contains event_id, reservation_uuid and reservation_number"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: duplicate_reservation or slots_full"
// @Failure 429 {object} helpers.APIResponse "error.code: too_many_requests"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /reservations [post]
func (c *ReservationController) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	date, _ := time.Parse(dateLayout, req.ReservationDate)
	admission, err := c.Service.AttemptReservation(r.Context(), domain.ReservationRequest{
		EventID:         req.EventID,
		Name:            strings.TrimSpace(req.Name),
		Email:           req.Email,
		MobileNumber:    strings.TrimSpace(req.MobileNumber),
		ReservationDate: date,
		Address:         storedAddress(req.Address),
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		c.internalError(w, r, err)
		return
	}
	switch admission.Outcome {
	case domain.AdmissionDuplicateEmail:
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeDuplicateReservation, "this email already has a reservation for the event")
	case domain.AdmissionSlotsFull:
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeSlotsFull, "no slots left for this event")
	default:
		helpers.WriteJSONSuccess(w, http.StatusCreated, admission)
	}
}

// GetPublicReservation godoc
// @Summary Get a reservation by its token
// @Description Public confirmation page data: the event and the reservation with its current number.
// @Tags reservations
// @Produce json
// @Param eventID path int true "Event ID"
// @Param token path string true "Reservation token (UUID v4)"
// @Success 200 {object} controllers.PublicReservationSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/reservations/{token} [get]
func (c *ReservationController) GetPublicReservation(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	token, ok := pathToken(w, r)
	if !ok {
		return
	}
	details, err := c.Service.GetPublicReservation(r.Context(), eventID, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "reservation not found")
			return
		}
		c.internalError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, details)
}

// GetReservationQRCode godoc
// @Summary Reservation QR code
// @Description PNG QR code encoding the reservation's confirmation URL.
// @Tags reservations
// @Produce png
// @Param eventID path int true "Event ID"
// @Param token path string true "Reservation token (UUID v4)"
// @Success 200 {file} binary
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/reservations/{token}/qrcode [get]
func (c *ReservationController) GetReservationQRCode(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	token, ok := pathToken(w, r)
	if !ok {
		return
	}
	png, err := c.Service.ReservationQRCode(r.Context(), eventID, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "reservation not found")
			return
		}
		c.internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// ListEventReservations godoc
// @Summary List an event's reservations
// @Description Reservations ordered by reservation number, paginated.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param eventID path int true "Event ID"
// @Param page query int false "Page number (1-based)" default(1)
// @Param page_size query int false "Page size (max 100)" default(20)
// @Success 200 {object} controllers.ReservationPageSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/events/{eventID}/reservations [get]
func (c *ReservationController) ListEventReservations(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	reservations, total, err := c.Service.ListEventReservations(r.Context(), eventID, params)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		c.internalError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ReservationPageResponse{
		Items:      reservations,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// ScanReservation godoc
// @Summary Check in a reservation
// @Description Marks the reservation as scanned. Scanning an already scanned reservation succeeds with outcome already_scanned and changes nothing.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param eventID path int true "Event ID"
// @Param token path string true "Reservation token (UUID v4)"
// @Success 200 {object} controllers.CheckInSuccessResponse "data.outcome: newly_scanned or already_scanned"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/events/{eventID}/reservations/{token}/scan [post]
func (c *ReservationController) ScanReservation(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	token, ok := pathToken(w, r)
	if !ok {
		return
	}
	checkIn, err := c.Service.Scan(r.Context(), eventID, token)
	if err != nil {
		c.internalError(w, r, err)
		return
	}
	if checkIn.Outcome == domain.ScanNotFound {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "reservation not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, checkIn)
}

// DeleteReservation godoc
// @Summary Delete a reservation
// @Description Frees the reservation's slot. Numbers of the event's other reservations are recomputed.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param reservationID path int true "Reservation ID"
// @Success 200 {object} controllers.ReservationSuccessResponse "data contains the deleted reservation"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/reservations/{reservationID} [delete]
func (c *ReservationController) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	reservationID, ok := pathID(w, r, "reservationID")
	if !ok {
		return
	}
	deleted, err := c.Service.DeleteReservation(r.Context(), reservationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "reservation not found")
			return
		}
		c.internalError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, deleted)
}
