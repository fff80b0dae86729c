package controllers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventreservation/internal/delivery/http/helpers"
	"eventreservation/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "3f8e2a4b-9c1d-4e5f-a6b7-c8d9e0f1a2b3"

// fakeReservationService implements domain.ReservationService for handler tests.
type fakeReservationService struct {
	admission     *domain.Admission
	attemptErr    error
	lastRequest   domain.ReservationRequest
	checkIn       *domain.CheckIn
	scanErr       error
	details       *domain.PublicReservationDetails
	detailsErr    error
	list          []*domain.Reservation
	listTotal     int
	listErr       error
	lastListParam domain.PaginationParams
	deleted       *domain.Reservation
	deleteErr     error
	png           []byte
	pngErr        error
	lastEventID   int64
	lastToken     string
}

func (f *fakeReservationService) AttemptReservation(_ context.Context, req domain.ReservationRequest) (*domain.Admission, error) {
	f.lastRequest = req
	if f.attemptErr != nil {
		return nil, f.attemptErr
	}
	return f.admission, nil
}

func (f *fakeReservationService) Scan(_ context.Context, eventID int64, token string) (*domain.CheckIn, error) {
	f.lastEventID, f.lastToken = eventID, token
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	return f.checkIn, nil
}

func (f *fakeReservationService) GetPublicReservation(_ context.Context, eventID int64, token string) (*domain.PublicReservationDetails, error) {
	f.lastEventID, f.lastToken = eventID, token
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	return f.details, nil
}

func (f *fakeReservationService) ListEventReservations(_ context.Context, eventID int64, params domain.PaginationParams) ([]*domain.Reservation, int, error) {
	f.lastEventID, f.lastListParam = eventID, params
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return f.list, f.listTotal, nil
}

func (f *fakeReservationService) DeleteReservation(_ context.Context, id int64) (*domain.Reservation, error) {
	f.lastEventID = id
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return f.deleted, nil
}

func (f *fakeReservationService) ReservationQRCode(_ context.Context, eventID int64, token string) ([]byte, error) {
	f.lastEventID, f.lastToken = eventID, token
	if f.pngErr != nil {
		return nil, f.pngErr
	}
	return f.png, nil
}

func testReservation(id int64) *domain.Reservation {
	return &domain.Reservation{
		ID:              id,
		EventID:         1,
		Name:            "Juan Dela Cruz",
		Email:           "juan@example.com",
		MobileNumber:    "917 123 4567",
		ReservationDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Address:         "12 Mabini St",
		Token:           testToken,
		Number:          int(id),
	}
}

func reservationBody(overrides map[string]string) string {
	fields := map[string]string{
		"event_id":         `1`,
		"name":             `"Juan Dela Cruz"`,
		"email":            `"Juan@Example.com"`,
		"mobile_number":    `"917 123 4567"`,
		"reservation_date": `"2025-03-01"`,
		"address":          `"12 Mabini St"`,
	}
	for k, v := range overrides {
		fields[k] = v
	}
	parts := make([]string, 0, len(fields))
	for k, v := range fields {
		parts = append(parts, `"`+k+`":`+v)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func TestReservationController_CreateReservation(t *testing.T) {
	admitted := &domain.Admission{Outcome: domain.AdmissionAdmitted, EventID: 1, Token: testToken, Number: 3}

	tests := []struct {
		name           string
		body           string
		admission      *domain.Admission
		fakeErr        error
		wantStatus     int
		wantCode       string
		wantBodySubstr string
	}{
		{name: "admitted", body: reservationBody(nil), admission: admitted, wantStatus: http.StatusCreated},
		{
			name:       "duplicate email",
			body:       reservationBody(nil),
			admission:  &domain.Admission{Outcome: domain.AdmissionDuplicateEmail},
			wantStatus: http.StatusConflict,
			wantCode:   helpers.ErrCodeDuplicateReservation,
		},
		{
			name:       "slots full",
			body:       reservationBody(nil),
			admission:  &domain.Admission{Outcome: domain.AdmissionSlotsFull},
			wantStatus: http.StatusConflict,
			wantCode:   helpers.ErrCodeSlotsFull,
		},
		{name: "unknown event", body: reservationBody(nil), fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: helpers.ErrCodeNotFound},
		{name: "storage failure", body: reservationBody(nil), fakeErr: errors.New("db down"), wantStatus: http.StatusInternalServerError, wantCode: helpers.ErrCodeInternalError},
		{
			name:           "invalid email",
			body:           reservationBody(map[string]string{"email": `"not-an-email"`}),
			wantStatus:     http.StatusBadRequest,
			wantCode:       helpers.ErrCodeBadRequest,
			wantBodySubstr: "invalid email format",
		},
		{
			name:           "invalid name characters",
			body:           reservationBody(map[string]string{"name": `"Juan123"`}),
			wantStatus:     http.StatusBadRequest,
			wantCode:       helpers.ErrCodeBadRequest,
			wantBodySubstr: "name may only contain",
		},
		{
			name:           "invalid mobile number",
			body:           reservationBody(map[string]string{"mobile_number": `"09171234567"`}),
			wantStatus:     http.StatusBadRequest,
			wantCode:       helpers.ErrCodeBadRequest,
			wantBodySubstr: "mobile_number",
		},
		{
			name:           "invalid date",
			body:           reservationBody(map[string]string{"reservation_date": `"03/01/2025"`}),
			wantStatus:     http.StatusBadRequest,
			wantCode:       helpers.ErrCodeBadRequest,
			wantBodySubstr: "reservation_date",
		},
		{
			name:           "address too long",
			body:           reservationBody(map[string]string{"address": `"` + strings.Repeat("a", 256) + `"`}),
			wantStatus:     http.StatusBadRequest,
			wantCode:       helpers.ErrCodeBadRequest,
			wantBodySubstr: "at most 255",
		},
		{
			name:           "address over limit once escaped",
			body:           reservationBody(map[string]string{"address": `"` + strings.Repeat("<", 10) + strings.Repeat("a", 245) + `"`}),
			wantStatus:     http.StatusBadRequest,
			wantCode:       helpers.ErrCodeBadRequest,
			wantBodySubstr: "once < and > are escaped",
		},
		{
			name:       "address at limit",
			body:       reservationBody(map[string]string{"address": `"` + strings.Repeat("a", 255) + `"`}),
			admission:  admitted,
			wantStatus: http.StatusCreated,
		},
		{
			name:           "name too long",
			body:           reservationBody(map[string]string{"name": `"` + strings.Repeat("a", 101) + `"`}),
			wantStatus:     http.StatusBadRequest,
			wantCode:       helpers.ErrCodeBadRequest,
			wantBodySubstr: "name must be at most 100",
		},
		{
			name:           "email too long",
			body:           reservationBody(map[string]string{"email": `"` + strings.Repeat("a", 90) + `@example.com"`}),
			wantStatus:     http.StatusBadRequest,
			wantCode:       helpers.ErrCodeBadRequest,
			wantBodySubstr: "email must be at most 100",
		},
		{
			name:           "missing event id",
			body:           reservationBody(map[string]string{"event_id": `0`}),
			wantStatus:     http.StatusBadRequest,
			wantCode:       helpers.ErrCodeBadRequest,
			wantBodySubstr: "event_id",
		},
		{
			name:           "unknown field rejected",
			body:           reservationBody(map[string]string{"scanned": `true`}),
			wantStatus:     http.StatusBadRequest,
			wantCode:       helpers.ErrCodeBadRequest,
			wantBodySubstr: "unknown field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeReservationService{admission: tt.admission, attemptErr: tt.fakeErr}
			ctrl := NewReservationController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			ctrl.CreateReservation(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusCreated {
				var got domain.Admission
				decodeEnvelope(t, rr, &got)
				assert.Equal(t, *admitted, got)
				return
			}
			envelope := decodeEnvelope(t, rr, nil)
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tt.wantCode, envelope.Error.Code)
			if tt.wantBodySubstr != "" {
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
		})
	}
}

func TestReservationController_CreateReservation_NormalizesInput(t *testing.T) {
	fake := &fakeReservationService{admission: &domain.Admission{Outcome: domain.AdmissionAdmitted, EventID: 1, Token: testToken, Number: 1}}
	ctrl := NewReservationController(testLogger, fake)
	body := reservationBody(map[string]string{
		"name":    `"  María O'Neil  "`,
		"address": `"<b>12</b> Mabini St"`,
	})
	req := httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	ctrl.CreateReservation(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	got := fake.lastRequest
	assert.Equal(t, int64(1), got.EventID)
	assert.Equal(t, "María O'Neil", got.Name)
	assert.Equal(t, "Juan@Example.com", got.Email, "email normalization belongs to the service")
	assert.Equal(t, "&lt;b&gt;12&lt;/b&gt; Mabini St", got.Address)
	assert.True(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).Equal(got.ReservationDate))
}

func TestReservationController_CreateReservation_escapedAddressFitsColumn(t *testing.T) {
	// each "<" is stored as "&lt;", so this escapes to exactly 255 characters
	address := strings.Repeat("<", 5) + strings.Repeat("a", 235)
	fake := &fakeReservationService{admission: &domain.Admission{Outcome: domain.AdmissionAdmitted, EventID: 1, Token: testToken, Number: 1}}
	ctrl := NewReservationController(testLogger, fake)
	req := httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewBufferString(reservationBody(map[string]string{"address": `"` + address + `"`})))
	rr := httptest.NewRecorder()

	ctrl.CreateReservation(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Len(t, fake.lastRequest.Address, maxAddressLength)
	assert.True(t, strings.HasPrefix(fake.lastRequest.Address, "&lt;&lt;"))
}

func TestReservationController_GetPublicReservation(t *testing.T) {
	details := &domain.PublicReservationDetails{
		Event:       testEvent(1),
		Reservation: testReservation(2).Public(),
	}

	tests := []struct {
		name       string
		eventID    string
		token      string
		fakeErr    error
		wantStatus int
		wantCode   string
	}{
		{name: "success", eventID: "1", token: testToken, wantStatus: http.StatusOK},
		{name: "upper case token accepted", eventID: "1", token: strings.ToUpper(testToken), wantStatus: http.StatusOK},
		{name: "invalid token", eventID: "1", token: "not-a-uuid", wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "invalid event id", eventID: "x", token: testToken, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "not found", eventID: "1", token: testToken, fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: helpers.ErrCodeNotFound},
		{name: "service error", eventID: "1", token: testToken, fakeErr: errors.New("db down"), wantStatus: http.StatusInternalServerError, wantCode: helpers.ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeReservationService{details: details, detailsErr: tt.fakeErr}
			ctrl := NewReservationController(testLogger, fake)
			req := httptest.NewRequest(http.MethodGet, "/events/"+tt.eventID+"/reservations/"+tt.token, nil)
			req.SetPathValue("eventID", tt.eventID)
			req.SetPathValue("token", tt.token)
			rr := httptest.NewRecorder()

			ctrl.GetPublicReservation(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				var got domain.PublicReservationDetails
				decodeEnvelope(t, rr, &got)
				require.NotNil(t, got.Reservation)
				assert.Equal(t, 2, got.Reservation.Number)
				assert.Equal(t, testToken, fake.lastToken, "token is lowercased")
				assert.NotContains(t, rr.Body.String(), "scanned")
				return
			}
			envelope := decodeEnvelope(t, rr, nil)
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tt.wantCode, envelope.Error.Code)
		})
	}
}

func TestReservationController_GetReservationQRCode(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fake := &fakeReservationService{png: []byte("\x89PNG fake")}
		ctrl := NewReservationController(testLogger, fake)
		req := httptest.NewRequest(http.MethodGet, "/events/1/reservations/"+testToken+"/qrcode", nil)
		req.SetPathValue("eventID", "1")
		req.SetPathValue("token", testToken)
		rr := httptest.NewRecorder()

		ctrl.GetReservationQRCode(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
		assert.Equal(t, "\x89PNG fake", rr.Body.String())
		assert.Equal(t, int64(1), fake.lastEventID)
	})

	t.Run("not found", func(t *testing.T) {
		fake := &fakeReservationService{pngErr: domain.ErrNotFound}
		ctrl := NewReservationController(testLogger, fake)
		req := httptest.NewRequest(http.MethodGet, "/events/1/reservations/"+testToken+"/qrcode", nil)
		req.SetPathValue("eventID", "1")
		req.SetPathValue("token", testToken)
		rr := httptest.NewRecorder()

		ctrl.GetReservationQRCode(rr, req)

		require.Equal(t, http.StatusNotFound, rr.Code)
		envelope := decodeEnvelope(t, rr, nil)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, helpers.ErrCodeNotFound, envelope.Error.Code)
	})
}

func TestReservationController_ListEventReservations(t *testing.T) {
	tests := []struct {
		name       string
		fakeErr    error
		wantStatus int
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "unknown event", fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "service error", fakeErr: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeReservationService{
				list:      []*domain.Reservation{testReservation(1), testReservation(2)},
				listTotal: 2,
				listErr:   tt.fakeErr,
			}
			ctrl := NewReservationController(testLogger, fake)
			req := httptest.NewRequest(http.MethodGet, "/admin/events/5/reservations?page_size=500", nil)
			req.SetPathValue("eventID", "5")
			rr := httptest.NewRecorder()

			ctrl.ListEventReservations(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, int64(5), fake.lastEventID)
			if tt.wantStatus != http.StatusOK {
				return
			}
			assert.Equal(t, domain.PaginationParams{Page: 1, PageSize: helpers.MaxPageSize}, fake.lastListParam)
			var page ReservationPageResponse
			decodeEnvelope(t, rr, &page)
			require.Len(t, page.Items, 2)
			assert.Equal(t, 1, page.Items[0].Number)
			assert.Equal(t, 2, page.Pagination.Total)
			assert.Equal(t, 1, page.Pagination.TotalPages)
		})
	}
}

func TestReservationController_ScanReservation(t *testing.T) {
	tests := []struct {
		name        string
		checkIn     *domain.CheckIn
		fakeErr     error
		wantStatus  int
		wantOutcome domain.ScanOutcome
	}{
		{
			name:        "newly scanned",
			checkIn:     &domain.CheckIn{Outcome: domain.ScanNewlyScanned, Event: testEvent(1), Reservation: testReservation(1)},
			wantStatus:  http.StatusOK,
			wantOutcome: domain.ScanNewlyScanned,
		},
		{
			name:        "already scanned",
			checkIn:     &domain.CheckIn{Outcome: domain.ScanAlreadyScanned, Event: testEvent(1), Reservation: testReservation(1)},
			wantStatus:  http.StatusOK,
			wantOutcome: domain.ScanAlreadyScanned,
		},
		{name: "not found", checkIn: &domain.CheckIn{Outcome: domain.ScanNotFound}, wantStatus: http.StatusNotFound},
		{name: "service error", fakeErr: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeReservationService{checkIn: tt.checkIn, scanErr: tt.fakeErr}
			ctrl := NewReservationController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/admin/events/1/reservations/"+testToken+"/scan", nil)
			req.SetPathValue("eventID", "1")
			req.SetPathValue("token", testToken)
			rr := httptest.NewRecorder()

			ctrl.ScanReservation(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus != http.StatusOK {
				envelope := decodeEnvelope(t, rr, nil)
				require.NotNil(t, envelope.Error)
				return
			}
			var got domain.CheckIn
			decodeEnvelope(t, rr, &got)
			assert.Equal(t, tt.wantOutcome, got.Outcome)
			require.NotNil(t, got.Reservation)
			assert.Equal(t, testToken, got.Reservation.Token)
		})
	}
}

func TestReservationController_DeleteReservation(t *testing.T) {
	tests := []struct {
		name       string
		pathID     string
		fakeErr    error
		wantStatus int
	}{
		{name: "success", pathID: "4", wantStatus: http.StatusOK},
		{name: "invalid id", pathID: "0", wantStatus: http.StatusBadRequest},
		{name: "not found", pathID: "4", fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "service error", pathID: "4", fakeErr: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeReservationService{deleted: testReservation(4), deleteErr: tt.fakeErr}
			ctrl := NewReservationController(testLogger, fake)
			req := httptest.NewRequest(http.MethodDelete, "/admin/reservations/"+tt.pathID, nil)
			req.SetPathValue("reservationID", tt.pathID)
			rr := httptest.NewRecorder()

			ctrl.DeleteReservation(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				var got domain.Reservation
				decodeEnvelope(t, rr, &got)
				assert.Equal(t, int64(4), got.ID)
				assert.Equal(t, int64(4), fake.lastEventID)
			}
		})
	}
}
