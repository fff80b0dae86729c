package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventreservation/internal/adapters/metrics"
	"eventreservation/internal/delivery/http/controllers"
	"eventreservation/internal/delivery/http/helpers"
	"eventreservation/internal/delivery/http/middleware"
	"eventreservation/internal/domain"
)

// Controllers groups the route handlers.
type Controllers struct {
	Auth        *controllers.AuthController
	Event       *controllers.EventController
	Reservation *controllers.ReservationController
}

// RouterOptions holds the cross-cutting pieces the router wraps handlers with.
type RouterOptions struct {
	Logger        *slog.Logger
	Verifier      domain.TokenVerifier
	Metrics       *metrics.Recorder
	PublicLimiter *middleware.RateLimiter
	AdminLimiter  *middleware.RateLimiter
	CORSOrigins   []string
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(c Controllers, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	public := opts.PublicLimiter.Wrap
	requireAuth := middleware.RequireAuth(opts.Verifier, opts.Logger)
	admin := func(next http.HandlerFunc) http.HandlerFunc {
		return requireAuth(opts.AdminLimiter.Wrap(next))
	}

	mux.HandleFunc("GET /health", health)

	// Public
	mux.HandleFunc("GET /events", public(c.Event.ListAvailableEvents))
	mux.HandleFunc("POST /reservations", public(c.Reservation.CreateReservation))
	mux.HandleFunc("GET /events/{eventID}/reservations/{token}", public(c.Reservation.GetPublicReservation))
	mux.HandleFunc("GET /events/{eventID}/reservations/{token}/qrcode", public(c.Reservation.GetReservationQRCode))

	// Auth
	mux.HandleFunc("POST /auth/login", public(c.Auth.Login))
	mux.HandleFunc("GET /auth/status", admin(c.Auth.Status))

	// Admin
	mux.HandleFunc("GET /admin/events", admin(c.Event.ListEventsPage))
	mux.HandleFunc("GET /admin/events/all", admin(c.Event.ListAllEvents))
	mux.HandleFunc("POST /admin/events", admin(c.Event.CreateEvent))
	mux.HandleFunc("GET /admin/events/{eventID}", admin(c.Event.GetEvent))
	mux.HandleFunc("PUT /admin/events/{eventID}", admin(c.Event.UpdateEvent))
	mux.HandleFunc("DELETE /admin/events/{eventID}", admin(c.Event.DeleteEvent))
	mux.HandleFunc("GET /admin/events/{eventID}/reservations", admin(c.Reservation.ListEventReservations))
	mux.HandleFunc("POST /admin/events/{eventID}/reservations/{token}/scan", admin(c.Reservation.ScanReservation))
	mux.HandleFunc("DELETE /admin/reservations/{reservationID}", admin(c.Reservation.DeleteReservation))

	mux.Handle("GET /metrics", opts.Metrics.Handler())

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	var handler http.Handler = mux
	handler = middleware.CORS(opts.CORSOrigins, handler)
	handler = middleware.LoggingMiddleware(opts.Logger, handler)
	handler = opts.Metrics.Instrument(handler)
	return handler
}

func health(w http.ResponseWriter, _ *http.Request) {
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}
