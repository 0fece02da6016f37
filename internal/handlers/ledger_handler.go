package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hausbuch/backend/internal/services"
	"github.com/hausbuch/backend/internal/store"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})

	bookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_bookings_total",
		Help: "Journal entries booked, labeled by outcome",
	}, []string{"outcome"})
)

// sessionFromRequest resolves the authenticated user's ledger session. The
// auth middleware guarantees the userID context value on protected routes.
func sessionFromRequest(factory *services.SessionFactory, r *http.Request) (*services.Session, bool) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		return nil, false
	}
	return factory.ForUser(userID), true
}

// errorStatus maps service and store errors onto HTTP status codes.
func errorStatus(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrSameAccount),
		errors.Is(err, services.ErrInvalidTimeRange),
		errors.Is(err, services.ErrEmptySearchOptions):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrAccountOwnership),
		errors.Is(err, store.ErrAccountTypeOwnership):
		return http.StatusForbidden
	case errors.Is(err, store.ErrDuplicateBookingTime),
		errors.Is(err, store.ErrSaldoFence):
		return http.StatusConflict
	case errors.Is(err, store.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrAccountNotAvailable),
		errors.Is(err, services.ErrAccountTypeNotAvailable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func sendServiceError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		services.SendErrorResponse(w, "An Internal Error Occurred", status, nil)
		return
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		services.SendErrorResponse(w, "Validation failed", status, validationErrs)
		return
	}

	services.SendErrorResponse(w, err.Error(), status, nil)
}
