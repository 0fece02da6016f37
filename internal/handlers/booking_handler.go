package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hausbuch/backend/internal/models"
	"github.com/hausbuch/backend/internal/services"
)

// BookingHandler serves the journal endpoints: booking insertion, journal
// and per-account listings, receipts and pacs.008 export.
type BookingHandler struct {
	sessions *services.SessionFactory
	receipts *services.ReceiptService
	exports  *services.ExportService
}

func NewBookingHandler(sessions *services.SessionFactory, receipts *services.ReceiptService, exports *services.ExportService) *BookingHandler {
	return &BookingHandler{sessions: sessions, receipts: receipts, exports: exports}
}

// InsertBooking books a new journal entry
// @Summary Insert booking entry
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.BookingRequest true "Booking request"
// @Success 201 {object} models.BookingResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /bookings [post]
func (h *BookingHandler) InsertBooking(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/bookings"))
	defer timer.ObserveDuration()

	session, ok := sessionFromRequest(h.sessions, r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.BookingRequest
	if !decodeJSONBody(w, r, &req) {
		bookingsTotal.WithLabelValues("rejected").Inc()
		return
	}

	result, err := session.InsertBookingEntry(r.Context(), req)
	if err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/bookings", strconv.Itoa(errorStatus(err))).Inc()
		bookingsTotal.WithLabelValues("rejected").Inc()
		sendServiceError(w, err)
		return
	}

	httpRequestsTotal.WithLabelValues("POST", "/bookings", "201").Inc()
	bookingsTotal.WithLabelValues("booked").Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}

// ListJournal lists journal entries in an optional time window
// @Summary List journal entries
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param from query string false "Window start (RFC 3339, inclusive)"
// @Param till query string false "Window end (RFC 3339, inclusive)"
// @Success 200 {array} models.JournalEntry
// @Failure 400 {object} services.ErrorResponse
// @Router /journal [get]
func (h *BookingHandler) ListJournal(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(h.sessions, r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	from, ok := parseTimeParam(w, r, "from")
	if !ok {
		return
	}
	till, ok := parseTimeParam(w, r, "till")
	if !ok {
		return
	}

	entries, err := session.ListJournalEntries(r.Context(), from, till)
	if err != nil {
		httpRequestsTotal.WithLabelValues("GET", "/journal", strconv.Itoa(errorStatus(err))).Inc()
		sendServiceError(w, err)
		return
	}

	httpRequestsTotal.WithLabelValues("GET", "/journal", "200").Inc()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// SearchBookings lists per-account booking entries by search options
// @Summary Search account booking entries
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body []models.BookingSearchOption true "Search options"
// @Success 200 {array} models.AccountBookingEntry
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Router /bookings/search [post]
func (h *BookingHandler) SearchBookings(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(h.sessions, r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var opts []models.BookingSearchOption
	if !decodeJSONBody(w, r, &opts) {
		return
	}

	entries, err := session.ListAccountBookingEntries(r.Context(), opts)
	if err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/bookings/search", strconv.Itoa(errorStatus(err))).Inc()
		sendServiceError(w, err)
		return
	}

	httpRequestsTotal.WithLabelValues("POST", "/bookings/search", "200").Inc()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// GetReceipt renders the QR receipt for a journal entry
// @Summary Get booking receipt
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param journalID path string true "Journal entry ID"
// @Success 200 {object} services.Receipt
// @Failure 404 {object} services.ErrorResponse
// @Router /journal/{journalID}/receipt [get]
func (h *BookingHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(h.sessions, r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	journalID := chi.URLParam(r, "journalID")

	entries, err := session.ListJournalEntries(r.Context(), nil, nil)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	var entry *models.JournalEntry
	for i := range entries {
		if entries[i].ID == journalID {
			entry = &entries[i]
			break
		}
	}
	if entry == nil {
		services.SendErrorResponse(w, "Journal entry not found", http.StatusNotFound, nil)
		return
	}

	receipt, err := h.receipts.GenerateReceipt(r.Context(), *entry)
	if err != nil {
		log.Printf("[BOOKING] Receipt generation failed for %s: %v", journalID, err)
		services.SendErrorResponse(w, "Failed to generate receipt", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(receipt)
}

// ExportJournal exports journal entries as a pacs.008 document
// @Summary Export journal entries as ISO 20022 pacs.008
// @Tags bookings
// @Produce xml
// @Security BearerAuth
// @Param from query string false "Window start (RFC 3339, inclusive)"
// @Param till query string false "Window end (RFC 3339, inclusive)"
// @Success 200 {string} string "pacs.008 XML document"
// @Failure 400 {object} services.ErrorResponse
// @Router /journal/export [get]
func (h *BookingHandler) ExportJournal(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(h.sessions, r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	from, ok := parseTimeParam(w, r, "from")
	if !ok {
		return
	}
	till, ok := parseTimeParam(w, r, "till")
	if !ok {
		return
	}

	entries, err := session.ListJournalEntries(r.Context(), from, till)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	accounts, err := session.ListAccounts(r.Context(), nil)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	titles := make(map[string]string, len(accounts))
	for _, account := range accounts {
		titles[account.ID] = account.Title
	}

	xmlData, err := h.exports.ExportJournalEntries(entries, titles)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	httpRequestsTotal.WithLabelValues("GET", "/journal/export", "200").Inc()
	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xmlData))
}

// parseTimeParam reads an optional RFC 3339 query parameter. On a malformed
// value it writes the error response and returns false.
func parseTimeParam(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		services.SendErrorResponse(w, "Invalid "+name+" parameter, expected RFC 3339 timestamp", http.StatusBadRequest, nil)
		return nil, false
	}

	return &parsed, true
}
