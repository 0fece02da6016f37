package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hausbuch/backend/internal/services"
)

// BalanceHandler serves balance calculations and saldo checkpoint lookups.
type BalanceHandler struct {
	sessions *services.SessionFactory
}

func NewBalanceHandler(sessions *services.SessionFactory) *BalanceHandler {
	return &BalanceHandler{sessions: sessions}
}

// GetBalances calculates current balances for the requested accounts
// @Summary Calculate account balances
// @Tags balances
// @Produce json
// @Security BearerAuth
// @Param id query []string true "Account IDs"
// @Success 200 {array} models.AccountBalanceInfo
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Router /balances [get]
func (h *BalanceHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", "/balances"))
	defer timer.ObserveDuration()

	session, ok := sessionFromRequest(h.sessions, r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	accountIDs := r.URL.Query()["id"]
	if len(accountIDs) == 0 {
		services.SendErrorResponse(w, "At least one account id is required", http.StatusBadRequest, nil)
		return
	}

	balances, err := session.CalculateBalanceInfo(r.Context(), accountIDs)
	if err != nil {
		httpRequestsTotal.WithLabelValues("GET", "/balances", strconv.Itoa(errorStatus(err))).Inc()
		sendServiceError(w, err)
		return
	}

	httpRequestsTotal.WithLabelValues("GET", "/balances", "200").Inc()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(balances)
}

// GetLastSaldos returns the latest saldo checkpoint entry per account
// @Summary Get last saldo entries
// @Tags balances
// @Produce json
// @Security BearerAuth
// @Param id query []string true "Account IDs"
// @Success 200 {object} map[string]models.AccountBookingEntry
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Router /balances/saldo [get]
func (h *BalanceHandler) GetLastSaldos(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(h.sessions, r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	accountIDs := r.URL.Query()["id"]
	if len(accountIDs) == 0 {
		services.SendErrorResponse(w, "At least one account id is required", http.StatusBadRequest, nil)
		return
	}

	saldos, err := session.GetLastSaldoAccountEntries(r.Context(), accountIDs)
	if err != nil {
		httpRequestsTotal.WithLabelValues("GET", "/balances/saldo", strconv.Itoa(errorStatus(err))).Inc()
		sendServiceError(w, err)
		return
	}

	httpRequestsTotal.WithLabelValues("GET", "/balances/saldo", "200").Inc()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(saldos)
}
