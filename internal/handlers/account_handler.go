package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/hausbuch/backend/internal/models"
	"github.com/hausbuch/backend/internal/services"
)

// AccountHandler serves the chart-of-accounts configuration endpoints.
type AccountHandler struct {
	sessions *services.SessionFactory
}

func NewAccountHandler(sessions *services.SessionFactory) *AccountHandler {
	return &AccountHandler{sessions: sessions}
}

// ListAccountTypes lists the user's account types
// @Summary List account types
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.AccountType
// @Failure 401 {object} services.ErrorResponse
// @Router /account-types [get]
func (h *AccountHandler) ListAccountTypes(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(h.sessions, r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	accountTypes, err := session.ListAccountTypes(r.Context())
	if err != nil {
		httpRequestsTotal.WithLabelValues("GET", "/account-types", strconv.Itoa(errorStatus(err))).Inc()
		sendServiceError(w, err)
		return
	}

	httpRequestsTotal.WithLabelValues("GET", "/account-types", "200").Inc()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accountTypes)
}

// UpsertAccountType creates or updates an account type
// @Summary Upsert account type
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.AccountType true "Account type"
// @Success 200 {object} models.AccountType
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Router /account-types [put]
func (h *AccountHandler) UpsertAccountType(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(h.sessions, r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.AccountType
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := session.UpsertAccountType(r.Context(), req); err != nil {
		httpRequestsTotal.WithLabelValues("PUT", "/account-types", strconv.Itoa(errorStatus(err))).Inc()
		sendServiceError(w, err)
		return
	}

	httpRequestsTotal.WithLabelValues("PUT", "/account-types", "200").Inc()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(req)
}

// ListAccounts lists the user's accounts, optionally filtered by id
// @Summary List accounts
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param id query []string false "Account IDs to filter by"
// @Success 200 {array} models.Account
// @Failure 401 {object} services.ErrorResponse
// @Router /accounts [get]
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(h.sessions, r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	idFilter := r.URL.Query()["id"]

	accounts, err := session.ListAccounts(r.Context(), idFilter)
	if err != nil {
		httpRequestsTotal.WithLabelValues("GET", "/accounts", strconv.Itoa(errorStatus(err))).Inc()
		sendServiceError(w, err)
		return
	}

	httpRequestsTotal.WithLabelValues("GET", "/accounts", "200").Inc()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accounts)
}

// UpsertAccount creates or updates an account
// @Summary Upsert account
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.Account true "Account"
// @Success 200 {object} models.Account
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /accounts [put]
func (h *AccountHandler) UpsertAccount(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(h.sessions, r)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.Account
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := session.UpsertAccount(r.Context(), req); err != nil {
		httpRequestsTotal.WithLabelValues("PUT", "/accounts", strconv.Itoa(errorStatus(err))).Inc()
		sendServiceError(w, err)
		return
	}

	httpRequestsTotal.WithLabelValues("PUT", "/accounts", "200").Inc()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(req)
}

// decodeJSONBody decodes a single JSON object request body into dst. On
// failure it writes the error response and returns false.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	return true
}
