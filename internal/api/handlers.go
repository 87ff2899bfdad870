/**
 * @description
 * HTTP handlers for the local control surface. Reads are served straight
 * from the session manager's in-memory state; login and registration go
 * through the banking API and then establish the session.
 */
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ALTER-2357/bank-app-thing/internal/app"
	"github.com/ALTER-2357/bank-app-thing/internal/domain"
	"github.com/ALTER-2357/bank-app-thing/pkg/bankclient"
)

// DirectoryClient is the slice of the banking API used to resolve identity
// during login and registration.
type DirectoryClient interface {
	GetUserDetailsByEmail(ctx context.Context, email string) (*bankclient.UserDetails, error)
	Register(ctx context.Context, reg bankclient.Registration) (string, error)
}

// Handler holds the session manager and directory client the routes use.
type Handler struct {
	manager   *app.Manager
	directory DirectoryClient
	logger    *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(manager *app.Manager, directory DirectoryClient, logger *slog.Logger) *Handler {
	return &Handler{manager: manager, directory: directory, logger: logger}
}

type sessionResponse struct {
	PAN             string `json:"pan,omitempty"`
	IsAuthenticated bool   `json:"is_authenticated"`
	RefreshError    string `json:"refresh_error,omitempty"`
}

func (h *Handler) sessionPayload() sessionResponse {
	session := h.manager.CurrentSession()
	payload := sessionResponse{
		PAN:             session.PAN,
		IsAuthenticated: session.IsAuthenticated(),
	}
	if err := h.manager.LastError(); err != nil {
		payload.RefreshError = err.Error()
	}
	return payload
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.sessionPayload())
}

func (h *Handler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	if !h.manager.CurrentSession().IsAuthenticated() {
		respondWithError(w, http.StatusUnauthorized, domain.ErrNoSession.Error())
		return
	}
	snapshot := h.manager.Snapshot()
	if snapshot == nil {
		respondWithError(w, http.StatusNotFound, domain.ErrSnapshotNotFound.Error())
		return
	}

	payload := struct {
		Account      *domain.AccountSnapshot `json:"account"`
		RefreshError string                  `json:"refresh_error,omitempty"`
	}{Account: snapshot}
	if err := h.manager.LastError(); err != nil {
		payload.RefreshError = err.Error()
	}
	respondWithJSON(w, http.StatusOK, payload)
}

type loginRequest struct {
	Email string `json:"email"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		respondWithError(w, http.StatusBadRequest, "email is required")
		return
	}

	details, err := h.directory.GetUserDetailsByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.Warn("login lookup failed", "error", err)
		respondWithError(w, statusForRemoteError(err), err.Error())
		return
	}

	if err := h.manager.EstablishSession(r.Context(), details.PAN); err != nil {
		h.logger.Error("failed to establish session", "error", err)
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, h.sessionPayload())
}

type registerRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Address      string `json:"address"`
	MobileNumber string `json:"mobile_number"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.Email) == "" {
		respondWithError(w, http.StatusBadRequest, "first_name and email are required")
		return
	}

	pan, err := h.directory.Register(r.Context(), bankclient.Registration{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Address:      req.Address,
		MobileNumber: req.MobileNumber,
	})
	if err != nil {
		h.logger.Warn("registration failed", "error", err)
		respondWithError(w, statusForRemoteError(err), err.Error())
		return
	}

	if err := h.manager.EstablishSession(r.Context(), pan); err != nil {
		h.logger.Error("failed to establish session after registration", "error", err)
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, h.sessionPayload())
}

// handleRefresh is the pull-to-refresh / app-foreground hook. A failed
// fetch answers 200 with the stale snapshot and a warning rather than
// dropping the session.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.manager.Reconcile(r.Context())
	switch {
	case err == nil:
		respondWithJSON(w, http.StatusOK, struct {
			Account *domain.AccountSnapshot `json:"account"`
		}{Account: snapshot})
	case errors.Is(err, domain.ErrNoSession):
		respondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrRefreshInFlight):
		respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "refresh already in flight"})
	case errors.Is(err, domain.ErrStaleResponse):
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "session changed; result discarded"})
	default:
		respondWithJSON(w, http.StatusOK, struct {
			Account      *domain.AccountSnapshot `json:"account"`
			RefreshError string                  `json:"refresh_error"`
		}{Account: h.manager.Snapshot(), RefreshError: err.Error()})
	}
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Logout(r.Context()); err != nil {
		h.logger.Error("logout cleanup incomplete", "error", err)
	}
	respondWithJSON(w, http.StatusOK, h.sessionPayload())
}

func (h *Handler) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, struct {
		Events []domain.Event `json:"events"`
	}{Events: h.manager.Events()})
}

// statusForRemoteError maps banking API failures onto control-surface
// status codes without leaking the session.
func statusForRemoteError(err error) int {
	var serverErr *domain.ServerError
	if errors.As(err, &serverErr) {
		if serverErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	}
	var invalidErr *domain.InvalidRequestError
	if errors.As(err, &invalidErr) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

// respondWithJSON writes JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError writes a JSON error message.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
