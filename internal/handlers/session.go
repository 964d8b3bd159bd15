package handlers

import (
	"encoding/json"
	"net/http"

	"mindmosaic-backend/internal/clients"
	"mindmosaic-backend/internal/middleware"
	"mindmosaic-backend/internal/models"
	"mindmosaic-backend/internal/session"
)

// SessionHandler drives the login/registration form and exposes the
// visitor's session.
type SessionHandler struct {
	sessions *session.Manager
	registry *clients.Registry
}

func NewSessionHandler(sessions *session.Manager, registry *clients.Registry) *SessionHandler {
	return &SessionHandler{sessions: sessions, registry: registry}
}

func (h *SessionHandler) state(r *http.Request) (models.SessionState, *session.Session, error) {
	clientID := middleware.GetClientID(r.Context())
	sess, err := h.sessions.Get(r.Context(), clientID)
	if err != nil {
		return models.SessionState{}, nil, err
	}
	form := h.registry.Get(clientID).AuthForm
	return models.SessionState{
		LoggedIn:   sess.LoggedIn(),
		Username:   sess.Username(),
		Mode:       form.Mode(),
		Submitting: form.Submitting(),
		Error:      form.ErrorMessage(),
	}, sess, nil
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, _, err := h.state(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *SessionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	form := h.registry.Get(middleware.GetClientID(r.Context())).AuthForm
	if err := form.Toggle(); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.Get(w, r)
}

// Submit posts the form for the current mode. On success the response tells
// the browser to navigate home.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.AuthSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	clientID := middleware.GetClientID(r.Context())
	sess, err := h.sessions.Get(r.Context(), clientID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	redirect := ""
	form := h.registry.Get(clientID).AuthForm
	if err := form.Submit(r.Context(), req, sess, func() { redirect = "/" }); err != nil {
		handleServiceError(w, r, err)
		return
	}

	st, _, err := h.state(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	st.Redirect = redirect
	writeJSON(w, http.StatusOK, st)
}

// Logout clears the session and drops the visitor's flows.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	clientID := middleware.GetClientID(r.Context())
	sess, err := h.sessions.Get(r.Context(), clientID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := sess.Logout(r.Context()); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.registry.Forget(clientID)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}
