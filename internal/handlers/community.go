package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mindmosaic-backend/internal/clients"
	"mindmosaic-backend/internal/community"
	"mindmosaic-backend/internal/middleware"
	"mindmosaic-backend/internal/models"
	"mindmosaic-backend/internal/session"
)

type CommunityHandler struct {
	registry    *clients.Registry
	sessions    *session.Manager
	defaultName string
}

func NewCommunityHandler(registry *clients.Registry, sessions *session.Manager, defaultName string) *CommunityHandler {
	return &CommunityHandler{registry: registry, sessions: sessions, defaultName: defaultName}
}

func (h *CommunityHandler) view(r *http.Request) *community.View {
	return h.registry.Get(middleware.GetClientID(r.Context())).Community
}

// displayName is the label for non-anonymous posts: the session username,
// else the configured default.
func (h *CommunityHandler) displayName(r *http.Request) string {
	sess, err := h.sessions.Get(r.Context(), middleware.GetClientID(r.Context()))
	if err == nil && sess.Username() != "" {
		return sess.Username()
	}
	return h.defaultName
}

func (h *CommunityHandler) List(w http.ResponseWriter, r *http.Request) {
	st, err := h.view(r).State(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *CommunityHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	v := h.view(r)
	if req.Anonymous != nil && *req.Anonymous != v.Anonymous() {
		v.ToggleAnonymous()
	}

	post, err := v.SubmitPost(r.Context(), req.Content, h.displayName(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (h *CommunityHandler) ToggleAnonymous(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"anonymous": h.view(r).ToggleAnonymous()})
}

func (h *CommunityHandler) ToggleComments(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	visible := h.view(r).ToggleComments(postID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"post_id": postID, "comments_visible": visible})
}

// OpenReply opens the reply dialog for a post.
func (h *CommunityHandler) OpenReply(w http.ResponseWriter, r *http.Request) {
	post, err := h.view(r).OpenReply(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *CommunityHandler) CloseReply(w http.ResponseWriter, r *http.Request) {
	h.view(r).CloseReply()
	w.WriteHeader(http.StatusNoContent)
}

func (h *CommunityHandler) SubmitReply(w http.ResponseWriter, r *http.Request) {
	var req models.CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	comment, err := h.view(r).SubmitReply(r.Context(), req.Content, h.displayName(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}
