package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"mindmosaic-backend/internal/clients"
	"mindmosaic-backend/internal/middleware"
	"mindmosaic-backend/internal/models"
)

type jobSubmitter interface {
	Submit(ctx context.Context, jobType, clientID, referenceID, input string) (*models.Job, error)
}

type AssessmentHandler struct {
	registry *clients.Registry
	jobs     jobSubmitter
}

func NewAssessmentHandler(registry *clients.Registry, jobs jobSubmitter) *AssessmentHandler {
	return &AssessmentHandler{registry: registry, jobs: jobs}
}

func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	flow := h.registry.Get(middleware.GetClientID(r.Context())).Assessment
	writeJSON(w, http.StatusOK, flow.Snapshot())
}

func (h *AssessmentHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req models.SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	flow := h.registry.Get(middleware.GetClientID(r.Context())).Assessment
	if err := flow.Select(req.Option); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flow.Snapshot())
}

// Next records the selected answer. After the last question the flow moves to
// submitting and the suggestion request is queued; the result arrives over the
// WebSocket.
func (h *AssessmentHandler) Next(w http.ResponseWriter, r *http.Request) {
	clientID := middleware.GetClientID(r.Context())
	flow := h.registry.Get(clientID).Assessment

	_, submit, err := flow.Next()
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !submit {
		writeJSON(w, http.StatusOK, flow.Snapshot())
		return
	}

	if _, err := h.jobs.Submit(r.Context(), models.JobTypeAssessment, clientID, "", ""); err != nil {
		log.Printf("[assessment] failed to queue suggestions for %s: %v", clientID, err)
		flow.Complete("", err)
		writeJSON(w, http.StatusOK, flow.Snapshot())
		return
	}
	writeJSON(w, http.StatusAccepted, flow.Snapshot())
}

func (h *AssessmentHandler) Retake(w http.ResponseWriter, r *http.Request) {
	flow := h.registry.Get(middleware.GetClientID(r.Context())).Assessment
	flow.Retake()
	writeJSON(w, http.StatusOK, flow.Snapshot())
}
