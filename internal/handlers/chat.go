package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"mindmosaic-backend/internal/chat"
	"mindmosaic-backend/internal/clients"
	"mindmosaic-backend/internal/middleware"
	"mindmosaic-backend/internal/models"
	"mindmosaic-backend/internal/session"
	"mindmosaic-backend/internal/websocket"
)

// ChatSendsPerMinute caps chat sends per caller, over HTTP per IP and from the
// keyboard over WebSocket per visitor.
const ChatSendsPerMinute = 30

type ChatHandler struct {
	registry   *clients.Registry
	sessions   *session.Manager
	jobs       jobSubmitter
	keyLimiter *middleware.RateLimiter
}

func NewChatHandler(registry *clients.Registry, sessions *session.Manager, jobs jobSubmitter) *ChatHandler {
	return &ChatHandler{
		registry:   registry,
		sessions:   sessions,
		jobs:       jobs,
		keyLimiter: middleware.NewRateLimiter(ChatSendsPerMinute, time.Minute),
	}
}

// List returns the chat log, greeting the visitor by name the first time a
// username is known.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	clientID := middleware.GetClientID(r.Context())
	conv := h.registry.Get(clientID).Chat

	if sess, err := h.sessions.Get(r.Context(), clientID); err == nil {
		conv.Greet(sess.Username())
	}

	writeJSON(w, http.StatusOK, models.ChatLog{
		Messages: conv.Messages(),
		Pending:  conv.Pending(),
	})
}

// Send appends the message and a placeholder, then queues the reply.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	resp, err := h.send(r.Context(), middleware.GetClientID(r.Context()), req.Message)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (h *ChatHandler) send(ctx context.Context, clientID, text string) (*models.ChatSendResponse, error) {
	conv := h.registry.Get(clientID).Chat

	pending, err := conv.Send(text)
	if err != nil {
		return nil, err
	}

	if _, err := h.jobs.Submit(ctx, models.JobTypeChatReply, clientID, pending.PlaceholderID, pending.UserText); err != nil {
		log.Printf("[chat] failed to queue reply for %s: %v", clientID, err)
		conv.Resolve(pending.PlaceholderID, chat.FallbackReply)
	}

	resp := &models.ChatSendResponse{}
	msgs := conv.Messages()
	for i := range msgs {
		if msgs[i].ID == pending.PlaceholderID {
			resp.Placeholder = msgs[i]
			if i > 0 {
				resp.UserMessage = msgs[i-1]
			}
			break
		}
	}
	return resp, nil
}

// HandleFrame reacts to the chat view's WebSocket frames: scroll position
// reports, the jump-to-bottom button and key presses in the input.
func (h *ChatHandler) HandleFrame(ctx context.Context, clientID string, frame websocket.Frame) *models.WSMessage {
	state := h.registry.Get(clientID)

	switch frame.Type {
	case "scroll":
		state.Viewport.Observe(frame.ScrollTop, frame.ClientHeight, frame.ScrollHeight)
		_, showJump := state.Viewport.OnLogChange()
		return &models.WSMessage{Type: models.WSScrollHint, Payload: models.ScrollHint{ShowJump: showJump}}

	case "jump":
		state.Viewport.JumpToBottom()
		return &models.WSMessage{Type: models.WSScrollHint, Payload: models.ScrollHint{ShowJump: false}}

	case "key":
		if !chat.IsSendKey(frame.Key, frame.Shift) {
			return nil
		}
		sess, err := h.sessions.Get(ctx, clientID)
		if err != nil || !sess.LoggedIn() {
			return nil
		}
		if !h.keyLimiter.Allow(clientID) {
			log.Printf("[chat] keyboard send from %s rate limited", clientID)
			return nil
		}
		resp, err := h.send(ctx, clientID, frame.Text)
		if err != nil {
			return nil
		}
		return &models.WSMessage{Type: models.WSChatMessageSent, Payload: resp}
	}

	return nil
}
