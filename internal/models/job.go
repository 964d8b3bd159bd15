package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobTypeChatReply  = "chat-reply"
	JobTypeAssessment = "assessment-suggestions"
)

// Job is a unit of generative work owned by one visitor's flow.
type Job struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"` // "chat-reply" | "assessment-suggestions"
	ClientID    string    `json:"client_id"`
	ReferenceID string    `json:"reference_id"` // placeholder message id for chat replies
	Input       string    `json:"input,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	WSChatMessageSent     = "chat_message_sent"
	WSChatMessageUpdated  = "chat_message_updated"
	WSAssessmentCompleted = "assessment_completed"
	WSScrollHint          = "scroll_hint"
)

type ChatMessageUpdated struct {
	Message    ChatMessage `json:"message"`
	AutoScroll bool        `json:"auto_scroll"`
	ShowJump   bool        `json:"show_jump"`
}

type ScrollHint struct {
	ShowJump bool `json:"show_jump"`
}

type AssessmentCompleted struct {
	Suggestions []string `json:"suggestions"`
	Error       string   `json:"error,omitempty"`
}

// ErrorResponse is the body of every non-2xx API response. Message is read by the
// login form as the user-visible error string.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}
