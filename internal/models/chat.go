package models

import "time"

const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// ChatMessage represents a single entry in the chat log.
type ChatMessage struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"` // "user" or "ai"
	Timestamp time.Time `json:"timestamp"`
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatSendResponse carries the two entries appended by a send.
type ChatSendResponse struct {
	UserMessage ChatMessage `json:"user_message"`
	Placeholder ChatMessage `json:"placeholder"`
}

// ChatLog is the chat view: the full log and whether a reply is outstanding.
type ChatLog struct {
	Messages []ChatMessage `json:"messages"`
	Pending  bool          `json:"pending"`
}
