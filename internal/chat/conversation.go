// Package chat holds the companion chat log. Each send appends the user's
// message and a placeholder reply; the placeholder is filled in by id once the
// generative call returns.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mindmosaic-backend/internal/models"
	"mindmosaic-backend/internal/services"
)

const (
	ThinkingMarker = "Thinking..."
	FallbackReply  = "I'm having trouble responding right now. Please try again later."
)

var (
	ErrEmptyMessage       = errors.New("message is empty")
	ErrReplyPending       = errors.New("a reply is still being generated")
	ErrUnknownPlaceholder = errors.New("placeholder not found")
)

var greetings = []string{
	"Hello! I'm your AI mental health companion. How are you feeling today?",
	"I'm here to listen and support you. Feel free to share what's on your mind.",
}

// Pending identifies a placeholder waiting for its reply.
type Pending struct {
	PlaceholderID string
	UserText      string
}

type Conversation struct {
	mu       sync.Mutex
	messages []models.ChatMessage
	pending  string
	greeted  bool
	now      func() time.Time
	newID    func() string
}

func NewConversation() *Conversation {
	c := &Conversation{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, g := range greetings {
		c.messages = append(c.messages, c.message(g, models.SenderAI))
	}
	return c
}

func (c *Conversation) message(content, sender string) models.ChatMessage {
	return models.ChatMessage{ID: c.newID(), Content: content, Sender: sender, Timestamp: c.now()}
}

// Greet appends a personalized greeting the first time a username is known.
func (c *Conversation) Greet(username string) bool {
	if strings.TrimSpace(username) == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.greeted {
		return false
	}
	c.greeted = true
	c.messages = append(c.messages, c.message(fmt.Sprintf("Welcome back, %s! What would you like to talk about?", username), models.SenderAI))
	return true
}

// Send appends the user's message and a thinking placeholder. Blank input
// leaves the log untouched.
func (c *Conversation) Send(text string) (Pending, error) {
	if strings.TrimSpace(text) == "" {
		return Pending{}, ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != "" {
		return Pending{}, ErrReplyPending
	}

	user := c.message(text, models.SenderUser)
	placeholder := c.message(ThinkingMarker, models.SenderAI)
	placeholder.ID = "temp-" + placeholder.ID
	c.messages = append(c.messages, user, placeholder)
	c.pending = placeholder.ID

	return Pending{PlaceholderID: placeholder.ID, UserText: text}, nil
}

// Resolve replaces the content of the placeholder with the given id.
func (c *Conversation) Resolve(placeholderID, content string) (models.ChatMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.messages {
		if c.messages[i].ID == placeholderID {
			c.messages[i].Content = content
			if c.pending == placeholderID {
				c.pending = ""
			}
			return c.messages[i], nil
		}
	}
	return models.ChatMessage{}, ErrUnknownPlaceholder
}

// Reply generates the answer for a pending send and writes it into the
// placeholder, or the fallback text when generation fails.
func (c *Conversation) Reply(ctx context.Context, gen services.Generator, p Pending) (models.ChatMessage, error) {
	content, err := gen.Generate(ctx, BuildPrompt(p.UserText))
	if err != nil {
		log.Printf("[chat] reply for %s failed: %v", p.PlaceholderID, err)
		content = FallbackReply
	}
	return c.Resolve(p.PlaceholderID, content)
}

func (c *Conversation) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != ""
}

func (c *Conversation) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ChatMessage(nil), c.messages...)
}

// Message looks up one entry by id.
func (c *Conversation) Message(id string) (models.ChatMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.messages {
		if m.ID == id {
			return m, true
		}
	}
	return models.ChatMessage{}, false
}
