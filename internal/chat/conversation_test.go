package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mindmosaic-backend/internal/models"
	"mindmosaic-backend/internal/services"
)

func TestNewConversation_Greetings(t *testing.T) {
	c := NewConversation()
	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 greetings, got %d", len(msgs))
	}
	for _, m := range msgs {
		if m.Sender != models.SenderAI {
			t.Errorf("greeting from %q", m.Sender)
		}
	}
}

func TestGreet_OnlyOnce(t *testing.T) {
	c := NewConversation()

	if c.Greet("") {
		t.Fatal("blank username must not greet")
	}
	if !c.Greet("sam") {
		t.Fatal("expected personalized greeting")
	}
	if c.Greet("sam") {
		t.Fatal("greeting must be inserted once")
	}

	msgs := c.Messages()
	if len(msgs) != 3 || !strings.Contains(msgs[2].Content, "sam") {
		t.Fatalf("unexpected log: %+v", msgs)
	}
}

func TestSend_BlankInputIsNoop(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		c := NewConversation()
		before := c.Messages()

		if _, err := c.Send(text); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("%q: expected ErrEmptyMessage, got %v", text, err)
		}
		if got := c.Messages(); len(got) != len(before) {
			t.Fatalf("%q: log changed from %d to %d", text, len(before), len(got))
		}
	}
}

func TestSend_AppendsUserAndPlaceholder(t *testing.T) {
	c := NewConversation()
	before := len(c.Messages())

	p, err := c.Send("I feel stressed")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	msgs := c.Messages()
	if len(msgs) != before+2 {
		t.Fatalf("expected %d entries, got %d", before+2, len(msgs))
	}
	user, placeholder := msgs[before], msgs[before+1]
	if user.Sender != models.SenderUser || user.Content != "I feel stressed" {
		t.Errorf("unexpected user entry: %+v", user)
	}
	if placeholder.ID != p.PlaceholderID || placeholder.Content != ThinkingMarker {
		t.Errorf("unexpected placeholder: %+v", placeholder)
	}
	if !c.Pending() {
		t.Error("expected a pending reply")
	}
	if _, err := c.Send("again"); !errors.Is(err, ErrReplyPending) {
		t.Errorf("expected ErrReplyPending, got %v", err)
	}
}

func TestReply_MutatesPlaceholderInPlace(t *testing.T) {
	c := NewConversation()
	p, _ := c.Send("hello")
	afterSend := c.Messages()

	var gotPrompt string
	gen := services.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return "• Take a slow breath", nil
	})

	if _, err := c.Reply(context.Background(), gen, p); err != nil {
		t.Fatalf("reply: %v", err)
	}

	after := c.Messages()
	if len(after) != len(afterSend) {
		t.Fatalf("log length changed: %d -> %d", len(afterSend), len(after))
	}
	changed := 0
	for i := range after {
		if after[i] != afterSend[i] {
			changed++
			if after[i].ID != p.PlaceholderID || after[i].Content != "• Take a slow breath" {
				t.Errorf("unexpected change at %d: %+v", i, after[i])
			}
		}
	}
	if changed != 1 {
		t.Fatalf("expected exactly one mutated entry, got %d", changed)
	}
	if !strings.HasSuffix(gotPrompt, "User: hello\nAI:") {
		t.Errorf("prompt does not end with user text: %q", gotPrompt)
	}
	if c.Pending() {
		t.Error("pending flag not cleared")
	}
}

func TestReply_FailureUsesFallback(t *testing.T) {
	c := NewConversation()
	p, _ := c.Send("hello")
	n := len(c.Messages())

	gen := services.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", services.ErrEmptyResponse
	})

	msg, err := c.Reply(context.Background(), gen, p)
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if msg.Content != FallbackReply {
		t.Fatalf("expected fallback, got %q", msg.Content)
	}
	if len(c.Messages()) != n {
		t.Fatalf("log length changed on failure")
	}
}

func TestResolve_UnknownPlaceholder(t *testing.T) {
	c := NewConversation()
	if _, err := c.Resolve("missing", "x"); !errors.Is(err, ErrUnknownPlaceholder) {
		t.Fatalf("expected ErrUnknownPlaceholder, got %v", err)
	}
}

func TestViewport(t *testing.T) {
	v := NewViewport()
	if auto, jump := v.OnLogChange(); !auto || jump {
		t.Fatalf("fresh viewport should follow the log")
	}

	v.Observe(100, 500, 1000)
	if auto, jump := v.OnLogChange(); auto || !jump {
		t.Fatalf("scrolled up reader should get the jump button")
	}

	v.Observe(485, 500, 1000)
	if auto, _ := v.OnLogChange(); !auto {
		t.Fatalf("within threshold should follow the log")
	}

	v.Observe(0, 500, 1000)
	v.JumpToBottom()
	if auto, _ := v.OnLogChange(); !auto {
		t.Fatalf("jump should re-enable following")
	}
}

func TestIsSendKey(t *testing.T) {
	if !IsSendKey("Enter", false) {
		t.Error("Enter should send")
	}
	if IsSendKey("Enter", true) {
		t.Error("Shift+Enter should not send")
	}
	if IsSendKey("a", false) {
		t.Error("other keys should not send")
	}
}
