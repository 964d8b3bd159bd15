package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"mindmosaic-backend/internal/middleware"
	"mindmosaic-backend/internal/models"
)

const testClient = "6f1c2a1e-8a39-4a52-9a47-1d0b6b1f0c11"

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(middleware.ClientID(false)(http.HandlerFunc(hub.HandleWebSocket)))
	t.Cleanup(srv.Close)

	header := http.Header{}
	header.Set("Cookie", middleware.ClientCookie+"="+testClient)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.Connections(testClient) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection was not registered")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return ws
}

func TestHub_PublishReachesLocalConnection(t *testing.T) {
	hub := NewHub(nil, "")
	ws := dial(t, hub)

	err := hub.Publish(context.Background(), testClient, models.WSMessage{
		Type:    models.WSAssessmentCompleted,
		Payload: models.AssessmentCompleted{Suggestions: []string{"Rest"}},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got struct {
		Type    string                     `json:"type"`
		Payload models.AssessmentCompleted `json:"payload"`
	}
	if err := ws.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Type != models.WSAssessmentCompleted || got.Payload.Suggestions[0] != "Rest" {
		t.Fatalf("unexpected message %+v", got)
	}
}

func TestHub_FrameReplyGoesToSender(t *testing.T) {
	hub := NewHub(nil, "")
	frames := make(chan Frame, 1)
	hub.OnFrame(func(ctx context.Context, clientID string, f Frame) *models.WSMessage {
		if clientID != testClient {
			t.Errorf("unexpected client %s", clientID)
		}
		frames <- f
		return &models.WSMessage{Type: models.WSScrollHint, Payload: models.ScrollHint{ShowJump: true}}
	})
	ws := dial(t, hub)

	if err := ws.WriteJSON(Frame{Type: "scroll", ScrollTop: 10, ClientHeight: 100, ScrollHeight: 900}); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case f := <-frames:
		if f.Type != "scroll" || f.ScrollHeight != 900 {
			t.Errorf("unexpected frame %+v", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("frame not delivered")
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg map[string]interface{}
	json.Unmarshal(data, &msg)
	if msg["type"] != models.WSScrollHint {
		t.Errorf("unexpected reply %s", data)
	}
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	hub := NewHub(nil, "http://localhost:5173")
	srv := httptest.NewServer(middleware.ClientID(false)(http.HandlerFunc(hub.HandleWebSocket)))
	defer srv.Close()

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", resp)
	}
}
