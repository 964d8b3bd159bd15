package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"mindmosaic-backend/internal/assessment"
	"mindmosaic-backend/internal/authclient"
	"mindmosaic-backend/internal/chat"
	"mindmosaic-backend/internal/clients"
	"mindmosaic-backend/internal/community"
	"mindmosaic-backend/internal/middleware"
	"mindmosaic-backend/internal/models"
	"mindmosaic-backend/internal/repository"
	"mindmosaic-backend/internal/services"
	"mindmosaic-backend/internal/session"
	"mindmosaic-backend/internal/websocket"
)

const testClient = "client-1"

type stubJobs struct {
	mu   sync.Mutex
	jobs []models.Job
	err  error
}

func (s *stubJobs) Submit(ctx context.Context, jobType, clientID, referenceID, input string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	job := models.Job{Type: jobType, ClientID: clientID, ReferenceID: referenceID, Input: input}
	s.jobs = append(s.jobs, job)
	return &job, nil
}

type fixture struct {
	registry *clients.Registry
	sessions *session.Manager
	jobs     *stubJobs
	router   chi.Router
}

// newFixture wires the visitor-facing handlers against an auth backend served
// by a real AuthHandler with in-memory users.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	authSvc := services.NewAuthService(repository.NewMemoryUserRepo(), middleware.NewJWTAuth("test-secret"))
	backend := chi.NewRouter()
	authHandler := NewAuthHandler(authSvc)
	backend.Post("/api/auth/register", authHandler.Register)
	backend.Post("/api/auth/login", authHandler.Login)
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	f := &fixture{
		registry: clients.NewRegistry(
			community.NewBoard(community.NewMemoryStore(community.SeedPosts())),
			authclient.NewClient(srv.URL+"/api", srv.Client()),
		),
		sessions: session.NewManager(session.NewMemoryStorage()),
		jobs:     &stubJobs{},
	}

	sessionHandler := NewSessionHandler(f.sessions, f.registry)
	assessmentHandler := NewAssessmentHandler(f.registry, f.jobs)
	chatHandler := NewChatHandler(f.registry, f.sessions, f.jobs)
	communityHandler := NewCommunityHandler(f.registry, f.sessions, "Community Member")

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.ClientIDKey, testClient)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	r.Get("/api/session", sessionHandler.Get)
	r.Post("/api/session/toggle", sessionHandler.Toggle)
	r.Post("/api/session/submit", sessionHandler.Submit)
	r.Post("/api/session/logout", sessionHandler.Logout)
	r.Get("/api/assessment", assessmentHandler.Get)
	r.Post("/api/assessment/select", assessmentHandler.Select)
	r.Post("/api/assessment/next", assessmentHandler.Next)
	r.Post("/api/assessment/retake", assessmentHandler.Retake)
	r.Get("/api/chat/messages", chatHandler.List)
	r.Post("/api/chat/messages", chatHandler.Send)
	r.Get("/api/community/posts", communityHandler.List)
	r.Post("/api/community/posts", communityHandler.CreatePost)
	r.Post("/api/community/posts/{id}/toggle-comments", communityHandler.ToggleComments)
	r.Post("/api/community/posts/{id}/reply", communityHandler.OpenReply)
	r.Post("/api/community/reply", communityHandler.SubmitReply)
	r.Delete("/api/community/reply", communityHandler.CloseReply)
	r.Post("/api/community/anonymous", communityHandler.ToggleAnonymous)
	f.router = r

	return f
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

// ─── Session & Auth Form ───

func TestSession_RegisterThenLogin(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/session/toggle", nil)
	var st models.SessionState
	decode(t, rr, &st)
	if st.Mode != "register" {
		t.Fatalf("expected register mode, got %q", st.Mode)
	}

	rr = f.do(t, http.MethodPost, "/api/session/submit", models.AuthSubmitRequest{
		Email: "sam@example.com", Password: "calmdown1", Username: "sam",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	decode(t, rr, &st)
	if !st.LoggedIn || st.Username != "sam" || st.Redirect != "/" {
		t.Fatalf("unexpected state after register: %+v", st)
	}

	rr = f.do(t, http.MethodPost, "/api/session/logout", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("logout: %d", rr.Code)
	}
	decode(t, f.do(t, http.MethodGet, "/api/session", nil), &st)
	if st.LoggedIn || st.Mode != "login" {
		t.Fatalf("expected logged out login form, got %+v", st)
	}

	rr = f.do(t, http.MethodPost, "/api/session/submit", models.AuthSubmitRequest{Email: "sam@example.com", Password: "calmdown1"})
	decode(t, rr, &st)
	if !st.LoggedIn || st.Username != "sam" {
		t.Fatalf("login failed: %+v", st)
	}
}

func TestSession_FailedLoginShowsBackendMessage(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/session/submit", models.AuthSubmitRequest{Email: "nobody@example.com", Password: "whatever1"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	var errBody models.ErrorResponse
	decode(t, rr, &errBody)
	if errBody.Message != "Invalid email or password" {
		t.Errorf("unexpected message %q", errBody.Message)
	}

	var st models.SessionState
	decode(t, f.do(t, http.MethodGet, "/api/session", nil), &st)
	if st.LoggedIn || st.Error != "Invalid email or password" {
		t.Fatalf("unexpected state: %+v", st)
	}
}

// ─── Auth Backend ───

func TestAuthHandler_RegisterValidation(t *testing.T) {
	h := NewAuthHandler(services.NewAuthService(repository.NewMemoryUserRepo(), middleware.NewJWTAuth("s")))

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"bad email", `{"email":"nope","password":"longenough1","username":"a"}`, "email"},
		{"short password", `{"email":"a@b.co","password":"x1","username":"a"}`, "password"},
		{"missing username", `{"email":"a@b.co","password":"longenough1"}`, "username"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			h.Register(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			var body models.ErrorResponse
			decode(t, rr, &body)
			if _, ok := body.Fields[tc.field]; !ok {
				t.Errorf("expected field error for %s, got %v", tc.field, body.Fields)
			}
		})
	}
}

func TestAuthHandler_InvalidBody(t *testing.T) {
	h := NewAuthHandler(services.NewAuthService(repository.NewMemoryUserRepo(), middleware.NewJWTAuth("s")))
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
	req.Header.Set("X-Request-ID", "req-1")
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	var body models.ErrorResponse
	decode(t, rr, &body)
	if rr.Code != http.StatusBadRequest || body.Code != "VALIDATION_ERROR" || body.RequestID != "req-1" {
		t.Fatalf("unexpected response %d %+v", rr.Code, body)
	}
}

// ─── Assessment ───

func TestAssessment_LastNextQueuesSuggestions(t *testing.T) {
	f := newFixture(t)

	if rr := f.do(t, http.MethodPost, "/api/assessment/next", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("next without selection: expected 400, got %d", rr.Code)
	}
	if rr := f.do(t, http.MethodPost, "/api/assessment/select", models.SelectRequest{Option: "not an option"}); rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid option: expected 400, got %d", rr.Code)
	}

	var snap models.AssessmentSnapshot
	for i, q := range assessment.Questions {
		f.do(t, http.MethodPost, "/api/assessment/select", models.SelectRequest{Option: q.Options[0]})
		rr := f.do(t, http.MethodPost, "/api/assessment/next", nil)
		want := http.StatusOK
		if i == len(assessment.Questions)-1 {
			want = http.StatusAccepted
		}
		if rr.Code != want {
			t.Fatalf("question %d: expected %d, got %d", q.ID, want, rr.Code)
		}
		decode(t, rr, &snap)
	}

	if snap.State != string(assessment.StateSubmitting) || snap.Quote == "" {
		t.Fatalf("expected submitting with a quote, got %+v", snap)
	}
	if len(f.jobs.jobs) != 1 || f.jobs.jobs[0].Type != models.JobTypeAssessment {
		t.Fatalf("expected one assessment job, got %+v", f.jobs.jobs)
	}

	decode(t, f.do(t, http.MethodPost, "/api/assessment/retake", nil), &snap)
	if snap.State != string(assessment.StateAnswering) || snap.Index != 0 || len(snap.Answers) != 0 {
		t.Fatalf("retake did not reset: %+v", snap)
	}
}

// ─── Chat ───

func TestChat_SendQueuesReply(t *testing.T) {
	f := newFixture(t)

	if rr := f.do(t, http.MethodPost, "/api/chat/messages", models.ChatRequest{Message: "  "}); rr.Code != http.StatusBadRequest {
		t.Fatalf("blank message: expected 400, got %d", rr.Code)
	}

	rr := f.do(t, http.MethodPost, "/api/chat/messages", models.ChatRequest{Message: "I feel anxious"})
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	var sent models.ChatSendResponse
	decode(t, rr, &sent)
	if sent.UserMessage.Content != "I feel anxious" || sent.Placeholder.Content != chat.ThinkingMarker {
		t.Fatalf("unexpected send response %+v", sent)
	}
	if len(f.jobs.jobs) != 1 || f.jobs.jobs[0].ReferenceID != sent.Placeholder.ID || f.jobs.jobs[0].Input != "I feel anxious" {
		t.Fatalf("unexpected job %+v", f.jobs.jobs)
	}

	if rr := f.do(t, http.MethodPost, "/api/chat/messages", models.ChatRequest{Message: "again"}); rr.Code != http.StatusConflict {
		t.Fatalf("second send while pending: expected 409, got %d", rr.Code)
	}

	var log models.ChatLog
	decode(t, f.do(t, http.MethodGet, "/api/chat/messages", nil), &log)
	if !log.Pending || len(log.Messages) != 4 {
		t.Fatalf("unexpected log %+v", log)
	}
}

func TestChat_QueueFailureResolvesWithFallback(t *testing.T) {
	f := newFixture(t)
	f.jobs.err = context.DeadlineExceeded

	rr := f.do(t, http.MethodPost, "/api/chat/messages", models.ChatRequest{Message: "hello"})
	var sent models.ChatSendResponse
	decode(t, rr, &sent)
	if sent.Placeholder.Content != chat.FallbackReply {
		t.Fatalf("expected fallback reply, got %q", sent.Placeholder.Content)
	}
}

func TestChat_HandleFrame(t *testing.T) {
	f := newFixture(t)
	h := NewChatHandler(f.registry, f.sessions, f.jobs)
	ctx := context.Background()

	msg := h.HandleFrame(ctx, testClient, websocket.Frame{Type: "scroll", ScrollTop: 0, ClientHeight: 300, ScrollHeight: 1200})
	if msg == nil || !msg.Payload.(models.ScrollHint).ShowJump {
		t.Fatalf("expected jump hint, got %+v", msg)
	}

	if msg := h.HandleFrame(ctx, testClient, websocket.Frame{Type: "key", Key: "Enter", Text: "hi"}); msg != nil {
		t.Fatal("logged-out visitor must not send from the keyboard")
	}

	sess, _ := f.sessions.Get(ctx, testClient)
	sess.Login(ctx, "token", "sam")

	if msg := h.HandleFrame(ctx, testClient, websocket.Frame{Type: "key", Key: "Enter", Shift: true, Text: "hi"}); msg != nil {
		t.Fatal("shift+enter must not send")
	}
	msg = h.HandleFrame(ctx, testClient, websocket.Frame{Type: "key", Key: "Enter", Text: "hi"})
	if msg == nil || msg.Type != models.WSChatMessageSent {
		t.Fatalf("expected sent message, got %+v", msg)
	}
	if len(f.jobs.jobs) != 1 {
		t.Fatalf("expected a queued reply, got %d", len(f.jobs.jobs))
	}
}

func TestChat_KeyboardSendsAreRateLimited(t *testing.T) {
	f := newFixture(t)
	h := NewChatHandler(f.registry, f.sessions, f.jobs)
	h.keyLimiter = middleware.NewRateLimiter(1, time.Minute)
	ctx := context.Background()

	sess, _ := f.sessions.Get(ctx, testClient)
	sess.Login(ctx, "token", "sam")

	msg := h.HandleFrame(ctx, testClient, websocket.Frame{Type: "key", Key: "Enter", Text: "first"})
	if msg == nil {
		t.Fatal("expected first keyboard send to go through")
	}
	placeholder := msg.Payload.(*models.ChatSendResponse).Placeholder
	if _, err := f.registry.Get(testClient).Chat.Resolve(placeholder.ID, "ok"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if msg := h.HandleFrame(ctx, testClient, websocket.Frame{Type: "key", Key: "Enter", Text: "second"}); msg != nil {
		t.Fatalf("expected second send to be limited, got %+v", msg)
	}
	if len(f.jobs.jobs) != 1 {
		t.Fatalf("expected one queued reply, got %d", len(f.jobs.jobs))
	}
}

// ─── Community ───

func TestCommunity_PostAndReply(t *testing.T) {
	f := newFixture(t)

	anon := true
	rr := f.do(t, http.MethodPost, "/api/community/posts", models.CreatePostRequest{Content: "Hello all", Anonymous: &anon})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	var post models.Post
	decode(t, rr, &post)
	if post.Author != models.AnonymousAuthor {
		t.Errorf("expected anonymous author, got %q", post.Author)
	}

	rr = f.do(t, http.MethodPost, "/api/community/posts", models.CreatePostRequest{Content: "Named"})
	decode(t, rr, &post)
	if post.Author != "Community Member" {
		t.Errorf("expected default display name, got %q", post.Author)
	}

	if rr := f.do(t, http.MethodPost, "/api/community/posts/missing/reply", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if rr := f.do(t, http.MethodPost, "/api/community/reply", models.CommentRequest{Content: "hi"}); rr.Code != http.StatusConflict {
		t.Fatalf("reply without open dialog: expected 409, got %d", rr.Code)
	}

	f.do(t, http.MethodPost, "/api/community/posts/seed-1/reply", nil)
	rr = f.do(t, http.MethodPost, "/api/community/reply", models.CommentRequest{Content: "Same here"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}

	f.do(t, http.MethodPost, "/api/community/posts/seed-1/toggle-comments", nil)
	var st models.CommunityState
	decode(t, f.do(t, http.MethodGet, "/api/community/posts", nil), &st)
	if st.ReplyOpen || st.Anonymous {
		t.Fatalf("dialog and toggle should be reset: %+v", st)
	}
	for _, p := range st.Posts {
		if p.ID == "seed-1" && (p.CommentCount != 3 || !p.CommentsVisible) {
			t.Errorf("expected 3 visible comments on seed-1, got %+v", p)
		}
	}
}
