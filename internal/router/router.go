package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"mindmosaic-backend/internal/guard"
	"mindmosaic-backend/internal/handlers"
	"mindmosaic-backend/internal/middleware"
	"mindmosaic-backend/internal/session"
	"mindmosaic-backend/internal/websocket"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Session    *handlers.SessionHandler
	Assessment *handlers.AssessmentHandler
	Chat       *handlers.ChatHandler
	Community  *handlers.CommunityHandler
}

// SessionResolver finds the session of the visitor making the request.
func SessionResolver(sessions *session.Manager) guard.Resolver {
	return func(r *http.Request) (guard.Checker, error) {
		sess, err := sessions.Get(r.Context(), middleware.GetClientID(r.Context()))
		if err != nil {
			return nil, err
		}
		return sess, nil
	}
}

func New(
	jwtAuth *middleware.JWTAuth,
	h Handlers,
	sessions *session.Manager,
	wsHub *websocket.Hub,
	frontendURL string,
	secureCookies bool,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))
	r.Use(middleware.ClientID(secureCookies))

	// 10 req/min per IP on credentials, 30 on chat sends
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	chatLimiter := middleware.NewRateLimiter(handlers.ChatSendsPerMinute, time.Minute)

	requireLogin := guard.Middleware(SessionResolver(sessions))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {

		// ──── Auth Backend ────
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter.Middleware).Post("/register", h.Auth.Register)
			r.With(authLimiter.Middleware).Post("/login", h.Auth.Login)
			r.With(jwtAuth.Middleware).Get("/me", h.Auth.Me)
		})

		// ──── Session & Auth Form ────
		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.Session.Get)
			r.Post("/toggle", h.Session.Toggle)
			r.With(authLimiter.Middleware).Post("/submit", h.Session.Submit)
			r.Post("/logout", h.Session.Logout)
		})

		// ──── Assessment ────
		r.Route("/assessment", func(r chi.Router) {
			r.Get("/", h.Assessment.Get)
			r.Post("/select", h.Assessment.Select)
			r.Post("/next", h.Assessment.Next)
			r.Post("/retake", h.Assessment.Retake)
		})

		// ──── Chat (guarded) ────
		r.Route("/chat", func(r chi.Router) {
			r.Use(requireLogin)
			r.Get("/messages", h.Chat.List)
			r.With(chatLimiter.Middleware).Post("/messages", h.Chat.Send)
		})

		// ──── Community (guarded) ────
		r.Route("/community", func(r chi.Router) {
			r.Use(requireLogin)
			r.Get("/posts", h.Community.List)
			r.Post("/posts", h.Community.CreatePost)
			r.Post("/posts/{id}/toggle-comments", h.Community.ToggleComments)
			r.Post("/posts/{id}/reply", h.Community.OpenReply)
			r.Post("/reply", h.Community.SubmitReply)
			r.Delete("/reply", h.Community.CloseReply)
			r.Post("/anonymous", h.Community.ToggleAnonymous)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
