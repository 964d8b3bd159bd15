package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"mindmosaic-backend/internal/authclient"
	"mindmosaic-backend/internal/clients"
	"mindmosaic-backend/internal/community"
	"mindmosaic-backend/internal/config"
	"mindmosaic-backend/internal/database"
	"mindmosaic-backend/internal/handlers"
	"mindmosaic-backend/internal/middleware"
	"mindmosaic-backend/internal/repository"
	"mindmosaic-backend/internal/router"
	"mindmosaic-backend/internal/services"
	"mindmosaic-backend/internal/session"
	"mindmosaic-backend/internal/websocket"
	"mindmosaic-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting MindMosaic Backend...")
	ctx := context.Background()

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: PostgreSQL (optional) ────
	var (
		userStore      services.UserStore
		communityStore community.Store
	)
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("✗ PostgreSQL connection failed: %v", err)
		}
		defer pool.Close()
		log.Println("✓ PostgreSQL connected")

		if err := database.RunMigrations(ctx, pool, "migrations"); err != nil {
			log.Fatalf("✗ Database migration failed: %v", err)
		}
		log.Println("✓ Database migrations applied")

		communityRepo := repository.NewCommunityRepo(pool)
		if err := communityRepo.SeedIfEmpty(ctx, community.SeedPosts()); err != nil {
			log.Fatalf("✗ Community seed failed: %v", err)
		}
		userStore = repository.NewUserRepo(pool)
		communityStore = communityRepo
	} else {
		userStore = repository.NewMemoryUserRepo()
		communityStore = community.NewMemoryStore(community.SeedPosts())
		log.Println("✓ DATABASE_URL not set, using in-memory users and community board")
	}

	// ──── Step 3: Redis (optional) ────
	var (
		storage session.Storage
		queue   worker.Queue
		pubsub  *redis.Client
	)
	if cfg.RedisURL != "" {
		redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer redisClients.Close()
		storage = session.NewRedisStorage(redisClients.Data)
		queue = worker.NewRedisQueue(redisClients.Data)
		pubsub = redisClients.PubSub
		log.Println("✓ Redis connected")
	} else {
		storage = session.NewMemoryStorage()
		queue = worker.NewMemoryQueue(256)
		log.Println("✓ REDIS_URL not set, using in-memory sessions and job queue")
	}

	// ──── Step 4: Generative Text Client ────
	var generator services.Generator
	if cfg.GenAIURL != "" {
		generator = services.NewRESTGenerator(cfg.GenAIURL, cfg.GeminiAPIKey, cfg.GenAIRequestStyle, &http.Client{Timeout: 60 * time.Second})
		log.Printf("✓ Generative REST endpoint configured (%s style)", cfg.GenAIRequestStyle)
	} else {
		geminiService, err := services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiConcurrentReqs)
		if err != nil {
			log.Fatalf("✗ Gemini client initialization failed: %v", err)
		}
		defer geminiService.Close()
		generator = geminiService
		if cfg.GeminiAPIKey == "" {
			log.Println("✗ GEMINI_API_KEY not set, chat and suggestions will fail fast")
		} else {
			log.Printf("✓ Gemini client initialized (%s)", cfg.GeminiModel)
		}
	}

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(userStore, jwtAuth)
	sessions := session.NewManager(storage)

	var authBackend authclient.Backend = authclient.NewLocal(authService)
	if cfg.AuthBaseURL != "" {
		authBackend = authclient.NewClient(cfg.AuthBaseURL, &http.Client{Timeout: 15 * time.Second})
		log.Printf("✓ Auth form posting to %s", cfg.AuthBaseURL)
	}
	registry := clients.NewRegistry(community.NewBoard(communityStore), authBackend)

	// ──── Step 5: Start WebSocket Hub ────
	wsHub := websocket.NewHub(pubsub, cfg.FrontendURL)
	log.Println("✓ WebSocket hub started")

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(queue, generator, registry, wsHub, cfg.WorkerCount)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	janitor := clients.NewJanitor(registry, clients.DefaultIdleTimeout, clients.DefaultSweepInterval, sessions.Evict)
	janitor.Start()
	log.Println("✓ Idle visitor janitor started")

	// ──── Initialize Handlers ────
	chatHandler := handlers.NewChatHandler(registry, sessions, workerPool)
	wsHub.OnFrame(chatHandler.HandleFrame)

	h := router.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Session:    handlers.NewSessionHandler(sessions, registry),
		Assessment: handlers.NewAssessmentHandler(registry, workerPool),
		Chat:       chatHandler,
		Community:  handlers.NewCommunityHandler(registry, sessions, cfg.CommunityDisplayName),
	}

	// ──── Step 7: Start HTTP Server ────
	r := router.New(jwtAuth, h, sessions, wsHub, cfg.FrontendURL, cfg.Env == "production")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)

		workerPool.Stop()
		janitor.Stop()
	}()

	log.Printf("✓ MindMosaic Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	<-done
	log.Println("✓ Shutdown complete")
}
