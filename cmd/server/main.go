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

	"quest-backend/internal/config"
	"quest-backend/internal/database"
	"quest-backend/internal/handlers"
	"quest-backend/internal/repository"
	"quest-backend/internal/router"
	"quest-backend/internal/services"
	"quest-backend/internal/websocket"
)

func main() {
	log.Println("🚀 Starting Quest Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Step 5: Seed Game Content ────
	if err := database.SeedContent(pool); err != nil {
		log.Fatalf("✗ Content seeding failed: %v", err)
	}

	// ──── Initialize Repositories ────
	sessionRepo := repository.NewSessionRepo(pool)
	contentRepo := repository.NewContentRepo(pool)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	tasks, items, challenges, err := contentRepo.Counts(ctx)
	cancel()
	if err != nil {
		log.Fatalf("✗ Content check failed: %v", err)
	}
	log.Printf("✓ Content loaded (%d tasks, %d store items, %d sql challenges)", tasks, items, challenges)

	// ──── Initialize Engine ────
	sandbox := services.NewSqlSandbox(time.Duration(cfg.SandboxTimeoutMS) * time.Millisecond)
	notifier := services.NewRedisSessionNotifier(redisClient)
	gameService := services.NewGameService(sessionRepo, contentRepo, sandbox, notifier)
	log.Println("✓ Game engine initialized")

	// ──── Initialize Handlers ────
	sessionHandler := handlers.NewSessionHandler(gameService)
	gameplayHandler := handlers.NewGameplayHandler(gameService)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClient)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(sessionHandler, gameplayHandler, wsHub, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Quest Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  WS: ws://localhost:%s/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
