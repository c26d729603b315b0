package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"quest-backend/internal/handlers"
	"quest-backend/internal/middleware"
	"quest-backend/internal/websocket"
)

func New(
	sessionHandler *handlers.SessionHandler,
	gameplayHandler *handlers.GameplayHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Sandbox runs are the expensive path (30 req/min per IP)
	sqlLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Root status + health check
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Birthday Quest Game Engine Online","status":"active"}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// ──── Session Routes ────
	r.Route("/session", func(r chi.Router) {
		r.Post("/start", sessionHandler.Start)
		r.Get("/{id}", sessionHandler.Get)
		r.Post("/{id}/reset", sessionHandler.Reset)
	})

	// ──── Gameplay Routes ────
	r.Route("/game/{id}", func(r chi.Router) {
		r.Post("/complete-task/{taskID}", gameplayHandler.CompleteTask)
		r.Post("/buy/{itemID}", gameplayHandler.BuyItem)
		r.Post("/sudoku/complete", gameplayHandler.CompleteSudoku)
		r.Post("/vault/unlock", gameplayHandler.UnlockVault)

		r.Group(func(r chi.Router) {
			r.Use(sqlLimiter.Middleware)
			r.Post("/sql/validate", gameplayHandler.ValidateSQL)
		})
	})

	// ──── WebSocket (live session updates) ────
	r.Get("/ws", wsHub.HandleWebSocket)

	return r
}
