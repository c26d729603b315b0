package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"quest-backend/internal/models"
)

// RedisSessionNotifier publishes session snapshots to the per-session
// redis channel the websocket hub relays to browsers. Publishing is
// best-effort: a failed notification never fails the gameplay action.
type RedisSessionNotifier struct {
	client *redis.Client
}

func NewRedisSessionNotifier(client *redis.Client) *RedisSessionNotifier {
	return &RedisSessionNotifier{client: client}
}

// SessionChannel names the pub/sub channel for one session.
func SessionChannel(sessionID string) string {
	return "session_updates:" + sessionID
}

func (n *RedisSessionNotifier) SessionUpdated(ctx context.Context, s *models.GameSession) {
	payload, err := json.Marshal(map[string]any{
		"type":    "session_update",
		"session": s,
	})
	if err != nil {
		return
	}

	if err := n.client.Publish(ctx, SessionChannel(s.SessionID.String()), payload).Err(); err != nil {
		log.Printf("failed to publish session update for %s: %v", s.SessionID, err)
	}
}
