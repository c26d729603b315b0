package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quest-backend/internal/models"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrVersionConflict is returned by Update when the session row changed
// since it was loaded. The caller must reload and retry or give up;
// blindly re-applying a debit could double-charge.
var ErrVersionConflict = errors.New("session modified concurrently")

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) Create(ctx context.Context, s *models.GameSession) error {
	query := `
		INSERT INTO game_sessions (session_id, current_cp, phase, inventory, failed_attempts, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, version`

	return r.pool.QueryRow(ctx, query,
		s.SessionID, s.CurrentCP, string(s.Phase), []string(s.Inventory), s.FailedAttempts, s.IsActive,
	).Scan(&s.CreatedAt, &s.Version)
}

func (r *SessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.GameSession, error) {
	s := &models.GameSession{}
	var inventory []string
	var phase string

	query := `SELECT session_id, created_at, current_cp, phase, inventory, failed_attempts, is_active, version
		FROM game_sessions WHERE session_id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.SessionID, &s.CreatedAt, &s.CurrentCP, &phase, &inventory,
		&s.FailedAttempts, &s.IsActive, &s.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s.Phase = models.GamePhase(phase)
	s.Inventory = models.Inventory(inventory)
	return s, nil
}

// Update persists the mutated session with a compare-and-swap on the
// version loaded by GetByID. On success the session carries the new
// version; a stale write returns ErrVersionConflict.
func (r *SessionRepo) Update(ctx context.Context, s *models.GameSession) error {
	query := `
		UPDATE game_sessions
		SET current_cp = $1,
			phase = $2,
			inventory = $3,
			failed_attempts = $4,
			is_active = $5,
			version = version + 1
		WHERE session_id = $6 AND version = $7
		RETURNING version`

	err := r.pool.QueryRow(ctx, query,
		s.CurrentCP, string(s.Phase), []string(s.Inventory), s.FailedAttempts, s.IsActive,
		s.SessionID, s.Version,
	).Scan(&s.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if checkErr := r.pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM game_sessions WHERE session_id = $1)", s.SessionID,
		).Scan(&exists); checkErr != nil {
			return checkErr
		}
		if exists {
			return ErrVersionConflict
		}
		return ErrNotFound
	}
	return err
}
