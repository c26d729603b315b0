package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quest-backend/internal/models"
)

// ContentRepo serves the static content tables. Records are loaded by
// identifier and never mutated by the engine.
type ContentRepo struct {
	pool *pgxpool.Pool
}

func NewContentRepo(pool *pgxpool.Pool) *ContentRepo {
	return &ContentRepo{pool: pool}
}

func (r *ContentRepo) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	t := &models.Task{}
	query := `SELECT task_id, description, reward_cp, task_type, required_phase
		FROM tasks WHERE task_id = $1`

	err := r.pool.QueryRow(ctx, query, taskID).Scan(
		&t.TaskID, &t.Description, &t.RewardCP, &t.TaskType, &t.RequiredPhase,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *ContentRepo) GetStoreItem(ctx context.Context, itemID string) (*models.StoreItem, error) {
	item := &models.StoreItem{}
	query := `SELECT item_id, name, description, cost, effect
		FROM store_items WHERE item_id = $1`

	err := r.pool.QueryRow(ctx, query, itemID).Scan(
		&item.ItemID, &item.Name, &item.Description, &item.Cost, &item.Effect,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ActiveChallenge returns the SQL-gate challenge. The content model is
// single-challenge; a multi-challenge pack would key this off the session.
func (r *ContentRepo) ActiveChallenge(ctx context.Context) (*models.SqlChallenge, error) {
	c := &models.SqlChallenge{}
	query := `SELECT challenge_id, description, question_text, setup_scripts, solution_query
		FROM sql_challenges ORDER BY challenge_id LIMIT 1`

	err := r.pool.QueryRow(ctx, query).Scan(
		&c.ChallengeID, &c.Description, &c.QuestionText, &c.SetupScripts, &c.SolutionQuery,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Counts reports how many records each content table holds, used by the
// startup checklist to confirm seeding.
func (r *ContentRepo) Counts(ctx context.Context) (tasks, items, challenges int, err error) {
	if err = r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM tasks").Scan(&tasks); err != nil {
		return
	}
	if err = r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM store_items").Scan(&items); err != nil {
		return
	}
	err = r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM sql_challenges").Scan(&challenges)
	return
}
