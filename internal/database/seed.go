package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"quest-backend/internal/models"
)

// SeedContent inserts the game's static content fixtures (tasks, store
// items, SQL challenges) if the corresponding tables are empty. Content
// is read-only at runtime, so re-running on startup is harmless.
func SeedContent(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := seedTasks(ctx, pool); err != nil {
		return fmt.Errorf("failed to seed tasks: %w", err)
	}
	if err := seedStoreItems(ctx, pool); err != nil {
		return fmt.Errorf("failed to seed store items: %w", err)
	}
	if err := seedChallenges(ctx, pool); err != nil {
		return fmt.Errorf("failed to seed sql challenges: %w", err)
	}
	return nil
}

func seedTasks(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM tasks").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tasks := []models.Task{
		{TaskID: "click_1", Description: "Click the button", RewardCP: 10, TaskType: models.TaskClick, RequiredPhase: models.PhaseWarmup},
		{TaskID: "click_5", Description: "Click 5 times quickly", RewardCP: 50, TaskType: models.TaskClick, RequiredPhase: models.PhaseWarmup},
		{TaskID: "guest_name", Description: "Type the guest of honor's name", RewardCP: 40, TaskType: models.TaskInput, RequiredPhase: models.PhaseChallenge},
		{TaskID: "patience_30", Description: "Wait out the 30 second countdown", RewardCP: 25, TaskType: models.TaskWait, RequiredPhase: models.PhaseChallenge},
	}

	for _, t := range tasks {
		_, err := pool.Exec(ctx, `
			INSERT INTO tasks (task_id, description, reward_cp, task_type, required_phase)
			VALUES ($1, $2, $3, $4, $5)
		`, t.TaskID, t.Description, t.RewardCP, t.TaskType, t.RequiredPhase)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedStoreItems(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM store_items").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO store_items (item_id, name, description, cost, effect)
		VALUES ($1, $2, $3, $4, $5)
	`, "sql_pass", "SQL Access Pass", "Unlock the terminal to attempt the final challenge.", 100, models.EffectUnlockSQLGate)
	return err
}

func seedChallenges(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM sql_challenges").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	setup := []string{
		"CREATE TABLE employee (id INTEGER PRIMARY KEY, name TEXT, salary INTEGER);",
		"INSERT INTO employee (id, name, salary) VALUES (1, 'Alice', 50000), (2, 'Bob', 70000), (3, 'Charlie', 90000), (4, 'David', 70000), (5, 'Eve', 90000);",
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO sql_challenges (challenge_id, description, question_text, setup_scripts, solution_query)
		VALUES ($1, $2, $3, $4, $5)
	`,
		"salary_audit",
		"Crack the payroll terminal.",
		"The vault codes are hidden in the payroll records. Find the *second* highest salary in the 'employee' table.",
		setup,
		"SELECT DISTINCT salary FROM employee ORDER BY salary DESC LIMIT 1 OFFSET 1",
	)
	return err
}
