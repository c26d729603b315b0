package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"

	"quest-backend/internal/models"
	"quest-backend/internal/repository"
)

// Reward and cost for the final stretch of the game. Hard-coded on
// purpose: the puzzle pays out exactly what the vault charges.
const (
	puzzleReward = 500
	vaultCost    = 500
)

// SessionRepository is the engine's port to session storage. Update must
// be a version-checked write (repository.ErrVersionConflict on a stale
// session) so concurrent actions on one session cannot lose updates.
type SessionRepository interface {
	Create(ctx context.Context, s *models.GameSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.GameSession, error)
	Update(ctx context.Context, s *models.GameSession) error
}

// ContentRepository loads the static game content by identifier.
type ContentRepository interface {
	GetTask(ctx context.Context, taskID string) (*models.Task, error)
	GetStoreItem(ctx context.Context, itemID string) (*models.StoreItem, error)
	ActiveChallenge(ctx context.Context) (*models.SqlChallenge, error)
}

// SessionNotifier receives a snapshot after every persisted mutation.
type SessionNotifier interface {
	SessionUpdated(ctx context.Context, s *models.GameSession)
}

// GameService is the progression engine: it owns every legal transition
// of a GameSession. Mutating operations follow load → validate → mutate
// → persist; nothing is persisted when a precondition fails.
type GameService struct {
	sessions SessionRepository
	content  ContentRepository
	sandbox  *SqlSandbox
	notifier SessionNotifier
}

func NewGameService(sessions SessionRepository, content ContentRepository, sandbox *SqlSandbox, notifier SessionNotifier) *GameService {
	return &GameService{
		sessions: sessions,
		content:  content,
		sandbox:  sandbox,
		notifier: notifier,
	}
}

// StartSession creates and persists a fresh session.
func (g *GameService) StartSession(ctx context.Context) (*models.GameSession, error) {
	session := models.NewGameSession()
	if err := g.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	g.notify(ctx, session)
	return session, nil
}

// GetSession returns the current session snapshot without side effects.
func (g *GameService) GetSession(ctx context.Context, id uuid.UUID) (*models.GameSession, error) {
	return g.loadSession(ctx, id)
}

// ResetSession returns the session to its starting state, preserving
// identity and bumping the failed-attempts counter.
func (g *GameService) ResetSession(ctx context.Context, id uuid.UUID) (*models.GameSession, error) {
	session, err := g.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	session.ResetProgress()

	if err := g.store(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// TaskCompletion reports the credit applied by CompleteTask.
type TaskCompletion struct {
	TaskID   string
	RewardCP int
	NewCP    int
}

// CompleteTask credits the task's reward. Phase eligibility and one-time
// completion are deliberately not enforced yet; the contract only
// promises the credit.
func (g *GameService) CompleteTask(ctx context.Context, id uuid.UUID, taskID string) (*TaskCompletion, error) {
	session, err := g.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	task, err := g.content.GetTask(ctx, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: "Task not found"}
	}
	if err != nil {
		return nil, err
	}

	session.CurrentCP += task.RewardCP

	if err := g.store(ctx, session); err != nil {
		return nil, err
	}
	return &TaskCompletion{TaskID: task.TaskID, RewardCP: task.RewardCP, NewCP: session.CurrentCP}, nil
}

// Purchase reports the outcome of PurchaseItem.
type Purchase struct {
	Item         *models.StoreItem
	AlreadyOwned bool
	Phase        models.GamePhase
	RemainingCP  int
}

// PurchaseItem debits the item's cost and adds it to the inventory.
// Re-purchasing an owned item is a no-op success, checked before funds
// so the repeat call cannot fail on the balance the first one drained.
// The gate-pass effect advances the session to the SQL gate.
func (g *GameService) PurchaseItem(ctx context.Context, id uuid.UUID, itemID string) (*Purchase, error) {
	session, err := g.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	item, err := g.content.GetStoreItem(ctx, itemID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: "Item not found"}
	}
	if err != nil {
		return nil, err
	}

	if session.Inventory.Has(item.ItemID) {
		return &Purchase{Item: item, AlreadyOwned: true, Phase: session.Phase, RemainingCP: session.CurrentCP}, nil
	}

	if session.CurrentCP < item.Cost {
		return nil, &PreconditionError{Message: "Not enough CP"}
	}

	session.CurrentCP -= item.Cost
	session.Inventory.Add(item.ItemID)

	if item.Effect == models.EffectUnlockSQLGate {
		session.Advance(models.PhaseSQLGate)
	}

	if err := g.store(ctx, session); err != nil {
		return nil, err
	}
	return &Purchase{Item: item, Phase: session.Phase, RemainingCP: session.CurrentCP}, nil
}

// SqlSubmission is the structured verdict on a submitted query.
type SqlSubmission struct {
	Accepted bool
	Message  string
	Result   *QueryResult
	Phase    models.GamePhase
}

// ValidateSqlSubmission judges the player's query against the active
// challenge. The query is always evaluated, but the gate only opens
// when the session is actually standing at it: an accepted answer
// advances SQL_GATE → SUDOKU and nothing else.
func (g *GameService) ValidateSqlSubmission(ctx context.Context, id uuid.UUID, query string) (*SqlSubmission, error) {
	session, err := g.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	challenge, err := g.content.ActiveChallenge(ctx)
	if err != nil {
		// Missing challenge content is a seeding defect, not a player
		// error; fail the attempt without touching the session.
		log.Printf("game: no active sql challenge: %v", err)
		return &SqlSubmission{Message: "Challenge is misconfigured; progress not affected.", Phase: session.Phase}, nil
	}

	verdict := g.sandbox.Validate(ctx, challenge.SetupScripts, challenge.SolutionQuery, strings.TrimSpace(query))

	result := &SqlSubmission{
		Accepted: verdict.Success,
		Message:  verdict.Message,
		Result:   verdict.Result,
		Phase:    session.Phase,
	}

	if verdict.Success && session.Phase == models.PhaseSQLGate {
		session.Advance(models.PhaseSudoku)
		if err := g.store(ctx, session); err != nil {
			return nil, err
		}
		result.Message = "Access Granted: Logic Core Unlocked."
		result.Phase = session.Phase
	}

	return result, nil
}

// PuzzleCompletion reports the payout of CompletePuzzle.
type PuzzleCompletion struct {
	Reward int
	NewCP  int
	Phase  models.GamePhase
}

// CompletePuzzle pays out the logic-puzzle reward and opens the vault
// phase. Only legal from the SUDOKU phase.
func (g *GameService) CompletePuzzle(ctx context.Context, id uuid.UUID) (*PuzzleCompletion, error) {
	session, err := g.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.Phase != models.PhaseSudoku {
		return nil, &PreconditionError{Message: "Invalid Phase"}
	}

	session.CurrentCP += puzzleReward
	session.Advance(models.PhaseVault)

	if err := g.store(ctx, session); err != nil {
		return nil, err
	}
	return &PuzzleCompletion{Reward: puzzleReward, NewCP: session.CurrentCP, Phase: session.Phase}, nil
}

// VaultUnlock reports the terminal transition of UnlockVault.
type VaultUnlock struct {
	Phase       models.GamePhase
	RemainingCP int
}

// UnlockVault spends the vault cost and moves the session to the
// terminal celebration phase.
func (g *GameService) UnlockVault(ctx context.Context, id uuid.UUID) (*VaultUnlock, error) {
	session, err := g.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.Phase != models.PhaseVault {
		return nil, &PreconditionError{Message: "Invalid Phase"}
	}
	if session.CurrentCP < vaultCost {
		return nil, &PreconditionError{Message: "Insufficient Logic Coins"}
	}

	session.CurrentCP -= vaultCost
	session.Advance(models.PhaseCelebration)

	if err := g.store(ctx, session); err != nil {
		return nil, err
	}
	return &VaultUnlock{Phase: session.Phase, RemainingCP: session.CurrentCP}, nil
}

func (g *GameService) loadSession(ctx context.Context, id uuid.UUID) (*models.GameSession, error) {
	session, err := g.sessions.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: "Session not found"}
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (g *GameService) store(ctx context.Context, session *models.GameSession) error {
	err := g.sessions.Update(ctx, session)
	if errors.Is(err, repository.ErrVersionConflict) {
		return &ConflictError{Message: "Session was modified by another request, try again"}
	}
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Message: "Session not found"}
	}
	if err != nil {
		return err
	}
	g.notify(ctx, session)
	return nil
}

func (g *GameService) notify(ctx context.Context, session *models.GameSession) {
	if g.notifier != nil {
		g.notifier.SessionUpdated(ctx, session)
	}
}

// Service errors

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type PreconditionError struct{ Message string }

func (e *PreconditionError) Error() string { return e.Message }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }
