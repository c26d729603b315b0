package models

import (
	"time"

	"github.com/google/uuid"
)

// GamePhase is the session's position in the fixed progression order.
// The wire values match what the frontend renders against.
type GamePhase string

const (
	PhaseWarmup      GamePhase = "WARMUP"
	PhaseChallenge   GamePhase = "CHALLENGE"
	PhaseSQLGate     GamePhase = "SQL_GATE"
	PhaseSudoku      GamePhase = "SUDOKU"
	PhaseVault       GamePhase = "VAULT"
	PhaseCelebration GamePhase = "CELEBRATION"
)

// phaseRank fixes the total order used for the forward-only invariant.
var phaseRank = map[GamePhase]int{
	PhaseWarmup:      0,
	PhaseChallenge:   1,
	PhaseSQLGate:     2,
	PhaseSudoku:      3,
	PhaseVault:       4,
	PhaseCelebration: 5,
}

// Valid reports whether p is a known phase.
func (p GamePhase) Valid() bool {
	_, ok := phaseRank[p]
	return ok
}

// Before reports whether p comes strictly before other in the progression.
func (p GamePhase) Before(other GamePhase) bool {
	return phaseRank[p] < phaseRank[other]
}

// Inventory is the set of owned item IDs. Uniqueness is enforced by Add;
// the underlying slice keeps JSON and Postgres TEXT[] mappings natural.
type Inventory []string

// Has reports whether the item is owned.
func (inv Inventory) Has(itemID string) bool {
	for _, id := range inv {
		if id == itemID {
			return true
		}
	}
	return false
}

// Add inserts the item, no-op if already owned. Reports whether it was added.
func (inv *Inventory) Add(itemID string) bool {
	if inv.Has(itemID) {
		return false
	}
	*inv = append(*inv, itemID)
	return true
}

// GameSession is the sole mutable entity of the game engine.
type GameSession struct {
	SessionID      uuid.UUID `json:"session_id"`
	CreatedAt      time.Time `json:"created_at"`
	CurrentCP      int       `json:"current_cp"`
	Phase          GamePhase `json:"phase"`
	Inventory      Inventory `json:"inventory"`
	FailedAttempts int       `json:"failed_attempts"`
	IsActive       bool      `json:"is_active"`

	// Version backs the repository's compare-and-swap write; it is not
	// part of the API surface.
	Version int64 `json:"-"`
}

// NewGameSession returns a session with gameplay defaults applied.
func NewGameSession() *GameSession {
	return &GameSession{
		SessionID: uuid.New(),
		CurrentCP: 0,
		Phase:     PhaseWarmup,
		Inventory: Inventory{},
		IsActive:  true,
	}
}

// Advance moves the session forward to target. Regressions are ignored so
// the observed phase sequence stays non-decreasing; reports whether the
// phase changed.
func (s *GameSession) Advance(target GamePhase) bool {
	if !s.Phase.Before(target) {
		return false
	}
	s.Phase = target
	return true
}

// ResetProgress reinitializes gameplay fields while preserving identity.
// Each reset bumps the failed-attempts counter.
func (s *GameSession) ResetProgress() {
	s.CurrentCP = 0
	s.Phase = PhaseWarmup
	s.Inventory = Inventory{}
	s.FailedAttempts++
}
