package models

// TaskType classifies how a task is completed in the browser.
type TaskType string

const (
	TaskClick  TaskType = "CLICK"
	TaskInput  TaskType = "INPUT"
	TaskWait   TaskType = "WAIT"
	TaskPuzzle TaskType = "PUZZLE"
)

// EffectUnlockSQLGate is the store-item effect tag that opens the SQL
// terminal phase when the item is purchased.
const EffectUnlockSQLGate = "unlock_phase_3"

// Task is a static content record: completing it credits CP.
type Task struct {
	TaskID        string    `json:"task_id"`
	Description   string    `json:"description"`
	RewardCP      int       `json:"reward_cp"`
	TaskType      TaskType  `json:"task_type"`
	RequiredPhase GamePhase `json:"required_phase"`
}

// StoreItem is a purchasable unlock. Effect is a tag interpreted by the
// engine once, at purchase time.
type StoreItem struct {
	ItemID      string `json:"item_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        int    `json:"cost"`
	Effect      string `json:"effect"`
}

// SqlChallenge describes the SQL-gate puzzle: setup scripts build an
// ephemeral dataset and the solution query defines the correct answer.
// The solution never leaves the server.
type SqlChallenge struct {
	ChallengeID   string   `json:"challenge_id"`
	Description   string   `json:"description"`
	QuestionText  string   `json:"question_text"`
	SetupScripts  []string `json:"setup_scripts"`
	SolutionQuery string   `json:"-"`
}
