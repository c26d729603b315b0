package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"quest-backend/internal/services"
)

type GameplayHandler struct {
	game *services.GameService
}

func NewGameplayHandler(game *services.GameService) *GameplayHandler {
	return &GameplayHandler{game: game}
}

func sessionIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// CompleteTask credits the task's CP reward.
func (h *GameplayHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	completion, err := h.game.CompleteTask(r.Context(), id, chi.URLParam(r, "taskID"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Task completed",
		"new_cp":  completion.NewCP,
	})
}

// BuyItem purchases a store item; the gate pass opens the SQL terminal.
func (h *GameplayHandler) BuyItem(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	purchase, err := h.game.PurchaseItem(r.Context(), id, chi.URLParam(r, "itemID"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	message := fmt.Sprintf("Purchased %s", purchase.Item.Name)
	if purchase.AlreadyOwned {
		message = "Item already owned"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":      message,
		"phase":        purchase.Phase,
		"remaining_cp": purchase.RemainingCP,
	})
}

// ValidateSQL runs the submitted query through the sandbox validator.
// Sandbox rejections come back as success=false, not as HTTP errors, so
// the frontend can render them as terminal output.
func (h *GameplayHandler) ValidateSQL(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	submission, err := h.game.ValidateSqlSubmission(r.Context(), id, req.Query)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": submission.Accepted,
		"message": submission.Message,
		"result":  submission.Result,
		"phase":   submission.Phase,
	})
}

// CompleteSudoku pays out the logic puzzle and opens the vault.
func (h *GameplayHandler) CompleteSudoku(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	completion, err := h.game.CompletePuzzle(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Logic Core Stabilized",
		"reward":  completion.Reward,
		"phase":   completion.Phase,
	})
}

// UnlockVault spends the vault cost and ends the game.
func (h *GameplayHandler) UnlockVault(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	unlock, err := h.game.UnlockVault(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "VAULT OPENED",
		"phase":   unlock.Phase,
	})
}
