package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"quest-backend/internal/handlers"
	"quest-backend/internal/models"
	"quest-backend/internal/repository"
	"quest-backend/internal/router"
	"quest-backend/internal/services"
	"quest-backend/internal/websocket"
)

// ─── In-memory repository fakes ───

type fakeSessionRepo struct {
	sessions map[uuid.UUID]*models.GameSession
}

func cloneSession(s *models.GameSession) *models.GameSession {
	c := *s
	c.Inventory = append(models.Inventory{}, s.Inventory...)
	return &c
}

func (f *fakeSessionRepo) Create(ctx context.Context, s *models.GameSession) error {
	s.CreatedAt = time.Now()
	s.Version = 1
	f.sessions[s.SessionID] = cloneSession(s)
	return nil
}

func (f *fakeSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.GameSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneSession(s), nil
}

func (f *fakeSessionRepo) Update(ctx context.Context, s *models.GameSession) error {
	stored, ok := f.sessions[s.SessionID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != s.Version {
		return repository.ErrVersionConflict
	}
	s.Version++
	f.sessions[s.SessionID] = cloneSession(s)
	return nil
}

type fakeContentRepo struct{}

func (fakeContentRepo) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	if taskID != "click_5" {
		return nil, repository.ErrNotFound
	}
	return &models.Task{TaskID: "click_5", RewardCP: 50, TaskType: models.TaskClick, RequiredPhase: models.PhaseWarmup}, nil
}

func (fakeContentRepo) GetStoreItem(ctx context.Context, itemID string) (*models.StoreItem, error) {
	if itemID != "sql_pass" {
		return nil, repository.ErrNotFound
	}
	return &models.StoreItem{ItemID: "sql_pass", Name: "SQL Access Pass", Cost: 100, Effect: models.EffectUnlockSQLGate}, nil
}

func (fakeContentRepo) ActiveChallenge(ctx context.Context) (*models.SqlChallenge, error) {
	return &models.SqlChallenge{
		ChallengeID: "salary_audit",
		SetupScripts: []string{
			"CREATE TABLE employee (id INTEGER PRIMARY KEY, name TEXT, salary INTEGER);",
			"INSERT INTO employee (id, name, salary) VALUES (1, 'Alice', 50000), (2, 'Bob', 70000), (3, 'Charlie', 90000), (4, 'David', 70000), (5, 'Eve', 90000);",
		},
		SolutionQuery: "SELECT DISTINCT salary FROM employee ORDER BY salary DESC LIMIT 1 OFFSET 1",
	}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	sessions := &fakeSessionRepo{sessions: make(map[uuid.UUID]*models.GameSession)}
	game := services.NewGameService(sessions, fakeContentRepo{}, services.NewSqlSandbox(2*time.Second), nil)

	r := router.New(
		handlers.NewSessionHandler(game),
		handlers.NewGameplayHandler(game),
		websocket.NewHub(nil),
		"http://localhost:5173",
	)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

// ─── Full playthrough ───

func TestFullPlaythrough(t *testing.T) {
	srv := newTestServer(t)

	// Start a session.
	status, session := doJSON(t, http.MethodPost, srv.URL+"/session/start", nil)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201 from start, got %d", status)
	}
	id, _ := session["session_id"].(string)
	if id == "" {
		t.Fatal("Missing session_id in start response")
	}
	if session["phase"] != "WARMUP" {
		t.Fatalf("Expected WARMUP, got %v", session["phase"])
	}

	// Earn 100 CP.
	for i := 0; i < 2; i++ {
		status, resp := doJSON(t, http.MethodPost, srv.URL+"/game/"+id+"/complete-task/click_5", nil)
		if status != http.StatusOK {
			t.Fatalf("Expected 200 from complete-task, got %d: %v", status, resp)
		}
	}

	// Buy the gate pass.
	status, resp := doJSON(t, http.MethodPost, srv.URL+"/game/"+id+"/buy/sql_pass", nil)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 from buy, got %d: %v", status, resp)
	}
	if resp["phase"] != "SQL_GATE" {
		t.Errorf("Expected SQL_GATE after purchase, got %v", resp["phase"])
	}
	if resp["remaining_cp"] != float64(0) {
		t.Errorf("Expected 0 CP remaining, got %v", resp["remaining_cp"])
	}

	// Solve the SQL gate.
	status, resp = doJSON(t, http.MethodPost, srv.URL+"/game/"+id+"/sql/validate",
		map[string]string{"query": "SELECT salary FROM employee GROUP BY salary ORDER BY salary DESC LIMIT 1 OFFSET 1"})
	if status != http.StatusOK {
		t.Fatalf("Expected 200 from sql validate, got %d: %v", status, resp)
	}
	if resp["success"] != true {
		t.Fatalf("Expected sql acceptance, got %v", resp)
	}
	if resp["phase"] != "SUDOKU" {
		t.Errorf("Expected SUDOKU after gate, got %v", resp["phase"])
	}

	// Complete the puzzle.
	status, resp = doJSON(t, http.MethodPost, srv.URL+"/game/"+id+"/sudoku/complete", nil)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 from sudoku complete, got %d: %v", status, resp)
	}
	if resp["reward"] != float64(500) {
		t.Errorf("Expected 500 reward, got %v", resp["reward"])
	}

	// Open the vault.
	status, resp = doJSON(t, http.MethodPost, srv.URL+"/game/"+id+"/vault/unlock", nil)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 from vault unlock, got %d: %v", status, resp)
	}
	if resp["phase"] != "CELEBRATION" {
		t.Errorf("Expected CELEBRATION, got %v", resp["phase"])
	}

	// Final snapshot.
	status, snapshot := doJSON(t, http.MethodGet, srv.URL+"/session/"+id, nil)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 from get session, got %d", status)
	}
	if snapshot["phase"] != "CELEBRATION" || snapshot["current_cp"] != float64(0) {
		t.Errorf("Unexpected final state: %v", snapshot)
	}
}

// ─── Error surfaces ───

func TestUnknownSessionIs404(t *testing.T) {
	srv := newTestServer(t)

	status, resp := doJSON(t, http.MethodGet, srv.URL+"/session/"+uuid.NewString(), nil)
	if status != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d: %v", status, resp)
	}

	errBody, _ := resp["error"].(map[string]interface{})
	if errBody["code"] != "NOT_FOUND" {
		t.Errorf("Expected NOT_FOUND code, got %v", errBody)
	}
}

func TestMalformedSessionIDIs400(t *testing.T) {
	srv := newTestServer(t)

	status, _ := doJSON(t, http.MethodGet, srv.URL+"/session/not-a-uuid", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", status)
	}
}

func TestBuyWithoutFundsIs400(t *testing.T) {
	srv := newTestServer(t)

	_, session := doJSON(t, http.MethodPost, srv.URL+"/session/start", nil)
	id := session["session_id"].(string)

	status, resp := doJSON(t, http.MethodPost, srv.URL+"/game/"+id+"/buy/sql_pass", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %v", status, resp)
	}

	errBody, _ := resp["error"].(map[string]interface{})
	if errBody["code"] != "PRECONDITION_FAILED" {
		t.Errorf("Expected PRECONDITION_FAILED code, got %v", errBody)
	}
}

func TestSecuritySubmissionIsGraceful200(t *testing.T) {
	srv := newTestServer(t)

	_, session := doJSON(t, http.MethodPost, srv.URL+"/session/start", nil)
	id := session["session_id"].(string)

	status, resp := doJSON(t, http.MethodPost, srv.URL+"/game/"+id+"/sql/validate",
		map[string]string{"query": "DROP TABLE employee"})
	if status != http.StatusOK {
		t.Fatalf("Security rejections are verdicts, not protocol errors; got %d", status)
	}
	if resp["success"] != false {
		t.Errorf("Expected success=false, got %v", resp["success"])
	}
}

func TestResetEndpoint(t *testing.T) {
	srv := newTestServer(t)

	_, session := doJSON(t, http.MethodPost, srv.URL+"/session/start", nil)
	id := session["session_id"].(string)

	doJSON(t, http.MethodPost, srv.URL+"/game/"+id+"/complete-task/click_5", nil)

	status, reset := doJSON(t, http.MethodPost, srv.URL+"/session/"+id+"/reset", nil)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 from reset, got %d", status)
	}
	if reset["current_cp"] != float64(0) || reset["phase"] != "WARMUP" {
		t.Errorf("Reset did not restore defaults: %v", reset)
	}
	if reset["failed_attempts"] != float64(1) {
		t.Errorf("Expected failed_attempts 1, got %v", reset["failed_attempts"])
	}
	if reset["session_id"] != id {
		t.Error("Reset must preserve the session id")
	}
}
