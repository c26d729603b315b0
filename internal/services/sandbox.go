package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"reflect"
	"regexp"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// QueryResult captures the column names and row values produced by one
// sandbox execution. Rows preserve execution order; values are the
// driver's scalars with []byte normalized to string.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// SandboxVerdict is the validator's judgment on a candidate query. On
// failure Rows carries the candidate's own output for UI feedback; the
// reference rows are never exposed.
type SandboxVerdict struct {
	Success bool
	Message string
	Result  *QueryResult
}

// SqlSandbox judges untrusted SELECT queries against a trusted solution
// query. Every run executes inside a fresh in-memory SQLite instance
// that is torn down when the call returns, so nothing a player submits
// can touch shared state.
type SqlSandbox struct {
	timeout time.Duration
}

func NewSqlSandbox(timeout time.Duration) *SqlSandbox {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &SqlSandbox{timeout: timeout}
}

var (
	lineCommentRe  = regexp.MustCompile(`--[^\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	// Whole-word match, so e.g. "created_at" does not trip on "create".
	mutationRe = regexp.MustCompile(`\b(insert|update|delete|drop|alter|create|grant|revoke|truncate|exec|pragma)\b`)
)

// checkSafeSelect strips comments and verifies the query is a plain
// SELECT with none of the denylisted keywords. A non-empty return is the
// rejection message; no execution happens for rejected queries.
func checkSafeSelect(query string) string {
	clean := strings.ToLower(query)
	clean = lineCommentRe.ReplaceAllString(clean, "")
	clean = blockCommentRe.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(clean)

	if !strings.HasPrefix(clean, "select") {
		return "Security Alert: Only SELECT queries allowed."
	}
	if mutationRe.MatchString(clean) {
		return "Security Alert: Harmful SQL detected."
	}
	return ""
}

// run builds a throwaway in-memory database from the setup scripts and
// executes the query against it. The instance lives only for this call.
func (s *SqlSandbox) run(ctx context.Context, setupScripts []string, query string) (*QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open sandbox database: %w", err)
	}
	defer db.Close()

	// A second connection would see its own empty :memory: database, so
	// every statement must share the one connection.
	db.SetMaxOpenConns(1)

	for _, stmt := range setupScripts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("setup script failed: %w", err)
		}
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	return result, rows.Err()
}

// Validate judges candidateQuery against solutionQuery. Both run against
// identically-rebuilt instances; the verdict is success only when the
// captured row sequences are exactly equal (duplicates and row order
// included, so solution queries must order canonically).
func (s *SqlSandbox) Validate(ctx context.Context, setupScripts []string, solutionQuery, candidateQuery string) SandboxVerdict {
	if msg := checkSafeSelect(candidateQuery); msg != "" {
		return SandboxVerdict{Message: msg}
	}

	candidate, err := s.run(ctx, setupScripts, candidateQuery)
	if err != nil {
		return SandboxVerdict{Message: fmt.Sprintf("Syntax Error: %v", err)}
	}

	// The solution is server-authored, so it bypasses the safety filter.
	// If it fails to run the content itself is broken; never unlock
	// progress on a broken challenge.
	expected, err := s.run(ctx, setupScripts, solutionQuery)
	if err != nil {
		log.Printf("sql sandbox: solution query failed (content defect): %v", err)
		return SandboxVerdict{Message: "Challenge is misconfigured; progress not affected.", Result: candidate}
	}

	if !rowsEqual(candidate.Rows, expected.Rows) {
		return SandboxVerdict{Message: "Incorrect Result. Check the question again.", Result: candidate}
	}

	return SandboxVerdict{Success: true, Message: "Access Granted.", Result: candidate}
}

// rowsEqual compares row values positionally. Column names are not
// compared: SELECT MAX(salary) and SELECT salary can legitimately name
// the same values differently.
func rowsEqual(a, b [][]any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
