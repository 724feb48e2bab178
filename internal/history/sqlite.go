package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/flowline-dev/flowline/pkg/errors"
	"github.com/flowline-dev/flowline/pkg/workflow"
)

// Compile-time interface assertion.
var _ workflow.ExecutionStore = (*SQLiteStore)(nil)

// SQLiteStore is a durable execution store backed by SQLite.
//
// Filterable fields (workflow ID, status, start time) get their own columns;
// the full execution record is stored as JSON alongside them so the schema
// does not chase the record shape.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite-backed execution store at the
// given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writes, so a single connection avoids lock churn.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// migrate creates the schema.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS executions (
			id TEXT PRIMARY KEY,
			workflow_id TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TEXT NOT NULL,
			record TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_workflow ON executions(workflow_id)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_status ON executions(status)`,
	}
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// CreateExecution stores a new execution record.
func (s *SQLiteStore) CreateExecution(ctx context.Context, e *workflow.Execution) error {
	if e == nil || e.ID == "" {
		return &errors.ValidationError{
			Field:   "execution",
			Message: "execution and its ID are required",
		}
	}

	record, err := json.Marshal(e)
	if err != nil {
		return &errors.StoreError{Op: "create", Cause: err}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO executions (id, workflow_id, status, started_at, record)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.WorkflowID, string(e.Status), e.StartedAt.UTC().Format(time.RFC3339Nano), string(record),
	)
	if err != nil {
		return &errors.StoreError{Op: "create", Cause: err}
	}
	return nil
}

// GetExecution retrieves an execution by ID.
func (s *SQLiteStore) GetExecution(ctx context.Context, id string) (*workflow.Execution, error) {
	var record string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM executions WHERE id = ?`, id,
	).Scan(&record)
	if err == sql.ErrNoRows {
		return nil, &errors.NotFoundError{Resource: "execution", ID: id}
	}
	if err != nil {
		return nil, &errors.StoreError{Op: "get", Cause: err}
	}

	var e workflow.Execution
	if err := json.Unmarshal([]byte(record), &e); err != nil {
		return nil, &errors.StoreError{Op: "get", Cause: err}
	}
	return &e, nil
}

// UpdateExecution replaces an existing execution record.
func (s *SQLiteStore) UpdateExecution(ctx context.Context, e *workflow.Execution) error {
	if e == nil || e.ID == "" {
		return &errors.ValidationError{
			Field:   "execution",
			Message: "execution and its ID are required",
		}
	}

	record, err := json.Marshal(e)
	if err != nil {
		return &errors.StoreError{Op: "update", Cause: err}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE executions SET workflow_id = ?, status = ?, started_at = ?, record = ? WHERE id = ?`,
		e.WorkflowID, string(e.Status), e.StartedAt.UTC().Format(time.RFC3339Nano), string(record), e.ID,
	)
	if err != nil {
		return &errors.StoreError{Op: "update", Cause: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &errors.NotFoundError{Resource: "execution", ID: e.ID}
	}
	return nil
}

// ListExecutions lists executions matching the filter, oldest first.
func (s *SQLiteStore) ListExecutions(ctx context.Context, filter workflow.ExecutionFilter) ([]*workflow.Execution, error) {
	query := `SELECT record FROM executions WHERE 1=1`
	args := []any{}

	if filter.WorkflowID != "" {
		query += ` AND workflow_id = ?`
		args = append(args, filter.WorkflowID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at ASC, id ASC`

	limit := filter.Limit
	if limit <= 0 {
		// SQLite requires a LIMIT clause before OFFSET; -1 means unbounded.
		limit = -1
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &errors.StoreError{Op: "list", Cause: err}
	}
	defer rows.Close()

	var out []*workflow.Execution
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, &errors.StoreError{Op: "list", Cause: err}
		}
		var e workflow.Execution
		if err := json.Unmarshal([]byte(record), &e); err != nil {
			return nil, &errors.StoreError{Op: "list", Cause: err}
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, &errors.StoreError{Op: "list", Cause: err}
	}
	return out, nil
}

// DeleteExecution removes an execution by ID.
func (s *SQLiteStore) DeleteExecution(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM executions WHERE id = ?`, id)
	if err != nil {
		return &errors.StoreError{Op: "delete", Cause: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &errors.NotFoundError{Resource: "execution", ID: id}
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
