// Package history provides execution record storage.
//
// Two implementations of workflow.ExecutionStore live here: MemoryStore, the
// default in-process store, and SQLiteStore, a durable store for operators
// who want execution history to survive restarts. Both hand out deep copies
// so callers cannot mutate tracked records.
package history

import (
	"context"
	"sync"

	"github.com/flowline-dev/flowline/pkg/errors"
	"github.com/flowline-dev/flowline/pkg/workflow"
)

// Compile-time interface assertion.
var _ workflow.ExecutionStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory implementation of workflow.ExecutionStore.
// It is thread-safe and suitable for tests and single-instance use.
//
// Records are kept for the life of the process; there is no eviction. Use
// DeleteExecution or the sqlite store if unbounded growth is a concern.
type MemoryStore struct {
	mu         sync.RWMutex
	executions map[string]*workflow.Execution
	order      []string
}

// NewMemoryStore creates a new in-memory execution store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		executions: make(map[string]*workflow.Execution),
	}
}

// CreateExecution stores a new execution record.
func (s *MemoryStore) CreateExecution(ctx context.Context, e *workflow.Execution) error {
	if e == nil {
		return &errors.ValidationError{
			Field:   "execution",
			Message: "execution cannot be nil",
		}
	}
	if e.ID == "" {
		return &errors.ValidationError{
			Field:   "id",
			Message: "execution ID cannot be empty",
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.executions[e.ID]; exists {
		return &errors.ValidationError{
			Field:      "id",
			Message:    "execution " + e.ID + " already exists",
			Suggestion: "use UpdateExecution to modify an existing record",
		}
	}

	s.executions[e.ID] = e.Clone()
	s.order = append(s.order, e.ID)
	return nil
}

// GetExecution retrieves an execution by ID.
func (s *MemoryStore) GetExecution(ctx context.Context, id string) (*workflow.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.executions[id]
	if !ok {
		return nil, &errors.NotFoundError{Resource: "execution", ID: id}
	}
	return e.Clone(), nil
}

// UpdateExecution replaces an existing execution record.
func (s *MemoryStore) UpdateExecution(ctx context.Context, e *workflow.Execution) error {
	if e == nil {
		return &errors.ValidationError{
			Field:   "execution",
			Message: "execution cannot be nil",
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.executions[e.ID]; !ok {
		return &errors.NotFoundError{Resource: "execution", ID: e.ID}
	}
	s.executions[e.ID] = e.Clone()
	return nil
}

// ListExecutions lists executions matching the filter, oldest first.
func (s *MemoryStore) ListExecutions(ctx context.Context, filter workflow.ExecutionFilter) ([]*workflow.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*workflow.Execution, 0, len(s.order))
	for _, id := range s.order {
		e, ok := s.executions[id]
		if !ok {
			continue
		}
		if filter.WorkflowID != "" && e.WorkflowID != filter.WorkflowID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		matched = append(matched, e.Clone())
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*workflow.Execution{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// DeleteExecution removes an execution by ID.
func (s *MemoryStore) DeleteExecution(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.executions[id]; !ok {
		return &errors.NotFoundError{Resource: "execution", ID: id}
	}
	delete(s.executions, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of stored executions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.executions)
}
