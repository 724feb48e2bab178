package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowline-dev/flowline/pkg/errors"
	"github.com/flowline-dev/flowline/pkg/workflow"
)

func testExecution(id, workflowID string, status workflow.Status) *workflow.Execution {
	return &workflow.Execution{
		ID:         id,
		WorkflowID: workflowID,
		Status:     status,
		Input:      map[string]any{"source": "db"},
		StartedAt:  time.Now(),
	}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	exec := testExecution("ex-1", "wf-1", workflow.StatusRunning)
	require.NoError(t, store.CreateExecution(ctx, exec))

	got, err := store.GetExecution(ctx, "ex-1")
	require.NoError(t, err)
	assert.Equal(t, "wf-1", got.WorkflowID)
	assert.Equal(t, workflow.StatusRunning, got.Status)
}

func TestMemoryStoreCreateValidation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	assert.True(t, errors.IsValidation(store.CreateExecution(ctx, nil)))
	assert.True(t, errors.IsValidation(store.CreateExecution(ctx, &workflow.Execution{})))

	exec := testExecution("dup", "wf-1", workflow.StatusRunning)
	require.NoError(t, store.CreateExecution(ctx, exec))
	assert.True(t, errors.IsValidation(store.CreateExecution(ctx, exec)))
}

func TestMemoryStoreGetNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.GetExecution(context.Background(), "ghost")
	assert.True(t, errors.IsNotFound(err))
}

func TestMemoryStoreUpdate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	exec := testExecution("ex-1", "wf-1", workflow.StatusRunning)
	require.NoError(t, store.CreateExecution(ctx, exec))

	exec.Status = workflow.StatusCompleted
	require.NoError(t, store.UpdateExecution(ctx, exec))

	got, err := store.GetExecution(ctx, "ex-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, got.Status)

	assert.True(t, errors.IsNotFound(store.UpdateExecution(ctx, testExecution("ghost", "wf-1", workflow.StatusRunning))))
}

func TestMemoryStoreCopySemantics(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	exec := testExecution("ex-1", "wf-1", workflow.StatusRunning)
	require.NoError(t, store.CreateExecution(ctx, exec))

	// Mutating the caller's record must not affect the stored one.
	exec.Status = workflow.StatusFailed
	exec.Input["source"] = "tampered"

	got, err := store.GetExecution(ctx, "ex-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRunning, got.Status)
	assert.Equal(t, "db", got.Input["source"])

	// Mutating a returned record must not affect a later read.
	got.Status = workflow.StatusFailed
	again, err := store.GetExecution(ctx, "ex-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRunning, again.Status)
}

func TestMemoryStoreList(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateExecution(ctx, testExecution("ex-1", "wf-a", workflow.StatusCompleted)))
	require.NoError(t, store.CreateExecution(ctx, testExecution("ex-2", "wf-a", workflow.StatusFailed)))
	require.NoError(t, store.CreateExecution(ctx, testExecution("ex-3", "wf-b", workflow.StatusCompleted)))

	all, err := store.ListExecutions(ctx, workflow.ExecutionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "ex-1", all[0].ID) // insertion order

	byWorkflow, err := store.ListExecutions(ctx, workflow.ExecutionFilter{WorkflowID: "wf-a"})
	require.NoError(t, err)
	assert.Len(t, byWorkflow, 2)

	byStatus, err := store.ListExecutions(ctx, workflow.ExecutionFilter{Status: workflow.StatusFailed})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "ex-2", byStatus[0].ID)

	limited, err := store.ListExecutions(ctx, workflow.ExecutionFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "ex-2", limited[0].ID)

	beyond, err := store.ListExecutions(ctx, workflow.ExecutionFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateExecution(ctx, testExecution("ex-1", "wf-1", workflow.StatusCompleted)))
	require.NoError(t, store.DeleteExecution(ctx, "ex-1"))
	assert.Equal(t, 0, store.Len())

	assert.True(t, errors.IsNotFound(store.DeleteExecution(ctx, "ex-1")))
}
