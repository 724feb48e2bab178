package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowline-dev/flowline/internal/log"
	"github.com/flowline-dev/flowline/pkg/errors"
)

// ExecutionStore is the bookkeeping interface for execution records.
//
// The engine writes a record as soon as an execution starts, so in-flight
// executions are visible to status queries, and updates it once terminal.
// Implementations live in internal/history (memory and sqlite).
type ExecutionStore interface {
	// CreateExecution stores a new execution record.
	CreateExecution(ctx context.Context, e *Execution) error

	// GetExecution retrieves an execution by ID.
	GetExecution(ctx context.Context, id string) (*Execution, error)

	// UpdateExecution replaces an existing execution record.
	UpdateExecution(ctx context.Context, e *Execution) error

	// ListExecutions lists executions matching the filter.
	ListExecutions(ctx context.Context, filter ExecutionFilter) ([]*Execution, error)

	// DeleteExecution removes an execution by ID.
	DeleteExecution(ctx context.Context, id string) error
}

// ExecutionFilter narrows ListExecutions results.
type ExecutionFilter struct {
	WorkflowID string
	Status     Status
	Limit      int
	Offset     int
}

// MetricsRecorder receives engine telemetry. The prometheus-backed
// implementation lives in internal/metrics; the default is a no-op.
type MetricsRecorder interface {
	ExecutionStarted()
	ExecutionFinished(status Status, d time.Duration)
	StepExecuted(stepType string, status ResultStatus)
}

type nopMetrics struct{}

func (nopMetrics) ExecutionStarted()                       {}
func (nopMetrics) ExecutionFinished(Status, time.Duration) {}
func (nopMetrics) StepExecuted(string, ResultStatus)       {}

// DefaultParallelism is the default bound on concurrently dispatched steps
// in parallel mode.
const DefaultParallelism = 4

// Engine runs workflows and tracks their executions.
type Engine struct {
	registry    *Registry
	dispatcher  *Dispatcher
	store       ExecutionStore
	metrics     MetricsRecorder
	logger      *slog.Logger
	parallelism int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDispatcher replaces the engine's step dispatcher.
func WithDispatcher(d *Dispatcher) EngineOption {
	return func(e *Engine) {
		if d != nil {
			e.dispatcher = d
		}
	}
}

// WithMetrics sets the engine's metrics recorder.
func WithMetrics(m MetricsRecorder) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithParallelism bounds the number of concurrently dispatched steps in
// parallel mode.
func WithParallelism(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// NewEngine creates an execution engine over the given registry and store.
func NewEngine(registry *Registry, store ExecutionStore, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:    registry,
		store:       store,
		metrics:     nopMetrics{},
		logger:      slog.Default(),
		parallelism: DefaultParallelism,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dispatcher == nil {
		e.dispatcher = NewDispatcher(WithDispatcherLogger(e.logger))
	}
	return e
}

// ExecuteOption configures a single execution.
type ExecuteOption func(*executeOptions)

type executeOptions struct {
	parallel bool
}

// Parallel runs every step concurrently against the original input instead
// of chaining outputs sequentially.
func Parallel() ExecuteOption {
	return func(o *executeOptions) {
		o.parallel = true
	}
}

// Execute runs a workflow against the given input and returns the full
// execution record.
//
// An unknown workflow ID returns a NotFoundError and creates no execution
// record. Every other failure mode is recorded on the returned execution:
// step-level failures as failed results, systemic faults as a failed
// execution with partial results. The record is stored before the first
// step runs, so concurrent status queries observe the running execution.
func (e *Engine) Execute(ctx context.Context, workflowID string, input map[string]any, opts ...ExecuteOption) (*Execution, error) {
	var o executeOptions
	for _, opt := range opts {
		opt(&o)
	}

	wf, err := e.registry.Get(workflowID)
	if err != nil {
		return nil, errors.Wrap(err, "execute workflow")
	}

	exec := &Execution{
		ID:         uuid.NewString(),
		WorkflowID: wf.ID,
		Status:     StatusRunning,
		Input:      Data(input).Clone(),
		Results:    make([]StepResult, 0, len(wf.Steps)),
		StartedAt:  time.Now(),
	}

	logger := log.WithExecutionContext(e.logger, exec.ID, wf.Name)
	logger.Info("execution started",
		log.WorkflowIDKey, wf.ID,
		"steps", len(wf.Steps),
		"parallel", o.parallel,
	)
	e.metrics.ExecutionStarted()

	if err := e.store.CreateExecution(ctx, exec); err != nil {
		e.finalize(ctx, logger, exec, &errors.StoreError{Op: "create", Cause: err})
		return exec, nil
	}

	runErr := e.run(ctx, logger, wf, exec, o.parallel)
	e.finalize(ctx, logger, exec, runErr)
	return exec, nil
}

// run dispatches the workflow's steps into exec.Results. A returned error is
// systemic and fails the whole execution; individual step failures are
// already contained by the dispatcher.
func (e *Engine) run(ctx context.Context, logger *slog.Logger, wf *Workflow, exec *Execution, parallel bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal engine fault: %v", r)
		}
	}()

	if parallel {
		return e.runParallel(ctx, wf, exec)
	}
	return e.runSequential(ctx, wf, exec)
}

// runSequential executes steps strictly in declaration order, feeding each
// completed step's output into the next step's input. A failed step
// contributes no output; the previous data context carries forward.
func (e *Engine) runSequential(ctx context.Context, wf *Workflow, exec *Execution) error {
	data := Data(exec.Input).Clone()

	for _, step := range wf.Steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("execution cancelled before step %q: %w", step.Name, err)
		}

		result := e.dispatcher.ExecuteStep(ctx, step, data)
		exec.Results = append(exec.Results, result)
		e.metrics.StepExecuted(step.Type, result.Status)

		if result.Status == ResultCompleted && result.Output != nil {
			data = Data(result.Output)
		}
	}
	return nil
}

// runParallel dispatches every step concurrently against the original input,
// bounded by the engine's parallelism. Results land in an indexed slice so
// their order matches declaration order regardless of completion order, and
// a failing step cannot suppress its siblings' results.
func (e *Engine) runParallel(ctx context.Context, wf *Workflow, exec *Execution) error {
	results := make([]StepResult, len(wf.Steps))
	sem := make(chan struct{}, e.parallelism)

	var wg sync.WaitGroup
	for i, step := range wf.Steps {
		wg.Add(1)
		go func(i int, step Step) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = e.dispatcher.ExecuteStep(ctx, step, Data(exec.Input).Clone())
			e.metrics.StepExecuted(step.Type, results[i].Status)
		}(i, step)
	}
	wg.Wait()

	exec.Results = append(exec.Results, results...)
	return ctx.Err()
}

// finalize moves the execution to its terminal status and writes it back to
// the store. It never raises: a store failure at this point is logged and
// reflected on the record the caller already holds.
func (e *Engine) finalize(ctx context.Context, logger *slog.Logger, exec *Execution, runErr error) {
	now := time.Now()
	exec.CompletedAt = &now
	exec.Duration = now.Sub(exec.StartedAt)

	if runErr != nil {
		exec.Status = StatusFailed
		exec.Error = runErr.Error()
		logger.Error("execution failed",
			log.DurationKey, exec.Duration.Milliseconds(),
			"error", runErr,
		)
	} else {
		exec.Status = StatusCompleted
		logger.Info("execution completed",
			log.DurationKey, exec.Duration.Milliseconds(),
			"results", len(exec.Results),
		)
	}
	e.metrics.ExecutionFinished(exec.Status, exec.Duration)

	if err := e.store.UpdateExecution(ctx, exec); err != nil {
		if !errors.IsNotFound(err) {
			logger.Error("failed to persist execution record", "error", err)
		}
	}
}

// ExecutionStatus returns the execution record for the given ID, or a
// NotFoundError.
func (e *Engine) ExecutionStatus(ctx context.Context, executionID string) (*Execution, error) {
	return e.store.GetExecution(ctx, executionID)
}

// ListExecutions lists execution records matching the filter.
func (e *Engine) ListExecutions(ctx context.Context, filter ExecutionFilter) ([]*Execution, error) {
	return e.store.ListExecutions(ctx, filter)
}
