package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowline-dev/flowline/internal/log"
	"github.com/flowline-dev/flowline/pkg/errors"
)

// Handler executes one step against the current data context.
//
// Handlers receive the step's config map and return an output map. Returning
// an error marks the step's result failed; it does not abort the execution.
// Handlers should honor ctx cancellation on anything that blocks.
type Handler func(ctx context.Context, input Data, config map[string]any) (map[string]any, error)

// Dispatcher maps a step's declared type to a handler and produces a result
// envelope for every invocation.
//
// The dispatcher is the containment boundary of the engine: a handler error
// or panic becomes a failed StepResult, never an escaping fault, which is
// what guarantees that sibling steps keep running.
type Dispatcher struct {
	handlers map[string]Handler
	fallback Handler
	logger   *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the dispatcher's logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a dispatcher with the builtin handler table
// registered.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string]Handler),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.fallback = genericHandler
	registerBuiltins(d)
	return d
}

// Register adds or replaces the handler for a step type.
// Registration is process-start wiring; it is not synchronized against
// concurrent dispatch.
func (d *Dispatcher) Register(stepType string, h Handler) {
	if h == nil {
		return
	}
	d.handlers[stepType] = h
}

// Types returns the registered step type tags.
func (d *Dispatcher) Types() []string {
	out := make([]string, 0, len(d.handlers))
	for t := range d.handlers {
		out = append(out, t)
	}
	return out
}

// ExecuteStep runs one step and returns its result envelope.
//
// The result is always stamped with the step's name, type, and a timestamp,
// regardless of outcome. Unknown step types route to the generic
// pass-through handler.
func (d *Dispatcher) ExecuteStep(ctx context.Context, step Step, input Data) StepResult {
	handler, ok := d.handlers[step.Type]
	if !ok {
		d.logger.Debug("no handler for step type, using generic",
			log.StepKey, step.Name,
			log.StepTypeKey, step.Type,
		)
		handler = d.fallback
	}

	start := time.Now()
	output, err := d.invoke(ctx, handler, step, input)

	result := StepResult{
		Step:      step.Name,
		Type:      step.Type,
		Timestamp: time.Now(),
	}

	if err != nil {
		stepErr := &errors.StepError{Step: step.Name, Type: step.Type, Cause: err}
		d.logger.Warn("step failed",
			log.StepKey, step.Name,
			log.StepTypeKey, step.Type,
			log.DurationKey, time.Since(start).Milliseconds(),
			"error", err,
		)
		result.Status = ResultFailed
		result.Error = stepErr.Error()
		return result
	}

	d.logger.Debug("step completed",
		log.StepKey, step.Name,
		log.StepTypeKey, step.Type,
		log.DurationKey, time.Since(start).Milliseconds(),
	)
	result.Status = ResultCompleted
	result.Output = output
	return result
}

// invoke calls the handler with panic containment.
func (d *Dispatcher) invoke(ctx context.Context, handler Handler, step Step, input Data) (output map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			output = nil
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, input, step.Config)
}
