// Package errors defines the structured error types used across the engine.
//
// The engine's public contract is that failures are data: step failures are
// recorded on results, execution failures on execution records, and only the
// lookup boundary (unknown workflow, unknown execution) returns an error
// value. These types carry enough structure for callers to branch on without
// string matching.
package errors

import (
	"fmt"
)

// ValidationError represents user input validation failures.
// Use this for invalid definitions, malformed expressions, or constraint
// violations surfaced before execution starts.
type ValidationError struct {
	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Suggestion provides actionable guidance for fixing the error
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NotFoundError represents a resource not found error.
// Use this when a requested workflow, template, or execution does not exist.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "workflow", "template", "execution")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// StepError represents a failure inside a single step handler.
// The dispatcher converts these into failed step results; they never cross
// the engine boundary as raised errors.
type StepError struct {
	// Step is the human-readable name of the failing step
	Step string

	// Type is the step's declared type tag
	Type string

	// Cause is the underlying handler error
	Cause error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("step %q (%s) failed: %v", e.Step, e.Type, e.Cause)
	}
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *StepError) Unwrap() error {
	return e.Cause
}

// ConfigError represents configuration problems.
// Use this for configuration file errors, missing settings, or invalid
// config values.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "history.path")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// StoreError represents a failure in the execution history store.
// These are systemic: when one escapes during an execution, the whole
// execution is marked failed.
type StoreError struct {
	// Op is the store operation that failed (e.g., "create", "update")
	Op string

	// Cause is the underlying storage error
	Cause error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("history store %s failed: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *StoreError) Unwrap() error {
	return e.Cause
}
