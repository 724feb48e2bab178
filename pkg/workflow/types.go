package workflow

import (
	"fmt"
	"time"
)

// ResultStatus is the outcome of a single step within one execution.
type ResultStatus string

const (
	// ResultCompleted indicates the step's handler returned normally.
	ResultCompleted ResultStatus = "completed"
	// ResultFailed indicates the handler returned an error or panicked.
	ResultFailed ResultStatus = "failed"
)

// StepResult is the outcome envelope of one step within one execution.
// Exactly one is produced per step per execution; steps are never retried.
type StepResult struct {
	// Step is the step's human-readable name.
	Step string `json:"step"`

	// Type is the step's declared type tag.
	Type string `json:"type"`

	// Status is completed or failed.
	Status ResultStatus `json:"status"`

	// Output is the handler's output map. Nil when the step failed.
	Output map[string]any `json:"output,omitempty"`

	// Error is the handler's error message when the step failed.
	Error string `json:"error,omitempty"`

	// Timestamp is when the result was produced.
	Timestamp time.Time `json:"timestamp"`
}

// Execution is one run of a workflow against a given input.
//
// Status moves pending -> running -> completed|failed; once terminal the
// record is immutable. A workflow may have many executions, concurrent or
// not, each with its own ID.
type Execution struct {
	ID          string         `json:"id"`
	WorkflowID  string         `json:"workflow_id"`
	Status      Status         `json:"status"`
	Input       map[string]any `json:"input,omitempty"`
	Results     []StepResult   `json:"results"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Duration    time.Duration  `json:"duration,omitempty"`
}

// Data is the flat key/value context flowing through step handlers.
// The typed accessors never panic; handler authors should prefer the Or
// variants when a sensible default exists.
type Data map[string]any

// ErrKeyNotFound represents an error when a requested key does not exist in
// the data context.
type ErrKeyNotFound struct {
	Key string
}

// Error implements the error interface.
func (e ErrKeyNotFound) Error() string {
	return fmt.Sprintf("key %q not found", e.Key)
}

// ErrTypeAssertion represents an error when a value cannot be converted to
// the expected type.
type ErrTypeAssertion struct {
	Key  string
	Got  string
	Want string
}

// Error implements the error interface.
func (e ErrTypeAssertion) Error() string {
	return fmt.Sprintf("key %q is %s, not %s", e.Key, e.Got, e.Want)
}

// GetString retrieves a string value from the context.
// Returns ErrKeyNotFound if the key doesn't exist, ErrTypeAssertion if it
// holds another type.
func (d Data) GetString(key string) (string, error) {
	val, ok := d[key]
	if !ok {
		return "", ErrKeyNotFound{Key: key}
	}
	str, ok := val.(string)
	if !ok {
		return "", ErrTypeAssertion{Key: key, Got: fmt.Sprintf("%T", val), Want: "string"}
	}
	return str, nil
}

// GetStringOr returns a string value or the default if the key is missing or
// the wrong type.
func (d Data) GetStringOr(key, defaultVal string) string {
	str, err := d.GetString(key)
	if err != nil {
		return defaultVal
	}
	return str
}

// GetInt64 retrieves an int64 value from the context.
// JSON and YAML unmarshaling produce a spread of numeric types, so any
// integer-valued number converts.
func (d Data) GetInt64(key string) (int64, error) {
	val, ok := d[key]
	if !ok {
		return 0, ErrKeyNotFound{Key: key}
	}
	switch v := val.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		// JSON numbers are unmarshaled as float64
		return int64(v), nil
	default:
		return 0, ErrTypeAssertion{Key: key, Got: fmt.Sprintf("%T", val), Want: "int64"}
	}
}

// GetInt64Or returns an int64 value or the default if the key is missing or
// the wrong type.
func (d Data) GetInt64Or(key string, defaultVal int64) int64 {
	i, err := d.GetInt64(key)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetFloat64 retrieves a float64 value from the context.
func (d Data) GetFloat64(key string) (float64, error) {
	val, ok := d[key]
	if !ok {
		return 0, ErrKeyNotFound{Key: key}
	}
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, ErrTypeAssertion{Key: key, Got: fmt.Sprintf("%T", val), Want: "float64"}
	}
}

// GetFloat64Or returns a float64 value or the default if the key is missing
// or the wrong type.
func (d Data) GetFloat64Or(key string, defaultVal float64) float64 {
	f, err := d.GetFloat64(key)
	if err != nil {
		return defaultVal
	}
	return f
}

// GetBool retrieves a bool value from the context.
func (d Data) GetBool(key string) (bool, error) {
	val, ok := d[key]
	if !ok {
		return false, ErrKeyNotFound{Key: key}
	}
	b, ok := val.(bool)
	if !ok {
		return false, ErrTypeAssertion{Key: key, Got: fmt.Sprintf("%T", val), Want: "bool"}
	}
	return b, nil
}

// GetBoolOr returns a bool value or the default if the key is missing or the
// wrong type.
func (d Data) GetBoolOr(key string, defaultVal bool) bool {
	b, err := d.GetBool(key)
	if err != nil {
		return defaultVal
	}
	return b
}

// Clone returns a shallow copy of the context map.
// Values are shared; handlers must not mutate nested structures they did not
// create.
func (d Data) Clone() Data {
	if d == nil {
		return Data{}
	}
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Clone creates a deep copy of an execution record.
// Stores hand out clones so callers cannot mutate tracked state; step result
// output maps are shared, results themselves are value types.
func (e *Execution) Clone() *Execution {
	if e == nil {
		return nil
	}
	out := &Execution{
		ID:         e.ID,
		WorkflowID: e.WorkflowID,
		Status:     e.Status,
		Input:      Data(e.Input).Clone(),
		Error:      e.Error,
		StartedAt:  e.StartedAt,
		Duration:   e.Duration,
	}
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		out.CompletedAt = &t
	}
	if e.Results != nil {
		out.Results = make([]StepResult, len(e.Results))
		copy(out.Results, e.Results)
	}
	return out
}
