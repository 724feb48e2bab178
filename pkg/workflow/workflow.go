// Package workflow provides workflow orchestration primitives.
//
// A workflow is a named, ordered list of typed steps, optionally instantiated
// from a seeded template. Executions run a workflow's steps either
// sequentially, chaining each step's output into the next step's input, or in
// parallel against the original input. Per-step outcomes are captured as
// result envelopes on an execution record; step failures are recorded, never
// raised, so one bad step cannot abort its siblings.
//
// The package is designed to be embedded: the enclosing service owns
// transport, auth, and persistence beyond the pluggable execution store.
package workflow

import (
	"time"
)

// Status represents the lifecycle state of a workflow or execution.
type Status string

// Workflow and execution statuses.
const (
	// StatusPending indicates a workflow that has been created but not executed.
	StatusPending Status = "pending"
	// StatusRunning indicates an execution in progress.
	StatusRunning Status = "running"
	// StatusCompleted indicates an execution that finished with all steps dispatched.
	StatusCompleted Status = "completed"
	// StatusFailed indicates an execution aborted by a systemic fault.
	StatusFailed Status = "failed"
	// StatusPaused is reserved for future pause/resume support.
	// No transition currently produces it.
	StatusPaused Status = "paused"
)

var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusRunning:   true,
	StatusCompleted: true,
	StatusFailed:    true,
	StatusPaused:    true,
}

// IsValid checks if a status is a known value.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// IsTerminal returns true if the status is terminal (no further transitions).
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Step is a single typed unit of work within a workflow.
//
// Steps are value objects: they have no identity beyond their position in the
// workflow's step list and are never mutated after the workflow is created.
// The Type tag selects a handler at dispatch time; unrecognized tags route to
// the generic pass-through handler rather than failing.
type Step struct {
	// Type is the handler selector (e.g., "ocr", "transform", "condition").
	Type string `json:"type" yaml:"type"`

	// Name is a human-readable step label.
	Name string `json:"name" yaml:"name"`

	// Config holds handler-specific parameters, e.g. the expression string
	// for condition steps.
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// Workflow is a named, ordered list of steps.
type Workflow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Steps       []Step    `json:"steps"`
	Status      Status    `json:"status"`
	TemplateID  string    `json:"template_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Template is a predefined, reusable step list seeded at registry start.
// Workflows created from a template get their own copy of the step list,
// decoupled from any later change to the catalog.
type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Steps       []Step `json:"steps"`
}

// copySteps deep-copies a step list, including each step's config map.
func copySteps(steps []Step) []Step {
	if steps == nil {
		return nil
	}
	out := make([]Step, len(steps))
	for i, s := range steps {
		out[i] = Step{Type: s.Type, Name: s.Name}
		if s.Config != nil {
			out[i].Config = make(map[string]any, len(s.Config))
			for k, v := range s.Config {
				out[i].Config[k] = v
			}
		}
	}
	return out
}

// copyWorkflow creates a deep copy of a workflow.
func copyWorkflow(w *Workflow) *Workflow {
	if w == nil {
		return nil
	}
	return &Workflow{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Steps:       copySteps(w.Steps),
		Status:      w.Status,
		TemplateID:  w.TemplateID,
		CreatedAt:   w.CreatedAt,
	}
}

// copyTemplate creates a deep copy of a template.
func copyTemplate(t *Template) *Template {
	if t == nil {
		return nil
	}
	return &Template{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Steps:       copySteps(t.Steps),
	}
}
