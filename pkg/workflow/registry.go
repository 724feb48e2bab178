package workflow

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowline-dev/flowline/pkg/errors"
)

// Registry stores workflow and template definitions.
//
// It is safe for concurrent use; workflows are copied on the way in and out
// so callers cannot mutate tracked state. The template catalog is seeded at
// construction and immutable afterwards.
type Registry struct {
	mu        sync.RWMutex
	workflows map[string]*Workflow
	order     []string

	templates     map[string]*Template
	templateOrder []string

	logger *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the registry's logger.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a workflow registry with the builtin template catalog
// seeded.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		workflows: make(map[string]*Workflow),
		templates: make(map[string]*Template),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, t := range builtinTemplates() {
		r.templates[t.ID] = t
		r.templateOrder = append(r.templateOrder, t.ID)
	}
	return r
}

// builtinTemplates is the fixed catalog seeded at startup.
func builtinTemplates() []*Template {
	return []*Template{
		{
			ID:          "document_processing",
			Name:        "Document Processing",
			Description: "Upload a document, run OCR, analyze the text, and store the result",
			Steps: []Step{
				{Type: "upload", Name: "Upload Document"},
				{Type: "ocr", Name: "Extract Text"},
				{Type: "analyze", Name: "Analyze Content"},
				{Type: "store", Name: "Store Result"},
			},
		},
		{
			ID:          "data_pipeline",
			Name:        "Data Pipeline",
			Description: "Extract records from a source, transform and validate them, and load them downstream",
			Steps: []Step{
				{Type: "extract", Name: "Extract Data"},
				{Type: "transform", Name: "Transform Data"},
				{Type: "validate", Name: "Validate Data"},
				{Type: "load", Name: "Load Data"},
			},
		},
	}
}

// CreateOption configures workflow creation.
type CreateOption func(*createOptions)

type createOptions struct {
	description string
	templateID  string
}

// WithDescription sets the workflow's description.
func WithDescription(desc string) CreateOption {
	return func(o *createOptions) {
		o.description = desc
	}
}

// FromTemplate instantiates the workflow's steps from the named template.
// The caller-supplied step list is ignored when this option is present.
func FromTemplate(templateID string) CreateOption {
	return func(o *createOptions) {
		o.templateID = templateID
	}
}

// Create registers a new workflow and returns its ID.
//
// Step shape is deliberately not validated here: a step with an unknown type
// dispatches to the generic handler at execution time rather than failing
// creation. The only error is an unknown template ID.
func (r *Registry) Create(name string, steps []Step, opts ...CreateOption) (string, error) {
	var o createOptions
	for _, opt := range opts {
		opt(&o)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	w := &Workflow{
		ID:          uuid.NewString(),
		Name:        name,
		Description: o.description,
		Status:      StatusPending,
		CreatedAt:   time.Now(),
	}

	if o.templateID != "" {
		tpl, ok := r.templates[o.templateID]
		if !ok {
			return "", &errors.NotFoundError{Resource: "template", ID: o.templateID}
		}
		w.TemplateID = tpl.ID
		w.Steps = copySteps(tpl.Steps)
	} else {
		w.Steps = copySteps(steps)
	}

	r.workflows[w.ID] = w
	r.order = append(r.order, w.ID)

	r.logger.Debug("workflow created",
		"workflow_id", w.ID,
		"workflow", w.Name,
		"steps", len(w.Steps),
		"template_id", w.TemplateID,
	)

	return w.ID, nil
}

// Get retrieves a workflow by ID. Returns a NotFoundError when absent;
// callers must check rather than assume.
func (r *Registry) Get(id string) (*Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.workflows[id]
	if !ok {
		return nil, &errors.NotFoundError{Resource: "workflow", ID: id}
	}
	return copyWorkflow(w), nil
}

// List returns all workflows in insertion order.
func (r *Registry) List() []*Workflow {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Workflow, 0, len(r.order))
	for _, id := range r.order {
		if w, ok := r.workflows[id]; ok {
			out = append(out, copyWorkflow(w))
		}
	}
	return out
}

// Delete removes a workflow by ID, reporting whether it existed.
// Executions of the workflow are orphaned, not deleted.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.workflows[id]; !ok {
		return false
	}
	delete(r.workflows, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.logger.Debug("workflow deleted", "workflow_id", id)
	return true
}

// Templates returns the seeded template catalog in seed order.
func (r *Registry) Templates() []*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Template, 0, len(r.templateOrder))
	for _, id := range r.templateOrder {
		out = append(out, copyTemplate(r.templates[id]))
	}
	return out
}

// Template retrieves a single template by ID.
func (r *Registry) Template(id string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[id]
	if !ok {
		return nil, &errors.NotFoundError{Resource: "template", ID: id}
	}
	return copyTemplate(t), nil
}
