package workflow

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/flowline-dev/flowline/pkg/errors"
)

// Definition is the YAML wire shape of a workflow.
//
// It carries exactly what the registry needs to create a workflow: a name,
// an optional description, and the ordered step list. Step configs are free
// form maps passed through to handlers.
//
// Example:
//
//	name: invoice-intake
//	description: OCR and file incoming invoices
//	steps:
//	  - type: upload
//	    name: Upload Invoice
//	  - type: ocr
//	    name: Read Invoice
//	  - type: condition
//	    name: Check Confidence
//	    config:
//	      condition: confidence >= 0.9
type Definition struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Steps       []Step `yaml:"steps" json:"steps"`
}

// ParseDefinition parses a YAML workflow definition.
// Only the name is required; step shape is not validated here because
// unknown step types are legal and dispatch to the generic handler.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, &errors.ValidationError{
			Field:      "definition",
			Message:    err.Error(),
			Suggestion: "check the YAML syntax of the workflow file",
		}
	}
	if def.Name == "" {
		return nil, &errors.ValidationError{
			Field:      "name",
			Message:    "workflow name is required",
			Suggestion: "add a top-level 'name' field to the workflow file",
		}
	}
	return &def, nil
}

// LoadDefinition reads and parses a workflow definition file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading workflow file %s", path)
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing workflow file %s", path)
	}
	return def, nil
}

// definitionGlob matches workflow definition files under a directory tree.
const definitionGlob = "**/*.{yaml,yml}"

// LoadDir loads every workflow definition under root, in lexical path
// order. A single malformed file fails the whole load so a typo cannot
// silently drop a workflow.
func LoadDir(root string) ([]*Definition, error) {
	matches, err := doublestar.Glob(os.DirFS(root), definitionGlob)
	if err != nil {
		return nil, errors.Wrapf(err, "globbing workflow files under %s", root)
	}

	defs := make([]*Definition, 0, len(matches))
	for _, rel := range matches {
		def, err := LoadDefinition(filepath.Join(root, rel))
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// CreateFromDefinition registers a workflow from a parsed definition and
// returns its ID.
func (r *Registry) CreateFromDefinition(def *Definition) (string, error) {
	if def == nil {
		return "", &errors.ValidationError{
			Field:   "definition",
			Message: "definition cannot be nil",
		}
	}
	return r.Create(def.Name, def.Steps, WithDescription(def.Description))
}
