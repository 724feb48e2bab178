package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowline-dev/flowline/pkg/errors"
)

const sampleDefinition = `
name: invoice-intake
description: OCR and file incoming invoices
steps:
  - type: upload
    name: Upload Invoice
  - type: ocr
    name: Read Invoice
  - type: condition
    name: Check Confidence
    config:
      condition: confidence >= 0.9
`

func TestParseDefinition(t *testing.T) {
	def, err := ParseDefinition([]byte(sampleDefinition))
	require.NoError(t, err)

	assert.Equal(t, "invoice-intake", def.Name)
	assert.Equal(t, "OCR and file incoming invoices", def.Description)
	require.Len(t, def.Steps, 3)
	assert.Equal(t, "upload", def.Steps[0].Type)
	assert.Equal(t, "Check Confidence", def.Steps[2].Name)
	assert.Equal(t, "confidence >= 0.9", def.Steps[2].Config["condition"])
}

func TestParseDefinitionMissingName(t *testing.T) {
	_, err := ParseDefinition([]byte("steps:\n  - type: notify\n    name: Notify\n"))
	assert.True(t, errors.IsValidation(err))
}

func TestParseDefinitionMalformedYAML(t *testing.T) {
	_, err := ParseDefinition([]byte("name: [unclosed"))
	assert.True(t, errors.IsValidation(err))
}

func TestLoadDefinition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoice.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDefinition), 0o644))

	def, err := LoadDefinition(path)
	require.NoError(t, err)
	assert.Equal(t, "invoice-intake", def.Name)

	_, err = LoadDefinition(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"),
		[]byte("name: alpha\nsteps:\n  - type: notify\n    name: Notify\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "b.yml"),
		[]byte("name: beta\nsteps: []\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"),
		[]byte("not a workflow"), 0o644))

	defs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	names := []string{defs[0].Name, defs[1].Name}
	assert.Contains(t, names, "alpha")
	assert.Contains(t, names, "beta")
}

func TestLoadDirFailsOnMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.yaml"),
		[]byte("name: good\nsteps: []\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"),
		[]byte("steps: []\n"), 0o644))

	_, err := LoadDir(dir)
	assert.Error(t, err)
}

func TestCreateFromDefinition(t *testing.T) {
	r := NewRegistry()

	def, err := ParseDefinition([]byte(sampleDefinition))
	require.NoError(t, err)

	id, err := r.CreateFromDefinition(def)
	require.NoError(t, err)

	w, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "invoice-intake", w.Name)
	assert.Equal(t, "OCR and file incoming invoices", w.Description)
	assert.Len(t, w.Steps, 3)

	_, err = r.CreateFromDefinition(nil)
	assert.True(t, errors.IsValidation(err))
}
