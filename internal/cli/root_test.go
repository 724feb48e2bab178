package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowline-dev/flowline/pkg/workflow"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand("test", "none")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeWorkflowFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "etl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: etl
steps:
  - type: extract
    name: Extract Data
  - type: transform
    name: Transform Data
  - type: load
    name: Load Data
`), 0o644))
	return path
}

func TestRunCommand(t *testing.T) {
	path := writeWorkflowFile(t, t.TempDir())

	out, err := execute(t, "run", path, "--input", "source=db")
	require.NoError(t, err)
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "Extract Data")
	assert.Contains(t, out, "Load Data")
}

func TestRunCommandJSONOutput(t *testing.T) {
	path := writeWorkflowFile(t, t.TempDir())

	out, err := execute(t, "run", path, "--json")
	require.NoError(t, err)

	var exec workflow.Execution
	require.NoError(t, json.Unmarshal([]byte(out), &exec))
	assert.Equal(t, workflow.StatusCompleted, exec.Status)
	assert.Len(t, exec.Results, 3)
}

func TestRunCommandOutputFile(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkflowFile(t, dir)
	outFile := filepath.Join(dir, "exec.json")

	_, err := execute(t, "run", path, "--output", outFile)
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var exec workflow.Execution
	require.NoError(t, json.Unmarshal(data, &exec))
	assert.Equal(t, workflow.StatusCompleted, exec.Status)
}

func TestRunCommandTemplate(t *testing.T) {
	out, err := execute(t, "run", "--template", "data_pipeline", "--parallel")
	require.NoError(t, err)
	assert.Contains(t, out, "Extract Data")
	assert.Contains(t, out, "Validate Data")
}

func TestRunCommandUnknownTemplate(t *testing.T) {
	_, err := execute(t, "run", "--template", "no_such_template")
	assert.Error(t, err)
}

func TestRunCommandRequiresFileOrTemplate(t *testing.T) {
	_, err := execute(t, "run")
	assert.Error(t, err)

	path := writeWorkflowFile(t, t.TempDir())
	_, err = execute(t, "run", path, "--template", "data_pipeline")
	assert.Error(t, err)
}

func TestTemplatesCommand(t *testing.T) {
	out, err := execute(t, "templates")
	require.NoError(t, err)
	assert.Contains(t, out, "document_processing")
	assert.Contains(t, out, "data_pipeline")
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkflowFile(t, dir)

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok: etl")

	out, err = execute(t, "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 workflow(s) valid")
}

func TestValidateCommandRejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps: []\n"), 0o644))

	_, err := execute(t, "validate", path)
	assert.Error(t, err)
}

func TestExecutionsCommandWithSQLiteHistory(t *testing.T) {
	dir := t.TempDir()
	wfPath := writeWorkflowFile(t, dir)
	cfgPath := filepath.Join(dir, "flowline.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"history:\n  backend: sqlite\n  path: "+filepath.Join(dir, "history.db")+"\n"), 0o644))

	_, err := execute(t, "--config", cfgPath, "run", wfPath)
	require.NoError(t, err)

	// History survives into a separate invocation through the sqlite backend.
	out, err := execute(t, "--config", cfgPath, "executions")
	require.NoError(t, err)
	assert.Contains(t, out, "completed")

	out, err = execute(t, "--config", cfgPath, "executions", "--status", "failed")
	require.NoError(t, err)
	assert.NotContains(t, out, "completed")
}

func TestExecutionsCommandUnknownID(t *testing.T) {
	_, err := execute(t, "executions", "ghost")
	assert.Error(t, err)
}
