package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherExecuteStepSuccess(t *testing.T) {
	d := NewDispatcher()

	result := d.ExecuteStep(context.Background(),
		Step{Type: "extract", Name: "Extract Data"},
		Data{"source": "db"})

	assert.Equal(t, "Extract Data", result.Step)
	assert.Equal(t, "extract", result.Type)
	assert.Equal(t, ResultCompleted, result.Status)
	assert.False(t, result.Timestamp.IsZero())
	assert.Empty(t, result.Error)
	require.NotNil(t, result.Output)
	assert.Equal(t, "db", result.Output["source"])
	assert.Equal(t, true, result.Output["extracted"])
}

func TestDispatcherUnknownTypeUsesGeneric(t *testing.T) {
	d := NewDispatcher()

	input := Data{"key": "value"}
	result := d.ExecuteStep(context.Background(),
		Step{Type: "levitate", Name: "Defy Gravity"}, input)

	assert.Equal(t, ResultCompleted, result.Status)
	assert.Equal(t, "levitate", result.Type)
	assert.Equal(t, "value", result.Output["key"])

	// The generic handler echoes a copy, not the caller's map.
	result.Output["key"] = "tampered"
	assert.Equal(t, "value", input["key"])
}

func TestDispatcherHandlerErrorBecomesFailedResult(t *testing.T) {
	d := NewDispatcher()
	d.Register("explode", func(ctx context.Context, input Data, config map[string]any) (map[string]any, error) {
		return nil, errors.New("boom")
	})

	result := d.ExecuteStep(context.Background(),
		Step{Type: "explode", Name: "Explode"}, Data{})

	assert.Equal(t, ResultFailed, result.Status)
	assert.Equal(t, "Explode", result.Step)
	assert.Contains(t, result.Error, "boom")
	assert.Nil(t, result.Output)
	assert.False(t, result.Timestamp.IsZero())
}

func TestDispatcherHandlerPanicIsContained(t *testing.T) {
	d := NewDispatcher()
	d.Register("panic", func(ctx context.Context, input Data, config map[string]any) (map[string]any, error) {
		panic("handler gone wrong")
	})

	var result StepResult
	assert.NotPanics(t, func() {
		result = d.ExecuteStep(context.Background(),
			Step{Type: "panic", Name: "Panic"}, Data{})
	})

	assert.Equal(t, ResultFailed, result.Status)
	assert.Contains(t, result.Error, "handler panic")
	assert.Contains(t, result.Error, "handler gone wrong")
	assert.Nil(t, result.Output)
}

func TestDispatcherRegisterReplacesHandler(t *testing.T) {
	d := NewDispatcher()
	d.Register("extract", func(ctx context.Context, input Data, config map[string]any) (map[string]any, error) {
		return map[string]any{"custom": true}, nil
	})

	result := d.ExecuteStep(context.Background(),
		Step{Type: "extract", Name: "Custom Extract"}, Data{})

	require.Equal(t, ResultCompleted, result.Status)
	assert.Equal(t, true, result.Output["custom"])
	assert.NotContains(t, result.Output, "extracted")
}

func TestDispatcherRegisterNilIsIgnored(t *testing.T) {
	d := NewDispatcher()
	before := len(d.Types())
	d.Register("nothing", nil)
	assert.Len(t, d.Types(), before)
}

func TestDispatcherBuiltinTypes(t *testing.T) {
	d := NewDispatcher()

	types := d.Types()
	for _, want := range []string{
		"upload", "ocr", "analyze", "store",
		"extract", "transform", "validate", "load",
		"notify", "condition",
	} {
		assert.Contains(t, types, want)
	}
}

func TestDispatcherConditionHandler(t *testing.T) {
	d := NewDispatcher()

	result := d.ExecuteStep(context.Background(),
		Step{Type: "condition", Name: "Check Count", Config: map[string]any{"condition": "count > 10"}},
		Data{"count": int64(15)})

	require.Equal(t, ResultCompleted, result.Status)
	assert.Equal(t, true, result.Output["condition_met"])
	assert.Equal(t, "true", result.Output["branch"])

	result = d.ExecuteStep(context.Background(),
		Step{Type: "condition", Name: "Check Count", Config: map[string]any{"condition": "count > 10"}},
		Data{"count": int64(5)})

	require.Equal(t, ResultCompleted, result.Status)
	assert.Equal(t, false, result.Output["condition_met"])
	assert.Equal(t, "false", result.Output["branch"])
}

func TestDispatcherCancelledContextFailsStep(t *testing.T) {
	d := NewDispatcher()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := d.ExecuteStep(ctx, Step{Type: "store", Name: "Store"}, Data{})
	assert.Equal(t, ResultFailed, result.Status)
	assert.Contains(t, result.Error, "context canceled")
}

func TestDispatcherSequentialChaining(t *testing.T) {
	d := NewDispatcher()
	ctx := context.Background()

	extract := d.ExecuteStep(ctx, Step{Type: "extract", Name: "Extract"}, Data{"source": "db"})
	require.Equal(t, ResultCompleted, extract.Status)

	transform := d.ExecuteStep(ctx, Step{Type: "transform", Name: "Transform"}, Data(extract.Output))
	require.Equal(t, ResultCompleted, transform.Status)
	assert.Equal(t, int64(100), transform.Output["records"])
}
