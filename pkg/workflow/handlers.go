package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowline-dev/flowline/pkg/workflow/condition"
)

// simulatedLatency is the fixed pause builtin handlers take in place of the
// real I/O a production handler would perform.
const simulatedLatency = 10 * time.Millisecond

// registerBuiltins installs the builtin handler table.
//
// Every handler here except condition is a placeholder simulation: in a full
// system they are external collaborators (a real OCR service, a real storage
// layer) plugged in through Register with the same Handler contract.
func registerBuiltins(d *Dispatcher) {
	eval := condition.New(d.logger)

	d.Register("upload", uploadHandler)
	d.Register("ocr", ocrHandler)
	d.Register("analyze", analyzeHandler)
	d.Register("store", storeHandler)
	d.Register("extract", extractHandler)
	d.Register("transform", transformHandler)
	d.Register("validate", validateHandler)
	d.Register("load", loadHandler)
	d.Register("notify", notifyHandler)
	d.Register("condition", func(ctx context.Context, input Data, config map[string]any) (map[string]any, error) {
		return conditionHandler(ctx, eval, input, config)
	})
}

// pause sleeps for the handler's simulated latency, honoring cancellation.
// Step configs may stretch it with delay_ms, which tests use to exercise
// completion-order jitter.
func pause(ctx context.Context, config map[string]any) error {
	d := simulatedLatency
	if ms := Data(config).GetInt64Or("delay_ms", 0); ms > 0 {
		d = time.Duration(ms) * time.Millisecond
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func uploadHandler(ctx context.Context, input Data, config map[string]any) (map[string]any, error) {
	if err := pause(ctx, config); err != nil {
		return nil, err
	}
	return map[string]any{
		"uploaded": true,
		"file_id":  uuid.NewString(),
		"filename": input.GetStringOr("filename", "unnamed"),
	}, nil
}

func ocrHandler(ctx context.Context, input Data, config map[string]any) (map[string]any, error) {
	if err := pause(ctx, config); err != nil {
		return nil, err
	}
	return map[string]any{
		"text":       fmt.Sprintf("extracted text from %s", input.GetStringOr("filename", "document")),
		"confidence": 0.95,
		"pages":      1,
	}, nil
}

func analyzeHandler(ctx context.Context, input Data, config map[string]any) (map[string]any, error) {
	if err := pause(ctx, config); err != nil {
		return nil, err
	}
	text := input.GetStringOr("text", "")
	return map[string]any{
		"analyzed":   true,
		"characters": len(text),
		"summary":    fmt.Sprintf("analysis of %d characters", len(text)),
	}, nil
}

func storeHandler(ctx context.Context, input Data, config map[string]any) (map[string]any, error) {
	if err := pause(ctx, config); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	return map[string]any{
		"stored":    true,
		"record_id": id,
		"location":  fmt.Sprintf("memory://records/%s", id),
	}, nil
}

func extractHandler(ctx context.Context, input Data, config map[string]any) (map[string]any, error) {
	if err := pause(ctx, config); err != nil {
		return nil, err
	}
	return map[string]any{
		"extracted": true,
		"source":    input.GetStringOr("source", "unknown"),
		"records":   int64(100),
	}, nil
}

func transformHandler(ctx context.Context, input Data, config map[string]any) (map[string]any, error) {
	if err := pause(ctx, config); err != nil {
		return nil, err
	}
	return map[string]any{
		"transformed": true,
		"records":     input.GetInt64Or("records", 0),
		"format":      Data(config).GetStringOr("format", "normalized"),
	}, nil
}

func validateHandler(ctx context.Context, input Data, config map[string]any) (map[string]any, error) {
	if err := pause(ctx, config); err != nil {
		return nil, err
	}
	return map[string]any{
		"valid":   true,
		"records": input.GetInt64Or("records", 0),
		"errors":  int64(0),
	}, nil
}

func loadHandler(ctx context.Context, input Data, config map[string]any) (map[string]any, error) {
	if err := pause(ctx, config); err != nil {
		return nil, err
	}
	return map[string]any{
		"loaded":      true,
		"records":     input.GetInt64Or("records", 0),
		"destination": Data(config).GetStringOr("destination", "warehouse"),
	}, nil
}

func notifyHandler(ctx context.Context, input Data, config map[string]any) (map[string]any, error) {
	if err := pause(ctx, config); err != nil {
		return nil, err
	}
	return map[string]any{
		"notified": true,
		"channel":  Data(config).GetStringOr("channel", "default"),
	}, nil
}

// conditionHandler evaluates the config-supplied expression against the
// current data context. The branch outcome is plain step output: the engine
// applies no skip or goto logic, but a later step sees condition_met and
// branch in its input under sequential chaining.
func conditionHandler(ctx context.Context, eval *condition.Evaluator, input Data, config map[string]any) (map[string]any, error) {
	if err := pause(ctx, config); err != nil {
		return nil, err
	}
	expr := Data(config).GetStringOr("condition", "")
	res := eval.Evaluate(expr, input)
	return map[string]any{
		"condition_met": res.Met,
		"branch":        res.Branch(),
	}, nil
}

// genericHandler is the fallback for unrecognized step types: it echoes the
// input unchanged and reports completion.
func genericHandler(ctx context.Context, input Data, config map[string]any) (map[string]any, error) {
	if err := pause(ctx, config); err != nil {
		return nil, err
	}
	return map[string]any(input.Clone()), nil
}
