package condition

import (
	"log/slog"
	"strings"
)

// Result is the outcome of evaluating a condition expression.
type Result struct {
	// Met reports whether the condition held.
	Met bool
}

// Branch returns the branch label for the outcome, "true" or "false".
func (r Result) Branch() string {
	if r.Met {
		return "true"
	}
	return "false"
}

// operators in scan order. Two-character operators and the spaced keyword
// forms come first so that ">=" is never misread as ">" and "not in" is
// never misread as "in".
var operators = []string{">=", "<=", "==", "!=", " not in ", " in ", ">", "<"}

// Evaluator evaluates condition expressions against a flat data context.
// The zero value is usable; New attaches a logger for diagnostics.
type Evaluator struct {
	logger *slog.Logger
}

// New creates an evaluator that logs evaluation warnings to the given
// logger. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{logger: logger}
}

// Evaluate evaluates an expression against the context. It never returns an
// error: any failure to make sense of the expression degrades to a false
// result with a warning log.
func (e *Evaluator) Evaluate(expr string, context map[string]any) Result {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	expr = strings.TrimSpace(expr)
	switch expr {
	case "":
		return Result{Met: false}
	case "true":
		return Result{Met: true}
	case "false":
		return Result{Met: false}
	}

	for _, op := range operators {
		idx := strings.Index(expr, op)
		if idx < 0 {
			continue
		}

		key := strings.TrimSpace(expr[:idx])
		rhs := strings.TrimSpace(expr[idx+len(op):])

		left, ok := context[key]
		if !ok {
			logger.Warn("condition references missing context key",
				"expression", expr,
				"key", key,
			)
			return Result{Met: false}
		}

		right := parseLiteral(rhs)
		return Result{Met: e.compare(logger, expr, left, strings.TrimSpace(op), right)}
	}

	// No operator: the whole expression is a context key and the outcome is
	// that value's truthiness.
	val, ok := context[expr]
	if !ok {
		logger.Warn("condition key not present in context", "expression", expr)
		return Result{Met: false}
	}
	return Result{Met: truthy(val)}
}

// compare applies a single comparison operator.
func (e *Evaluator) compare(logger *slog.Logger, expr string, left any, op string, right any) bool {
	switch op {
	case ">", "<", ">=", "<=":
		lf, lok := toFloat(left)
		rf, rok := toFloat(right)
		if !lok || !rok {
			logger.Warn("condition operands are not numeric",
				"expression", expr,
				"operator", op,
			)
			return false
		}
		switch op {
		case ">":
			return lf > rf
		case "<":
			return lf < rf
		case ">=":
			return lf >= rf
		default:
			return lf <= rf
		}

	case "==":
		return looseEqual(left, right)

	case "!=":
		return !looseEqual(left, right)

	case "in":
		return contains(logger, expr, right, left)

	case "not in":
		return !contains(logger, expr, right, left)
	}

	return false
}

// contains tests membership of needle inside container (a list or a string).
// A non-container right-hand side yields false.
func contains(logger *slog.Logger, expr string, container, needle any) bool {
	switch c := container.(type) {
	case []any:
		for _, elem := range c {
			if looseEqual(needle, elem) {
				return true
			}
		}
		return false
	case []string:
		s, ok := needle.(string)
		if !ok {
			return false
		}
		for _, elem := range c {
			if elem == s {
				return true
			}
		}
		return false
	case string:
		s, ok := needle.(string)
		if !ok {
			return false
		}
		return strings.Contains(c, s)
	default:
		logger.Warn("condition membership target is not a list or string",
			"expression", expr,
		)
		return false
	}
}
