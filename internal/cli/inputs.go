package cli

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseInputs converts repeated key=value flags into the execution's input
// context. Values that parse as JSON keep their type (numbers, booleans,
// lists); everything else is a string, so count=15 is a number and
// name=ocr-batch is not.
func parseInputs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	input := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid input %q, expected key=value", pair)
		}

		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err == nil {
			input[key] = parsed
		} else {
			input[key] = value
		}
	}
	return input, nil
}
