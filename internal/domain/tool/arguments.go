package tool

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidArguments = errors.New("invalid arguments")

// ArgumentsFromJSON coerces a JSON object into Arguments. Strings are used
// as-is, numbers and booleans keep their JSON text, null is treated as
// absent, and nested objects or arrays are rejected. Empty input yields no
// arguments.
func ArgumentsFromJSON(raw json.RawMessage) (Arguments, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Arguments{}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: arguments must be a json object", ErrInvalidArguments)
	}

	args := make(Arguments, len(fields))
	for name, value := range fields {
		value = bytes.TrimSpace(value)
		if len(value) == 0 || bytes.Equal(value, []byte("null")) {
			continue
		}
		switch value[0] {
		case '"':
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidArguments, name, err)
			}
			args[name] = s
		case '{', '[':
			return nil, fmt.Errorf("%w: %q must be a string, number or boolean", ErrInvalidArguments, name)
		default:
			args[name] = string(value)
		}
	}
	return args, nil
}
