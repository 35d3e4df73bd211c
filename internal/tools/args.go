package tools

import (
	"encoding/json"
	"fmt"

	"schedulo/internal/models"
)

// NullResult is the tool result signaling "nothing found". It is distinct
// from an error: the request was well-formed, there just were no rows.
const NullResult = "null"

// envelope marshals the uniform {message, data} tool result.
func envelope(message string, data any) string {
	out, err := json.Marshal(map[string]any{
		"message": message,
		"data":    data,
	})
	if err != nil {
		// Data came from our own structs; a marshal failure is a bug.
		return fmt.Sprintf(`{"message":%q,"data":null}`, message)
	}
	return string(out)
}

// userIDArg extracts the injected user id. Its absence is a wiring bug, not
// a model mistake, so the error is terse.
func userIDArg(args map[string]interface{}) (string, error) {
	id, ok := args[UserIDArg].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("missing user scope")
	}
	return id, nil
}

// stringArg extracts a required string argument.
func stringArg(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("required argument %q is missing: %w", key, models.ErrValidation)
	}
	return v, nil
}

// optStringArg extracts an optional string argument, returning "" when absent.
func optStringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

// optBoolArg extracts an optional boolean argument.
func optBoolArg(args map[string]interface{}, key string) (value, present bool) {
	v, ok := args[key].(bool)
	return v, ok
}

// int64Arg extracts a required integer argument. JSON numbers decode as
// float64; models occasionally send ids as strings, so both are accepted.
func int64Arg(args map[string]interface{}, key string) (int64, error) {
	switch v := args[key].(type) {
	case float64:
		return int64(v), nil
	case json.Number:
		n, err := v.Int64()
		if err == nil {
			return n, nil
		}
	case string:
		var n int64
		if _, err := fmt.Sscan(v, &n); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("required argument %q must be an integer: %w", key, models.ErrValidation)
}

// stringSliceArg extracts an optional string list argument. Returns nil
// (not an empty slice) when the argument is absent, so callers can tell
// "not supplied" from "supplied empty".
func stringSliceArg(args map[string]interface{}, key string) ([]string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		// A single bare string is accepted as a one-element list.
		if s, isStr := raw.(string); isStr {
			return []string{s}, nil
		}
		return nil, fmt.Errorf("argument %q must be a list of strings: %w", key, models.ErrValidation)
	}
	result := make([]string, 0, len(list))
	for _, item := range list {
		s, isStr := item.(string)
		if !isStr {
			return nil, fmt.Errorf("argument %q must contain only strings: %w", key, models.ErrValidation)
		}
		result = append(result, s)
	}
	return result, nil
}
