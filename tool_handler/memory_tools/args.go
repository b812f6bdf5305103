package memorytools

import (
	"fmt"
	"math"
	"slices"

	"github.com/w-h-a/reasoningbank/memory"
	getsafe "github.com/w-h-a/reasoningbank/util/get_safe"
)

var roles = []string{"user", "assistant", "tool"}

// optionalString returns "" for a missing or null argument.
func optionalString(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", nil
	}

	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("argument '%s' has invalid type: expected string, got %T", key, raw)
	}

	return s, nil
}

func requiredString(args map[string]any, key string) (string, error) {
	if raw, ok := args[key]; !ok || raw == nil {
		return "", fmt.Errorf("missing '%s' argument", key)
	}
	return optionalString(args, key)
}

func optionalInt(args map[string]any, key string) (*int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}

	n, ok := getsafe.Int(args, key)
	if !ok {
		return nil, fmt.Errorf("argument '%s' has invalid type: expected integer, got %T", key, raw)
	}

	return &n, nil
}

func optionalFloat(args map[string]any, key string) (*float64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}

	f, ok := getsafe.Float(args, key)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("argument '%s' has invalid type: expected number, got %T", key, raw)
	}

	return &f, nil
}

func optionalBool(args map[string]any, key string) (*bool, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}

	b, ok := getsafe.Bool(args, key)
	if !ok {
		return nil, fmt.Errorf("argument '%s' has invalid type: expected boolean, got %T", key, raw)
	}

	return &b, nil
}

func trajectory(args map[string]any) ([]memory.Step, error) {
	raw, ok := args["trajectory"]
	if !ok || raw == nil {
		return nil, fmt.Errorf("missing 'trajectory' argument")
	}

	items, ok := getsafe.Slice(args, "trajectory")
	if !ok {
		return nil, fmt.Errorf("argument 'trajectory' has invalid type: expected array, got %T", raw)
	}

	steps := make([]memory.Step, 0, len(items))

	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("trajectory[%d] has invalid type: expected object, got %T", i, item)
		}

		n, ok := getsafe.Int(obj, "step")
		if !ok {
			return nil, fmt.Errorf("trajectory[%d].step must be an integer", i)
		}

		role := getsafe.String(obj, "role")
		if !slices.Contains(roles, role) {
			return nil, fmt.Errorf("trajectory[%d].role must be one of %v, got %q", i, roles, role)
		}

		content, ok := obj["content"].(string)
		if !ok {
			return nil, fmt.Errorf("trajectory[%d].content must be a string", i)
		}

		steps = append(steps, memory.Step{
			Step:     n,
			Role:     role,
			Content:  content,
			Metadata: getsafe.Metadata(obj, "metadata"),
		})
	}

	return steps, nil
}
