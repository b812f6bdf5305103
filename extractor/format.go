package extractor

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/w-h-a/reasoningbank/memory"
)

// FormatTrajectory renders steps one per line in step order.
func FormatTrajectory(steps []memory.Step) string {
	if len(steps) == 0 {
		return "(empty trajectory)"
	}

	lines := make([]string, 0, len(steps))

	for _, step := range memory.SortSteps(steps) {
		lines = append(lines, fmt.Sprintf("Step %d [%s]: %s", step.Step, roleLabel(step), step.Content))
	}

	return strings.Join(lines, "\n")
}

func roleLabel(step memory.Step) string {
	switch step.Role {
	case "user":
		return "User"
	case "assistant":
		return "Assistant"
	case "tool":
		name, _ := step.Metadata["tool_name"].(string)
		if len(name) == 0 {
			return "Tool"
		}
		if action, _ := step.Metadata["action_type"].(string); len(action) > 0 {
			return fmt.Sprintf("Tool - %s (%s)", name, action)
		}
		return "Tool - " + name
	case "":
		return "Unknown"
	default:
		r, size := utf8.DecodeRuneInString(step.Role)
		return string(unicode.ToUpper(r)) + step.Role[size:]
	}
}
