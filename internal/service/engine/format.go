package engine

import (
	"fmt"
	"strings"
)

const promptHeader = "Below are some memory items I accumulated from past interactions that may help solve the task. Use them when you find them relevant."

// FormatPrompt renders ranked memories for injection into an agent's
// context. The output depends only on the input order and content.
func FormatPrompt(memories []RetrievedMemory) string {
	if len(memories) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(promptHeader)

	for i, mem := range memories {
		label := "✓ Success"
		if !mem.Success {
			label = "✗ Failure lesson"
		}
		fmt.Fprintf(&b, "\n\n**Memory %d [%s] - %s**\n%s", i+1, label, mem.Title, mem.Content)
	}

	return b.String()
}
