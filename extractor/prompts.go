package extractor

import (
	"fmt"
	"strings"
)

const successTemplate = `You are an expert at distilling reusable reasoning strategies from agent work.
Analyse the following task trajectory, which completed successfully, and extract transferable strategies.

**Task query:**
%s

**Successful trajectory:**
%s

**Requirements:**
1. Explain to yourself why this trajectory succeeded.
2. Summarise the reasoning strategies and methods that would transfer to other tasks.
3. Extract at most %d memory items. Each item has:
   - "title": a short name for the strategy (5-10 words)
   - "description": one sentence on when the strategy applies
   - "content": the concrete steps and key points of the strategy
   - "confidence": a number between 0 and 1 for how reliable the strategy is

Keep strategies general rather than tied to one website or query, and make each item cover a different aspect.

**Output format (JSON only, no other text):**
` + "```json" + `
{
  "memories": [
    {
      "title": "strategy title",
      "description": "when it applies",
      "content": "detailed strategy and steps",
      "confidence": 0.8
    }
  ]
}
` + "```" + `
If nothing reusable can be learned, return {"memories": []}.
`

const failureTemplate = `You are an expert at distilling lessons from agent work.
Analyse the following task trajectory, which failed, and extract lessons and preventive strategies.

**Task query:**
%s

**Failed trajectory:**
%s

**Requirements:**
1. Reflect on why this trajectory failed.
2. Identify the key mistakes or traps that caused the failure.
3. Extract at most %d memory items (lessons). Each item has:
   - "title": a short name for the lesson (5-10 words)
   - "description": one sentence on the situation where this mistake is common
   - "content": the cause and consequence of the mistake and how to avoid it, phrased as "do not X, do Y instead"
   - "confidence": a number between 0 and 1 for how reliable the lesson is

Make each lesson cover a different cause of failure.

**Output format (JSON only, no other text):**
` + "```json" + `
{
  "memories": [
    {
      "title": "lesson title",
      "description": "where the mistake happens",
      "content": "analysis and how to avoid it",
      "confidence": 0.8
    }
  ]
}
` + "```" + `
If nothing reusable can be learned, return {"memories": []}.
`

const judgeTemplate = `You are an expert evaluator of agent task executions. Decide whether the following task was completed successfully.

**Task query:**
%s

**Trajectory:**
%s

**Criteria:**
- Did the agent achieve the goal stated in the query?
- Is the final result accurate and complete?
- Did the execution reach the expected end state?

**Output format (JSON only, no other text):**
` + "```json" + `
{
  "result": "success",
  "confidence": 0.9,
  "reason": "one or two sentences"
}
` + "```" + `
"result" must be either "success" or "failure".
`

func judgePrompt(query, trajectory string) string {
	return fmt.Sprintf(judgeTemplate, query, trajectory)
}

func extractPrompt(query, trajectory string, success bool, limit int) string {
	if success {
		return fmt.Sprintf(successTemplate, query, trajectory, limit)
	}
	return fmt.Sprintf(failureTemplate, query, trajectory, limit)
}

func embeddingText(title, description, content string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{title, description, content} {
		if p = strings.TrimSpace(p); len(p) > 0 {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}
