package extractor

import (
	"encoding/json"
	"errors"
	"strings"
)

type judgment struct {
	Success    bool
	Confidence float64
	Conclusive bool
	Reason     string
}

type item struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Confidence  *float64 `json:"confidence"`
}

var errNoJSON = errors.New("no JSON object in response")

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(rsp string) string {
	rsp = strings.TrimSpace(rsp)
	if !strings.HasPrefix(rsp, "```") {
		return rsp
	}

	rsp = strings.TrimPrefix(rsp, "```")
	if nl := strings.IndexByte(rsp, '\n'); nl >= 0 && !strings.ContainsAny(rsp[:nl], "{[") {
		rsp = rsp[nl+1:]
	}
	rsp = strings.TrimSuffix(strings.TrimSpace(rsp), "```")

	return strings.TrimSpace(rsp)
}

// decodeJSON decodes the first JSON value in rsp into v, tolerating
// fences and prose around it.
func decodeJSON(rsp string, v any) error {
	body := stripFences(rsp)

	if err := json.Unmarshal([]byte(body), v); err == nil {
		return nil
	}

	start := strings.IndexAny(body, "{[")
	if start < 0 {
		return errNoJSON
	}

	closer := byte('}')
	if body[start] == '[' {
		closer = ']'
	}

	end := strings.LastIndexByte(body, closer)
	if end <= start {
		return errNoJSON
	}

	return json.Unmarshal([]byte(body[start:end+1]), v)
}

// parseJudgment never fails: anything but an explicit verdict is
// inconclusive, which callers treat as failure.
func parseJudgment(rsp string) judgment {
	var raw struct {
		Result     string   `json:"result"`
		Confidence *float64 `json:"confidence"`
		Reason     string   `json:"reason"`
	}

	if err := decodeJSON(rsp, &raw); err != nil {
		return judgment{}
	}

	j := judgment{Reason: raw.Reason}

	switch strings.ToLower(strings.TrimSpace(raw.Result)) {
	case "success":
		j.Success = true
		j.Conclusive = true
	case "failure":
		j.Conclusive = true
	default:
		return judgment{Reason: raw.Reason}
	}

	if raw.Confidence != nil && validConfidence(*raw.Confidence) {
		j.Confidence = *raw.Confidence
	}

	return j
}

// parseItems accepts {"memories": [...]} or a bare array. Items without a
// title or content are dropped.
func parseItems(rsp string) ([]item, error) {
	var wrapped struct {
		Memories *[]item `json:"memories"`
	}

	var items []item

	if err := decodeJSON(rsp, &wrapped); err == nil && wrapped.Memories != nil {
		items = *wrapped.Memories
	} else if err := decodeJSON(rsp, &items); err != nil {
		return nil, err
	}

	valid := make([]item, 0, len(items))
	for _, it := range items {
		it.Title = strings.TrimSpace(it.Title)
		it.Description = strings.TrimSpace(it.Description)
		it.Content = strings.TrimSpace(it.Content)
		if len(it.Title) == 0 || len(it.Content) == 0 {
			continue
		}
		valid = append(valid, it)
	}

	return valid, nil
}

func validConfidence(c float64) bool {
	return c >= 0 && c <= 1
}
