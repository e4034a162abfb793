// Inline tool-call recovery for local models.
//
// OpenAI-compatible local servers frequently emit the tool invocation as
// JSON inside the assistant text instead of the structured tool_calls
// field. ExtractInlineCall finds the first balanced JSON object that looks
// like {"name": ..., "parameters": {...}} and lifts it into a RawToolCall.
package llm

import (
	"encoding/json"
	"strings"
)

// ExtractInlineCall scans text for an embedded tool invocation. It returns
// nil when no parseable invocation is present, in which case the text is a
// plain reply.
func ExtractInlineCall(text string) *RawToolCall {
	blob := firstJSONBlock(stripFences(text))
	if blob == "" {
		return nil
	}

	var obj struct {
		Name       string          `json:"name"`
		Parameters json.RawMessage `json:"parameters"`
	}
	if err := json.Unmarshal([]byte(blob), &obj); err != nil {
		return nil
	}
	if obj.Name == "" || len(obj.Parameters) == 0 {
		return nil
	}
	return &RawToolCall{Name: obj.Name, Arguments: obj.Parameters}
}

// firstJSONBlock returns the first balanced {...} substring that
// json.Unmarshal accepts, or "".
func firstJSONBlock(text string) string {
	depth := 0
	start := -1
	for i, ch := range text {
		switch ch {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				candidate := text[start : i+1]
				if json.Valid([]byte(candidate)) {
					return candidate
				}
			}
		}
	}
	return ""
}

// stripFences unwraps a ```-fenced code block, taking the fenced body.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	parts := strings.Split(s, "```")
	if len(parts) < 3 {
		return s
	}
	body := parts[1]
	// Drop an optional language tag on the opening fence.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		head := strings.TrimSpace(body[:nl])
		if head != "" && !strings.ContainsAny(head, "{}") {
			body = body[nl+1:]
		}
	}
	return strings.TrimSpace(body)
}
