package llm

import (
	"encoding/json"
	"log"
	"strings"
)

// ParseJSONResponse parses a JSON object from an LLM response. It strips
// markdown code fences and, failing a whole-text parse, retries on the
// slice between the first '{' and the last '}'.
func ParseJSONResponse(text string) map[string]any {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	// Strip markdown code fences
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		endIdx := len(lines) - 1
		for i := len(lines) - 1; i > 0; i-- {
			if strings.TrimSpace(lines[i]) == "```" {
				endIdx = i
				break
			}
		}
		text = strings.Join(lines[1:endIdx], "\n")
	}

	var result map[string]any
	err := json.Unmarshal([]byte(text), &result)
	if err == nil {
		return result
	}

	if slice := OutermostObject(text); slice != "" && slice != text {
		if json.Unmarshal([]byte(slice), &result) == nil {
			return result
		}
	}

	log.Printf("Failed to parse LLM response as JSON: %v", err)
	return nil
}

// OutermostObject returns text from its first '{' through its last '}',
// or "" when there is no such span.
func OutermostObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}
