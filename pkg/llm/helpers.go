package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ExtractJSONFromResponse attempts to extract JSON from LLM responses that may
// contain markdown code blocks or other surrounding text.
func ExtractJSONFromResponse(response string) string {
	response = strings.TrimSpace(response)

	// Check for ```json ... ``` pattern
	if strings.Contains(response, "```json") {
		start := strings.Index(response, "```json")
		end := strings.Index(response[start+7:], "```")
		if end != -1 {
			return strings.TrimSpace(response[start+7 : start+7+end])
		}
	}

	// Check for ``` ... ``` pattern
	if strings.HasPrefix(response, "```") {
		lines := strings.Split(response, "\n")
		if len(lines) > 2 {
			return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
		}
	}

	// Try to find JSON object boundaries
	jsonStart := strings.Index(response, "{")
	jsonEnd := strings.LastIndex(response, "}")
	if jsonStart != -1 && jsonEnd != -1 && jsonEnd > jsonStart {
		return response[jsonStart : jsonEnd+1]
	}

	return response
}

// DecodeJSONResponse unmarshals an untrusted model reply into target.
// The reply is stripped of surrounding prose, repaired with jsonrepair, and
// only then decoded. Any failure returns an error; callers fall back to their
// documented defaults rather than propagating it.
func DecodeJSONResponse(response string, target interface{}) error {
	candidate := ExtractJSONFromResponse(response)

	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		repaired = candidate
	}

	if err := json.Unmarshal([]byte(repaired), target); err != nil {
		return fmt.Errorf("model reply is not valid JSON: %w", err)
	}
	return nil
}
