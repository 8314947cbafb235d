package intel

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// cleanJSONResponse strips markdown code fences the model tends to wrap JSON in.
func cleanJSONResponse(text string) string {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// decodeLooseJSON unmarshals a model response that should be a JSON object.
// When the cleaned text does not parse, it falls back to the outermost brace
// delimited span.
func decodeLooseJSON(text string, v any) error {
	cleaned := cleanJSONResponse(text)
	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}

	match := jsonObjectPattern.FindString(cleaned)
	if match == "" {
		return fmt.Errorf("response contains no JSON object: %q", text)
	}
	if err := json.Unmarshal([]byte(match), v); err != nil {
		return fmt.Errorf("decode response JSON: %w", err)
	}
	return nil
}
