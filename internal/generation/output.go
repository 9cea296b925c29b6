package generation

import (
	"encoding/json"
	"fmt"
	"strings"
)

type modelOutput struct {
	HTMLCode *string `json:"html_code"`
}

// ExtractMarkup pulls the html_code field out of a model answer. Markdown
// code fences around the JSON are tolerated.
func ExtractMarkup(raw string) (string, error) {
	var out modelOutput
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	if out.HTMLCode == nil || strings.TrimSpace(*out.HTMLCode) == "" {
		return "", ErrInvalidOutput
	}
	return *out.HTMLCode, nil
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}
