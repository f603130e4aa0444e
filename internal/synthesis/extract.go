package synthesis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonesrussell/studysearch/internal/domain"
)

// DecodeJSON strips any markdown code fences from the model response and
// unmarshals the remainder into v. A response that does not parse as the
// expected shape yields domain.ErrMalformedOutput so callers can tell
// "model produced garbage" apart from "model unreachable".
func DecodeJSON(raw string, v any) error {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		return fmt.Errorf("%w: empty response", domain.ErrMalformedOutput)
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedOutput, err)
	}
	return nil
}

// stripCodeFences removes a markdown code fence wrapping from a string.
// Handles ```json, bare ```, and other language specifiers.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)

	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	firstNewline := strings.Index(trimmed, "\n")
	if firstNewline == -1 {
		return trimmed
	}
	lastFence := strings.LastIndex(trimmed, "```")
	if lastFence <= firstNewline {
		return trimmed
	}
	return strings.TrimSpace(trimmed[firstNewline+1 : lastFence])
}
