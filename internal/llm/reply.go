package llm

import (
	"encoding/json"
	"strings"
)

// FallbackReply is returned when a completion carries no recognizable
// reply text. A turn always produces a reply, even for unexpected
// provider shapes; callers log when this fires.
const FallbackReply = "…"

// replyFields are the alternate payload fields probed, in order, when the
// primary text content is empty. Covers the response shapes seen across
// providers and proxies.
var replyFields = []string{"content", "reply", "response", "output_text", "text"}

// ExtractReply extracts reply text from a completion. It prefers the
// primary text content, then probes known alternate shapes in the raw
// payload, and finally falls back to FallbackReply. The boolean reports
// whether a recognizable reply was found (false means the fallback was
// used).
func ExtractReply(c *Completion) (string, bool) {
	if c != nil {
		if text := strings.TrimSpace(c.Text); text != "" {
			return text, true
		}
		if text := probeRaw(c.Raw); text != "" {
			return text, true
		}
	}
	return FallbackReply, false
}

func probeRaw(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}

	for _, field := range replyFields {
		if text := stringField(payload, field); text != "" {
			return text
		}
	}

	// One level of nesting: {"message": {"content": "..."}}
	if inner, ok := payload["message"].(map[string]any); ok {
		for _, field := range replyFields {
			if text := stringField(inner, field); text != "" {
				return text
			}
		}
	}

	return ""
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
