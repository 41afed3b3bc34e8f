package enrich

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// ExtractJSONObject recovers a JSON object from a model reply. Markdown
// fences are stripped first; if the remainder does not parse, the span from
// the first '{' to the last '}' is tried. It returns nil when neither parses
// to an object.
func ExtractJSONObject(text string) map[string]any {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	cleaned := stripFences(text)

	obj, err := decodeObject(cleaned)
	if err == nil {
		return obj
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		zap.L().Warn("enrich: no json object in model reply",
			zap.Error(err),
			zap.String("raw", text),
		)
		return nil
	}

	obj, fallbackErr := decodeObject(cleaned[start : end+1])
	if fallbackErr != nil {
		zap.L().Warn("enrich: failed to parse model reply",
			zap.Error(fallbackErr),
			zap.String("raw", text),
		)
		return nil
	}
	return obj
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(strings.ToLower(text), "```json"):
		text = text[len("```json"):]
	case strings.HasPrefix(text, "```"):
		text = text[len("```"):]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func decodeObject(s string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errNotObject
	}
	return obj, nil
}
