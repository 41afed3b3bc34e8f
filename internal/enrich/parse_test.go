package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]any
	}{
		{"bare", `{"a":1}`, map[string]any{"a": float64(1)}},
		{"json fence", "```json\n{\"a\":1}\n```", map[string]any{"a": float64(1)}},
		{"upper fence", "```JSON\n{\"a\":1}\n```", map[string]any{"a": float64(1)}},
		{"plain fence", "```\n{\"a\":1}\n```", map[string]any{"a": float64(1)}},
		{"prose around", `prefix {"a":1} suffix`, map[string]any{"a": float64(1)}},
		{"nested", `Sure: {"a":{"b":"c"}} done`, map[string]any{"a": map[string]any{"b": "c"}}},
		{"not json", "I cannot help with that", nil},
		{"broken braces", `{"a": }`, nil},
		{"array", `[1,2]`, nil},
		{"null", `null`, nil},
		{"empty", "", nil},
		{"reversed braces", "} nope {", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONObject(tt.in))
		})
	}
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`  {"a":1}  `))
}
