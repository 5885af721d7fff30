package reminderdispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     string
		fields   map[string]string
		expected string
	}{
		{
			name:     "all fields substituted",
			tmpl:     "Hello {{name}}, {{task}} at {{date}}.",
			fields:   map[string]string{"name": "Alice", "task": "water change", "date": "Mar 14"},
			expected: "Hello Alice, water change at Mar 14.",
		},
		{
			name:     "unresolved token is stripped",
			tmpl:     "Hello {{name}}, {{task}}.",
			fields:   map[string]string{"name": "Alice"},
			expected: "Hello Alice, .",
		},
		{
			name:     "empty value stays empty",
			tmpl:     "Hello {{name}}!",
			fields:   map[string]string{"name": ""},
			expected: "Hello !",
		},
		{
			name:     "no tokens",
			tmpl:     "static body",
			fields:   map[string]string{"name": "Alice"},
			expected: "static body",
		},
		{
			name:     "repeated token",
			tmpl:     "{{name}} and {{name}}",
			fields:   map[string]string{"name": "Bob"},
			expected: "Bob and Bob",
		},
		{
			name:     "dangling open braces preserved",
			tmpl:     "value {{unclosed",
			fields:   map[string]string{},
			expected: "value {{unclosed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Render(tt.tmpl, tt.fields))
		})
	}
}
