// internal/handlers/reminder-dispatch/render.go
package reminderdispatch

import "strings"

// Render substitutes {{field}} tokens in tmpl with the given values and
// strips any tokens left unresolved. It is a pure function: the template
// string is injected by the caller, never read from disk here.
func Render(tmpl string, fields map[string]string) string {
	result := tmpl

	for k, v := range fields {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}

	// Remove remaining placeholders so missing values never leak raw
	// {{tokens}} into an outbound email.
	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}
