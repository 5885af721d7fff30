// internal/handlers/sick-fish/validation.go
package sickfish

import "aquacare/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	one := float64(1)
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"diseaseId"},
		Properties: map[string]validation.Property{
			"diseaseId": {
				Type:        "integer",
				Description: "Identifier of the detected disease",
				Minimum:     &one,
			},
			"fishCount": {
				Type:        "integer",
				Description: "Number of fish showing symptoms, defaults to 1",
				Minimum:     &one,
			},
		},
		AdditionalProperties: false,
	}
}
