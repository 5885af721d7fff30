// internal/handlers/notify-managers/validation.go
package notifymanagers

import "aquacare/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	one := float64(1)
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"aquariumId", "diseaseId"},
		Properties: map[string]validation.Property{
			"aquariumId": {
				Type:        "integer",
				Description: "Identifier of the affected aquarium",
				Minimum:     &one,
			},
			"diseaseId": {
				Type:        "integer",
				Description: "Identifier of the detected disease",
				Minimum:     &one,
			},
		},
		AdditionalProperties: false,
	}
}
