// internal/models/disease.go
package models

type Disease struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Severity  string `json:"severity"` // "low", "moderate", "high", "critical"
	Symptoms  string `json:"symptoms,omitempty"`
	Treatment string `json:"treatment,omitempty"`
}

// Severities
const (
	SeverityLow      = "low"
	SeverityModerate = "moderate"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)
