// internal/models/aquarium.go
package models

import "time"

type Aquarium struct {
	ID            int64  `json:"id"`
	OwnerID       string `json:"ownerId"`
	Name          string `json:"name"`
	Liters        int    `json:"liters,omitempty"`
	SickFishCount int    `json:"sickFishCount"`
}

// DiseaseOccurrence records a disease being observed in an aquarium.
type DiseaseOccurrence struct {
	ID         int64     `json:"id"`
	AquariumID int64     `json:"aquariumId"`
	DiseaseID  int64     `json:"diseaseId"`
	FishCount  int       `json:"fishCount"`
	NotedAt    time.Time `json:"notedAt"`
}
