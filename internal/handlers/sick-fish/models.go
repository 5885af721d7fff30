// internal/handlers/sick-fish/models.go
package sickfish

// Input is the request body for recording a disease occurrence.
type Input struct {
	DiseaseID int64 `json:"diseaseId"`
	FishCount int   `json:"fishCount"`
}

// Output is returned after the occurrence is recorded.
type Output struct {
	Message       string `json:"message"`
	AquariumID    int64  `json:"aquariumId"`
	SickFishCount int    `json:"sickFishCount"`
}

const MsgOccurrenceRecorded = "Disease occurrence recorded."
