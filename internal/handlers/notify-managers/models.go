// internal/handlers/notify-managers/models.go
package notifymanagers

// Input is the request body for a manager notification.
type Input struct {
	AquariumID int64 `json:"aquariumId"`
	DiseaseID  int64 `json:"diseaseId"`
}

// Output is returned after the notification fan-out completes.
type Output struct {
	Message  string `json:"message"`
	Notified int    `json:"notified"`
}

const MsgManagersNotified = "Managers notified."
