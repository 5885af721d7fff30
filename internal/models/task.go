// internal/models/task.go
package models

import "time"

// ScheduledTask is one due-date occurrence of a maintenance task assigned
// to a user, optionally tied to an aquarium. Read-only from the dispatch
// job's perspective.
type ScheduledTask struct {
	ID          int64     `json:"id"`
	ScheduledAt time.Time `json:"scheduledAt"`
	UserID      string    `json:"userId"`
	TaskKindID  int64     `json:"taskKindId"`
	AquariumID  *int64    `json:"aquariumId,omitempty"`
}

// TaskKind is static reference data: task-type id to human-readable
// description.
type TaskKind struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
}
