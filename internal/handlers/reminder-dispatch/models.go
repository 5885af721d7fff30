// internal/handlers/reminder-dispatch/models.go
package reminderdispatch

// Result summarizes one dispatch run for the invoker.
type Result struct {
	Message   string `json:"message"`
	Processed int    `json:"-"`
	Sent      int    `json:"-"`
	Skipped   int    `json:"-"`
	Failed    int    `json:"-"`
}

// Messages returned to the invoker
const (
	MsgNoSchedules   = "No schedules due."
	MsgRemindersSent = "Reminders sent."
)
