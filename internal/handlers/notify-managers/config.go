// internal/handlers/notify-managers/config.go
package notifymanagers

import "time"

type Config struct {
	ManagerRole  string
	FromEmail    string
	EmailEnabled bool
	SMSEnabled   bool
	Timeout      time.Duration
}
