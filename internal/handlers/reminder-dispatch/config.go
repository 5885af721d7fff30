// internal/handlers/reminder-dispatch/config.go
package reminderdispatch

import "time"

type Config struct {
	// Window is the forward-looking interval [now, now+Window) scanned on
	// each invocation. The job must be triggered at least once per window
	// or due tasks are silently dropped.
	Window    time.Duration
	Subject   string
	FromEmail string
	Timeout   time.Duration
}
