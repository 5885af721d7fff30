// internal/common/scheduler/scheduler.go
package scheduler

import (
	"context"
	"time"

	"aquacare/internal/common/logger"

	"github.com/robfig/cron/v3"
)

// RunFunc is the reminder dispatch entry point the scheduler drives.
type RunFunc func(ctx context.Context) error

// Scheduler triggers the reminder dispatch job in-process. It is optional;
// deployments that invoke the dispatch endpoint from an external scheduler
// leave it disabled.
type Scheduler struct {
	engine  *cron.Cron
	runner  RunFunc
	spec    string
	timeout time.Duration
	logger  logger.Logger
}

func New(runner RunFunc, spec string, timeout time.Duration, log logger.Logger) *Scheduler {
	return &Scheduler{
		engine:  cron.New(cron.WithLocation(time.Local)),
		runner:  runner,
		spec:    spec,
		timeout: timeout,
		logger:  log,
	}
}

func (s *Scheduler) Start() error {
	_, err := s.engine.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.runner(ctx); err != nil {
			s.logger.Error("scheduled dispatch run failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	})
	if err != nil {
		return err
	}

	s.engine.Start()
	s.logger.Info("dispatch scheduler started", map[string]interface{}{"spec": s.spec})
	return nil
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	ctx := s.engine.Stop()
	<-ctx.Done()
	s.logger.Info("dispatch scheduler stopped", nil)
}
