// internal/handlers/reminder-dispatch/handler.go
package reminderdispatch

import (
	"context"
	"net/http"
	"time"

	"aquacare/internal/api/respond"
	"aquacare/internal/common/logger"
	"aquacare/internal/common/metrics"
	"aquacare/internal/common/observability"
)

type Handler struct {
	service *Service
	obs     *observability.Observability
	logger  logger.Logger
	timeout time.Duration
}

func NewHandler(service *Service, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		service: service,
		obs:     obs,
		logger:  log.WithFields(map[string]interface{}{"handler": "reminder-dispatch"}),
		timeout: service.config.Timeout,
	}
}

// Handle processes POST /api/v1/reminders/dispatch. No request body is
// expected; the invocation itself is the trigger.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	start := time.Now()

	result, err := h.service.Run(ctx)
	if err != nil {
		metrics.ReminderDispatchRuns.WithLabelValues("error").Inc()
		h.obs.RecordDispatchRun(ctx, "error")
		h.obs.RecordDispatchDuration(ctx, time.Since(start), "error")
		h.logger.Error("dispatch run failed", map[string]interface{}{"error": err})
		respond.MapError(w, err)
		return
	}

	metrics.ReminderDispatchRuns.WithLabelValues("ok").Inc()
	h.obs.RecordDispatchRun(ctx, "ok")
	h.obs.RecordDispatchDuration(ctx, time.Since(start), "ok")

	respond.JSON(w, http.StatusOK, result)
}
