// internal/handlers/notify-managers/handler.go
package notifymanagers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"aquacare/internal/api/respond"
	"aquacare/internal/common/logger"
	"aquacare/internal/common/validation"
)

type Handler struct {
	service *Service
	logger  logger.Logger
	timeout time.Duration
}

func NewHandler(service *Service, log logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log.WithFields(map[string]interface{}{"handler": "notify-managers"}),
		timeout: service.config.Timeout,
	}
}

// Handle processes POST /api/v1/notifications/managers.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if result := validation.ValidateInput(raw, GetInputSchema()); !result.Valid {
		respond.Error(w, http.StatusUnprocessableEntity, strings.Join(result.GetErrorMessages(), "; "))
		return
	}

	input := &Input{
		AquariumID: int64(raw["aquariumId"].(float64)),
		DiseaseID:  int64(raw["diseaseId"].(float64)),
	}

	output, err := h.service.Execute(ctx, input)
	if err != nil {
		h.logger.Error("manager notification failed", map[string]interface{}{"error": err})
		respond.MapError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, output)
}
