// internal/handlers/sick-fish/handler.go
package sickfish

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"aquacare/internal/api/respond"
	"aquacare/internal/common/logger"
	"aquacare/internal/common/validation"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
	logger  logger.Logger
	timeout time.Duration
}

func NewHandler(service *Service, timeout time.Duration, log logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log.WithFields(map[string]interface{}{"handler": "sick-fish"}),
		timeout: timeout,
	}
}

// Handle processes POST /api/v1/aquariums/{id}/diseases.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	aquariumID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid aquarium id")
		return
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if result := validation.ValidateInput(raw, GetInputSchema()); !result.Valid {
		respond.Error(w, http.StatusUnprocessableEntity, strings.Join(result.GetErrorMessages(), "; "))
		return
	}

	input := &Input{DiseaseID: int64(raw["diseaseId"].(float64))}
	if count, ok := raw["fishCount"].(float64); ok {
		input.FishCount = int(count)
	}

	output, err := h.service.Record(ctx, aquariumID, input)
	if err != nil {
		h.logger.Error("failed to record disease occurrence", map[string]interface{}{
			"aquarium_id": aquariumID,
			"error":       err,
		})
		respond.MapError(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, output)
}
