// internal/handlers/disease-search/handler.go
package diseasesearch

import (
	"context"
	"net/http"
	"time"

	"aquacare/internal/api/respond"
	"aquacare/internal/common/logger"
)

type Handler struct {
	service *Service
	logger  logger.Logger
	timeout time.Duration
}

func NewHandler(service *Service, log logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log.WithFields(map[string]interface{}{"handler": "disease-search"}),
		timeout: service.config.Timeout,
	}
}

// Handle processes GET /api/v1/diseases/search?q=<query>.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	output, err := h.service.Search(ctx, r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("disease search failed", map[string]interface{}{
			"query": r.URL.Query().Get("q"),
			"error": err,
		})
		respond.MapError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, output)
}
