// internal/handlers/delete-user/handler.go
package deleteuser

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"aquacare/internal/api/respond"
	"aquacare/internal/common/logger"
)

type Handler struct {
	service *Service
	logger  logger.Logger
}

func NewHandler(service *Service, log logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log.WithFields(map[string]interface{}{"handler": "delete-user"}),
	}
}

// Handle processes DELETE /api/v1/users/{id}.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		respond.Error(w, http.StatusBadRequest, "user id is required")
		return
	}

	output, err := h.service.Execute(r.Context(), userID)
	if err != nil {
		respond.MapError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, output)
}
