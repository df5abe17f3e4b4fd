// handler.go — основной обработчик API, реализующий generated.ServerInterface.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bigkaa/goartstore/image-module/internal/service"
)

// APIHandler — основной обработчик API Image Module.
// Реализует generated.ServerInterface, делегируя запросы в сервисный слой.
type APIHandler struct {
	health  *HealthHandler
	images  *service.ImageService
	openapi http.Handler
	logger  *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
// openapi — обработчик /openapi.json (может быть nil, тогда 404).
func NewAPIHandler(
	health *HealthHandler,
	images *service.ImageService,
	openapi http.Handler,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:  health,
		images:  images,
		openapi: openapi,
		logger:  logger.With(slog.String("component", "api_handler")),
	}
}

// Health — состояние сервиса (делегируется в HealthHandler).
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.health.Health(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// GetOpenAPI — OpenAPI документ API.
func (h *APIHandler) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	if h.openapi == nil {
		http.NotFound(w, r)
		return
	}
	h.openapi.ServeHTTP(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
