package handlers

import (
	"net/http"

	"github.com/bigkaa/goartstore/image-module/internal/config"
)

// rootResponse — описание API.
type rootResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// GetRoot — описание API со списком endpoints.
func (h *APIHandler) GetRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Message: "ESP32-CAM Image Upload API",
		Version: config.Version,
		Endpoints: map[string]string{
			"upload":      "/upload",
			"images":      "/images",
			"image_by_id": "/images/{image_id}",
			"delete":      "/images/{image_id}/delete",
		},
	})
}
