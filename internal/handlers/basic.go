package handlers

import (
	"encoding/json"
	"net/http"

	"avatar-relay/internal/models"
)

// HealthCheckHandler godoc
// @Summary Liveness check
// @Description Reports that the relay process is serving requests. Providers are not contacted.
// @Tags general
// @Produce json
// @Success 200 {object} models.BasicResponse
// @Router /health [get]
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := models.BasicResponse{
		Message: "Server is healthy",
		Status:  "success",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
