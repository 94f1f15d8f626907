package handlers

import "net/http"

// HealthResponse is the /healthz payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Health returns a liveness handler reporting the given version.
func Health(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: version})
	}
}
