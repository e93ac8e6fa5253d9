package handler

import (
	"net/http"
	"time"
)

// HealthHandler answers liveness probes.
type HealthHandler struct {
	// service name echoed in the response so a probe aimed at the wrong
	// port is obvious in the output.
	service string
}

// NewHealthHandler creates a HealthHandler for the given service name.
func NewHealthHandler(service string) *HealthHandler {
	return &HealthHandler{service: service}
}

// HandleHealth reports that the process is up.
//
// HTTP: GET /health
//
// Load balancers poll this; 200 means "keep routing traffic here". It checks
// nothing beyond the process being alive — a database outage surfaces as 500s
// on the real endpoints, not here.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   h.service,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
