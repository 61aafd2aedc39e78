package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
)

// HealthResponse is the JSON response from the /health endpoint.
type HealthResponse struct {
	Status  string            `json:"status"`            // "healthy" or "unhealthy"
	Checks  map[string]string `json:"checks"`            // Component check results
	Version string            `json:"version,omitempty"` // Optional version info
}

// HealthChecker reports whether the server can answer tool calls.
type HealthChecker struct {
	irisURL string
	tools   int
	version string
}

// NewHealthChecker creates a HealthChecker. irisURL is the configured
// DFIR-IRIS base URL, empty when the connection settings are incomplete.
func NewHealthChecker(irisURL string, tools int, version string) *HealthChecker {
	return &HealthChecker{irisURL: irisURL, tools: tools, version: version}
}

// Check builds the health report. Missing IRIS settings make every tool
// fail, so they make the server unhealthy.
func (h *HealthChecker) Check() HealthResponse {
	checks := make(map[string]string)
	healthy := true

	if h.irisURL != "" {
		checks["iris"] = "configured: " + h.irisURL
	} else {
		checks["iris"] = "not configured"
		healthy = false
	}

	if h.tools > 0 {
		checks["tools"] = fmt.Sprintf("%d exposed", h.tools)
	} else {
		checks["tools"] = "none exposed"
		healthy = false
	}

	checks["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	return HealthResponse{
		Status:  status,
		Checks:  checks,
		Version: h.version,
	}
}

// Handler returns an HTTP handler for the health endpoint.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := h.Check()

		w.Header().Set("Content-Type", "application/json")
		if health.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(health)
	})
}
