package handler

import (
	"net/http"

	"github.com/riskuniversalis/staffportal/internal/openapi"
)

// OpenAPIHandler serves the OpenAPI 3.1 document for the dashboard API.
type OpenAPIHandler struct {
	version string
}

// NewOpenAPIHandler creates a new OpenAPIHandler reporting version as the
// API version.
func NewOpenAPIHandler(version string) *OpenAPIHandler {
	return &OpenAPIHandler{version: version}
}

// ServeSpec returns the document with the server URL taken from the request.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	writeJSON(w, http.StatusOK, openapi.GenerateDashboardSpec(scheme+"://"+r.Host, h.version))
}
