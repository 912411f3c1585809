package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestServeSpec(t *testing.T) {
	h := NewOpenAPIHandler("1.4.0")

	req := httptest.NewRequest("GET", "/openapi.json", nil)
	req.Host = "portal.example.com"
	req.Header.Set("X-Forwarded-Proto", "https")
	rr := httptest.NewRecorder()
	h.ServeSpec(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{`"url":"https://portal.example.com"`, `"version":"1.4.0"`, `/dashboard/api/bans`} {
		if !strings.Contains(body, want) {
			t.Errorf("spec missing %s", want)
		}
	}
}
