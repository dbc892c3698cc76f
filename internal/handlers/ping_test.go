package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestPingHandlerRoutes(t *testing.T) {
	t.Parallel()

	e := echo.New()
	NewPingHandler().Register(e)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/", "bodycheck bot is running. Health: /healthz"},
		{http.MethodGet, "/healthz", "ok"},
		{http.MethodHead, "/healthz", ""},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s %s: status %d", tc.method, tc.path, rec.Code)
		}
		if tc.body != "" && rec.Body.String() != tc.body {
			t.Fatalf("%s %s: body %q", tc.method, tc.path, rec.Body.String())
		}
	}
}
