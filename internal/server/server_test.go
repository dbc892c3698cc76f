package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type routeHandler struct {
	path string
	body string
}

func (h *routeHandler) Register(e *echo.Echo) {
	e.GET(h.path, func(c echo.Context) error {
		return c.String(http.StatusOK, h.body)
	})
}

func TestNew_RegistersAllHandlers(t *testing.T) {
	t.Parallel()

	srv := New(nil, "", []Handler{
		&routeHandler{path: "/a", body: "first"},
		nil,
		&routeHandler{path: "/b", body: "second"},
	})
	if srv.addr != ":3000" {
		t.Fatalf("default addr: got %q want :3000", srv.addr)
	}

	for path, want := range map[string]string{"/a": "first", "/b": "second"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.echo.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s: %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

func TestServer_RecoversFromPanickingHandler(t *testing.T) {
	t.Parallel()

	srv := New(nil, ":0", []Handler{handlerFunc(func(e *echo.Echo) {
		e.GET("/panic", func(c echo.Context) error {
			panic("boom")
		})
	})})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d want 500", rec.Code)
	}
}

type handlerFunc func(e *echo.Echo)

func (f handlerFunc) Register(e *echo.Echo) { f(e) }
