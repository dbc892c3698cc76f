// Package handlers holds the plain HTTP handlers of the server surface.
package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// PingHandler serves the index and health probes.
type PingHandler struct{}

// NewPingHandler creates a PingHandler.
func NewPingHandler() *PingHandler {
	return &PingHandler{}
}

// Register registers the probe routes.
func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET("/healthz", h.Healthz)
	e.HEAD("/healthz", h.Healthz)
}

// Index reports that the bot is up and where the health probe lives.
func (h *PingHandler) Index(c echo.Context) error {
	return c.String(http.StatusOK, "bodycheck bot is running. Health: /healthz")
}

// Healthz is the liveness probe.
func (h *PingHandler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
