// Package server assembles the echo HTTP server from registered handlers.
package server

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Handler is anything that can register routes on the echo instance.
type Handler interface {
	Register(e *echo.Echo)
}

// Server wraps the echo instance and its listen address.
type Server struct {
	echo *echo.Echo
	addr string
}

// New builds the server: recovery and request logging middleware, then all
// handler routes.
func New(log *slog.Logger, addr string, handlers []Handler) *Server {
	if log == nil {
		log = slog.Default()
	}
	if addr == "" {
		addr = ":3000"
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", c.RealIP()),
			)
			return nil
		},
	}))

	for _, h := range handlers {
		if h != nil {
			h.Register(e)
		}
	}

	return &Server{echo: e, addr: addr}
}

// Start listens until the server is shut down.
func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
