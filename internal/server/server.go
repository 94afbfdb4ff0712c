package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Server wraps the HTTP listener with graceful shutdown.
type Server struct {
	http *http.Server
}

// New creates a new server instance around the configured router.
func New(router *gin.Engine, addr string) *Server {
	return &Server{
		http: &http.Server{
			Addr:    addr,
			Handler: router,
		},
	}
}

// Start blocks serving requests until Stop is called or the listener fails.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
