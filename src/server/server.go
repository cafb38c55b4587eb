package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"olimport/src/services/authors"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
	idleTimeout  = 120 * time.Second
)

// Server is the read side HTTP API over the imported catalog
type Server struct {
	logger         *slog.Logger
	server         *http.Server
	mux            *http.ServeMux
	port           int
	authorsService *authors.AuthorsService
}

func NewServer(
	logger *slog.Logger,
	port int,
	authorsService *authors.AuthorsService,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:         logger,
		mux:            mux,
		port:           port,
		authorsService: authorsService,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
	}

	// /v1/authors/search is more specific than the {olid} wildcard, so
	// the mux never routes a search to the lookup handler.
	mux.HandleFunc("GET /v1/authors/search", s.SearchAuthors)
	mux.HandleFunc("GET /v1/authors/{olid}", s.GetAuthorByOLID)

	return s
}

func (s *Server) Start() error {
	s.logger.Info("Server started", "port", s.port)

	return s.server.ListenAndServe()
}

// Shutdown stops the HTTP server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	return s.server.Shutdown(ctx)
}
