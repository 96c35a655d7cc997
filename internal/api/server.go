// Package api serves recommendations over JSON HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/hangorburn/internal/geo"
	"github.com/lox/hangorburn/internal/service"
	"github.com/lox/hangorburn/internal/store"
)

type Server struct {
	svc     *service.Service
	store   *store.Store
	dataset *geo.Dataset
	port    string
}

// NewServer builds a server. st may be nil when running without SQLite.
func NewServer(svc *service.Service, st *store.Store, port string) *Server {
	return &Server{svc: svc, store: st, dataset: svc.Dataset(), port: port}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/recommendation", s.handleRecommendation)
	mux.HandleFunc("GET /api/scores", s.handleScores)
	mux.HandleFunc("GET /api/locations", s.handleLocations)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
