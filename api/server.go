package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"plateraffle/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Server is the HTTP adapter over the core services. Authentication happens
// upstream; the server trusts the proxy's actor headers and enforces roles
// through the services themselves.
type Server struct {
	sessions        service.SessionService
	draws           service.DrawService
	ledger          service.LedgerService
	roster          service.RosterService
	historyPageSize int

	httpServer *http.Server
}

// NewServer creates a new API server
func NewServer(addr string, sessions service.SessionService, draws service.DrawService, ledger service.LedgerService, roster service.RosterService, historyPageSize int) *Server {
	s := &Server{
		sessions:        sessions,
		draws:           draws,
		ledger:          ledger,
		roster:          roster,
		historyPageSize: historyPageSize,
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           withRequestID(withActor(withAccessLog(s.routes()))),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions", s.handleListSessions)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("POST /sessions/{id}/observations", s.handleRecordObservation)
	mux.HandleFunc("GET /sessions/{id}/balances", s.handleGetBalances)
	mux.HandleFunc("GET /sessions/{id}/draw", s.handleGetDrawState)
	mux.HandleFunc("POST /sessions/{id}/draw", s.handleStartDraw)
	mux.HandleFunc("POST /sessions/{id}/draw/override", s.handleOverrideDraw)
	mux.HandleFunc("POST /sessions/{id}/draw/finalize", s.handleFinalizeDraw)
	mux.HandleFunc("POST /sessions/{id}/draw/reset", s.handleResetDraw)
	mux.HandleFunc("GET /sessions/{id}/history", s.handleGetHistory)
	mux.HandleFunc("POST /sessions/{id}/discard", s.handleSetDiscarded)
	mux.HandleFunc("PUT /roster", s.handleReplaceRoster)
	mux.HandleFunc("GET /roster/{key}", s.handleGetProfile)
	mux.HandleFunc("GET /roster/{key}/eligible", s.handleGetEligibility)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

// Start begins serving; it blocks until the listener fails or Stop is called
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("API server listening")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Stop drains in-flight requests and shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	log.Info("API server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
