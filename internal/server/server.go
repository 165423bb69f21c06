package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ckuethe/astro-tools/internal/storage"

	"github.com/gorilla/mux"
)

// Server exposes the solve result catalog over HTTP, plus a live event
// feed for results produced while watch mode runs.
type Server struct {
	addr   string
	store  *storage.Store
	hub    *Hub
	log    *slog.Logger
	server *http.Server
}

// New creates a results API server over the given catalog.
func New(addr string, store *storage.Store, log *slog.Logger) *Server {
	return &Server{
		addr:  addr,
		store: store,
		hub:   NewHub(log),
		log:   log,
	}
}

// Hub returns the live event hub so watch mode can publish results.
func (s *Server) Hub() *Hub { return s.hub }

// Start begins serving until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	r := mux.NewRouter()
	s.setupRoutes(r)

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: r,
	}

	go s.hub.Run(ctx)

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		s.log.Info("Shutting down server...")

		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(ctxShutdown)
	}()

	s.log.Info("Server starting", "addr", s.addr)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) setupRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/results", s.handleResults).Methods("GET")
	r.HandleFunc("/api/results/file", s.handleResultsForFile).Methods("GET")
	r.HandleFunc("/api/events", s.hub.HandleWS).Methods("GET")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	solvedOnly := r.URL.Query().Get("solved") == "1"

	recs, err := s.store.RecentResults(limit, solvedOnly)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, recs)
}

func (s *Server) handleResultsForFile(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("path")
	if file == "" {
		http.Error(w, "missing path parameter", http.StatusBadRequest)
		return
	}
	recs, err := s.store.ResultsForFile(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, recs)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
