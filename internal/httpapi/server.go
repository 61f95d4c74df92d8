// Package httpapi exposes the workflow engine over HTTP with JSON
// responses, alongside health, metrics and MCP endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/deixis/proctor/internal/workflow"
)

// maxBodyBytes limits JSON request bodies.
const maxBodyBytes = 10 << 20

// Options configures the HTTP API.
type Options struct {
	CORSOrigin string
	// MCP is mounted at /mcp when set.
	MCP http.Handler
}

// Server serves the HTTP API.
type Server struct {
	engine  *workflow.Engine
	started time.Time
	handler http.Handler
}

// NewServer builds the router for engine.
func NewServer(engine *workflow.Engine, opts Options) *Server {
	s := &Server{engine: engine, started: time.Now()}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/run-tests", s.handleRunTest).Methods(http.MethodPost)
	api.HandleFunc("/results", s.handleResults).Methods(http.MethodGet)
	api.HandleFunc("/results", s.handleClear).Methods(http.MethodDelete)
	api.HandleFunc("/results/test/{testName}", s.handleResultsByName).Methods(http.MethodGet)
	api.HandleFunc("/results/{id}", s.handleResult).Methods(http.MethodGet)
	api.HandleFunc("/tests", s.handleTests).Methods(http.MethodGet)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
	}
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handleNotFound)

	origin := opts.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	c := cors.New(cors.Options{
		AllowedOrigins: []string{origin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	s.handler = c.Handler(r)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Printf("marshalling response: %v", err)
		status = http.StatusInternalServerError
		data = []byte(`{"success":false,"error":"Internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		log.Printf("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, notFoundResponse{
		Success: false,
		Error:   "Route not found",
		Path:    r.URL.RequestURI(),
	})
}
