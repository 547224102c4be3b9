// Package web serves the pulse-sensor status over HTTP: an HTML page, the
// same state as JSON, and a readiness check for service supervisors.
package web

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"time"

	"github.com/sweeney/pulse-sensor/internal/status"
)

// Server is the status HTTP server. All state comes from the tracker.
type Server struct {
	srv     *http.Server
	tracker *status.Tracker
}

// New creates a Server bound to addr. It does not listen until
// ListenAndServe is called.
func New(addr string, tracker *status.Tracker) *Server {
	s := &Server{tracker: tracker}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", readOnly(s.page))
	mux.HandleFunc("/index.json", readOnly(s.statusJSON))
	mux.HandleFunc("/healthz", readOnly(s.health))
	return mux
}

// Handler returns the request router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ListenAndServe blocks until Shutdown.
func (s *Server) ListenAndServe() error { return s.srv.ListenAndServe() }

func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }

// readOnly rejects everything but GET and HEAD.
func readOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := renderHTML(&buf, s.tracker.Snapshot()); err != nil {
		log.Printf("http: render status page: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) statusJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(status.FormatJSON(s.tracker.Snapshot()))
}

// health answers 200 once a window has been reported, 503 before.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !s.tracker.Snapshot().Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("waiting for first window\n"))
		return
	}
	w.Write([]byte("ok\n"))
}
