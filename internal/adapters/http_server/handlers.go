// internal/adapters/http_server/handlers.go
package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Progress is the live state of a search run, exposed on /v1/progress.
type Progress struct {
	mu        sync.Mutex
	startedAt time.Time
	total     int
	checked   int
	available int
	failed    int
}

func NewProgress() *Progress { return &Progress{startedAt: time.Now().UTC()} }

func (p *Progress) SetTotal(n int) {
	p.mu.Lock()
	p.total = n
	p.mu.Unlock()
}

// Record counts one finished place check.
func (p *Progress) Record(available, failed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checked++
	if available {
		p.available++
	}
	if failed {
		p.failed++
	}
}

func (p *Progress) snapshot() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return map[string]any{
		"started_at": p.startedAt,
		"total":      p.total,
		"checked":    p.checked,
		"available":  p.available,
		"failed":     p.failed,
	}
}

type Handlers struct{ P *Progress }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/progress", h.progress)
	s.mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusNotFound, "Not Found", r.URL.Path)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func (h *Handlers) progress(w http.ResponseWriter, r *http.Request) {
	if h.P == nil {
		writeProblem(w, http.StatusServiceUnavailable, "Unavailable", "no search running")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.P.snapshot()); err != nil {
		log.Error().Err(err).Msg("failed to write progress body")
	}
}
