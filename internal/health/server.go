// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/horoscopebot/core/buildinfo"
	"github.com/m3rciful/horoscopebot/core/logger"
)

const checkTimeout = 3 * time.Second

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Server exposes /healthz and /readyz.
type Server struct {
	addr  string
	ready atomic.Bool

	mu     sync.RWMutex
	checks map[string]Check

	srv *http.Server
	ln  net.Listener
}

// New creates a Server listening on addr once Start is called.
func New(addr string) *Server {
	return &Server{addr: addr, checks: make(map[string]Check)}
}

// AddCheck registers a readiness check under name.
func (s *Server) AddCheck(name string, fn Check) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = fn
}

// SetReady flips the readiness flag reported by /readyz.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Handler returns the probe router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	return r
}

type readyResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, readyResponse{Status: "ok", Version: buildinfo.Version})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	resp := readyResponse{Status: "ready", Version: buildinfo.Version, Checks: map[string]string{}}
	code := http.StatusOK
	if !s.ready.Load() {
		resp.Status = "starting"
		code = http.StatusServiceUnavailable
	}

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			resp.Checks[name] = "unreachable"
			if code == http.StatusOK {
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
			}
			logger.HTTP.Warn("readiness check failed",
				slog.String("event", "readyz"),
				slog.String("check", name),
				slog.String("err", err.Error()),
			)
			continue
		}
		resp.Checks[name] = "ok"
	}
	s.mu.RUnlock()

	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	logger.HTTP.Info("health server listening",
		slog.String("event", "listen"),
		slog.String("addr", ln.Addr().String()),
	)
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.HTTP.Error("health server failed",
				slog.String("event", "serve"),
				slog.String("err", err.Error()),
			)
		}
	}()
	return nil
}

// Addr returns the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
