// Package web serves the availability tree, the last cycle's snapshot and
// the cycle history over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/example/campwatch/internal/availability"
	"github.com/example/campwatch/internal/dates"
	"github.com/example/campwatch/internal/internaltypes"
	"github.com/example/campwatch/internal/logger"
	"github.com/example/campwatch/internal/metrics"
	"github.com/example/campwatch/internal/runs"
	"github.com/example/campwatch/internal/scheduler"
)

// SnapshotSource exposes the last completed crawl.
type SnapshotSource interface {
	Latest() *scheduler.Snapshot
}

// RunReader reads cycle history.
type RunReader interface {
	Recent(ctx context.Context, limit int) ([]runs.Run, error)
	Get(ctx context.Context, id int64) (runs.Run, error)
}

type Server struct {
	Windows scheduler.WindowGenerator
	Options dates.Options
	Crawler scheduler.Crawler

	// Snapshots and Runs are optional; their routes answer 404 without them.
	Snapshots SnapshotSource
	Runs      RunReader

	Metrics *metrics.Metrics
	Logger  logger.Logger
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("GET /metrics", s.Metrics.Handler())

	mux.HandleFunc("GET /{$}", s.handleAvailability)
	mux.HandleFunc("GET /latest", s.handleLatest)
	mux.HandleFunc("GET /windows", s.handleWindows)
	mux.HandleFunc("GET /runs", s.handleRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleRun)

	return s.logRequests(cors(mux))
}

// handleAvailability crawls every configured window on demand.
func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	windows, err := s.Windows.Generate(r.Context(), s.Options)
	if err != nil {
		s.fail(w, err)
		return
	}
	weekends, err := s.Crawler.Crawl(r.Context(), windows)
	if err != nil {
		s.fail(w, err)
		return
	}
	if weekends == nil {
		weekends = []availability.Weekend{}
	}
	writeJSON(w, http.StatusOK, weekends)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if s.Snapshots == nil {
		http.Error(w, "no polling cycle in this process", http.StatusNotFound)
		return
	}
	snap := s.Snapshots.Latest()
	if snap == nil {
		http.Error(w, "no completed cycle yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleWindows(w http.ResponseWriter, r *http.Request) {
	windows, err := s.Windows.Generate(r.Context(), s.Options)
	if err != nil {
		s.fail(w, err)
		return
	}
	if windows == nil {
		windows = []dates.Window{}
	}
	writeJSON(w, http.StatusOK, windows)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.Runs == nil {
		http.Error(w, "run history is not configured", http.StatusNotFound)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			http.Error(w, "limit must be between 1 and 500", http.StatusBadRequest)
			return
		}
		limit = n
	}
	rs, err := s.Runs.Recent(r.Context(), limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.Runs == nil {
		http.Error(w, "run history is not configured", http.StatusNotFound)
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}
	run, err := s.Runs.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, internaltypes.ErrUpstream):
		status = http.StatusBadGateway
	case errors.Is(err, internaltypes.ErrNotFound):
		status = http.StatusNotFound
	}
	s.log().Error("Request failed", logger.Error(err), logger.Int("status", status))
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log().Info("HTTP request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) log() logger.Logger {
	if s.Logger == nil {
		return logger.NewNop()
	}
	return s.Logger
}

// Start serves h on addr until ctx is done, then shuts down gracefully.
func Start(ctx context.Context, addr string, h http.Handler, log logger.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("Listening", logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
