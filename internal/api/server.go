// Package api serves update-check reports over HTTP.
//
// Routes:
//
//	GET /healthz               liveness and build version
//	GET /v1/report             full report (?refresh=true forces a new run)
//	GET /v1/report/updates     only the recipes with a newer upstream
//	GET /v1/runs               recent runs (requires a history store)
//	GET /v1/runs/{id}          one stored run
//
// Reports are reused for MaxAge; concurrent requests share one run.
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/singleflight"

	"github.com/serpent-os/ent/pkg/buildinfo"
	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/history"
	"github.com/serpent-os/ent/pkg/report"
)

// DefaultMaxAge is how long a report is served before a new run starts.
const DefaultMaxAge = 10 * time.Minute

// CheckFunc runs one update check. refresh asks the runner to bypass the
// persistent cache.
type CheckFunc func(ctx context.Context, refresh bool) (*report.Report, error)

// Config configures a Server.
type Config struct {
	Check   CheckFunc
	History history.Store // optional
	Logger  *log.Logger
	MaxAge  time.Duration

	// RequestTimeout bounds each request, including a run it triggers.
	RequestTimeout time.Duration
}

// Server holds the most recent report.
type Server struct {
	cfg   Config
	group singleflight.Group

	mu   sync.Mutex
	last *history.Run

	now func() time.Time
}

// New creates a server. cfg.Check is required.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	return &Server{cfg: cfg, now: time.Now}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/report", s.handleReport)
		r.Get("/report/updates", s.handleUpdates)
		r.Get("/runs", s.handleRuns)
		r.Get("/runs/{id}", s.handleRun)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.cfg.Logger.Info("serving reports", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.cfg.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// report returns the cached run or starts a new check.
func (s *Server) report(ctx context.Context, refresh bool) (history.Run, error) {
	if !refresh {
		s.mu.Lock()
		last := s.last
		s.mu.Unlock()
		if last != nil && s.now().Sub(last.StartedAt.Add(last.Duration)) < s.cfg.MaxAge {
			return *last, nil
		}
	}

	key := "run"
	if refresh {
		key = "refresh"
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		runCtx := context.WithoutCancel(ctx)
		started := s.now()
		rep, err := s.cfg.Check(runCtx, refresh)
		if err != nil {
			return nil, err
		}
		run := history.NewRun(rep, started, s.now().Sub(started))
		s.mu.Lock()
		s.last = &run
		s.mu.Unlock()

		if s.cfg.History != nil {
			if _, err := s.cfg.History.Save(runCtx, run); err != nil {
				s.cfg.Logger.Warn("failed to record run", "error", err)
			} else {
				s.cfg.Logger.Debug("recorded run", "id", run.ID)
			}
		}
		return run, nil
	})
	if err != nil {
		return history.Run{}, err
	}
	return v.(history.Run), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	run, err := s.report(r.Context(), queryBool(r, "refresh"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run.Report)
}

func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	run, err := s.report(r.Context(), queryBool(r, "refresh"))
	if err != nil {
		writeError(w, err)
		return
	}
	updates := run.Report.Updates()
	if updates == nil {
		updates = []report.Entry{}
	}
	writeJSON(w, http.StatusOK, struct {
		StartedAt time.Time      `json:"started_at"`
		Summary   report.Summary `json:"summary"`
		Updates   []report.Entry `json:"updates"`
	}{run.StartedAt, run.Summary, updates})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.cfg.History == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "run history is not configured"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.cfg.History.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.cfg.History == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "run history is not configured"))
		return
	}
	run, err := s.cfg.History.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), map[string]errorBody{
		"error": {Code: code, Message: errors.UserMessage(err)},
	})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
