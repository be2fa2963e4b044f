package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"workcal/internal/config"
	appLog "workcal/internal/log"
	"workcal/internal/provider"
	"workcal/internal/workcal"
)

// Refresher reloads the provider snapshot on demand.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Server provides the HTTP API for working-time calculations.
type Server struct {
	cfg       *config.Config
	schedule  workcal.Schedule
	loc       *time.Location
	store     *provider.Store
	refresher Refresher
	mux       *http.ServeMux
	limiter   *rateLimiter

	// now is overridable for tests.
	now func() time.Time
}

// NewServer constructs a new Server. The configured schedule is the
// default for requests that do not carry their own.
func NewServer(cfg *config.Config, store *provider.Store, refresher Refresher) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	sched, err := workcal.NewSchedule(cfg.Schedule)
	if err != nil {
		return nil, err
	}
	if store == nil {
		store = provider.NewStore()
	}

	s := &Server{
		cfg:       cfg,
		schedule:  sched,
		loc:       cfg.Location(),
		store:     store,
		refresher: refresher,
		mux:       http.NewServeMux(),
		now:       time.Now,
	}
	if cfg.RateLimit.PerMinute > 0 {
		s.limiter = newRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the API wrapped in tracing, request ID, access log and
// (when configured) rate limit and basic auth middleware.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	if s.limiter != nil {
		h = s.limiter.middleware(h)
	}
	h = requestIDMiddleware(accessLogMiddleware(h))
	return otelhttp.NewHandler(h, "workcal",
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/health" }),
	)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/calculate", s.handleCalculate)
	s.mux.HandleFunc("POST /api/hours", s.handleHours)
	s.mux.HandleFunc("GET /api/meetings", s.handleMeetings)
	s.mux.HandleFunc("GET /api/holidays", s.handleHolidays)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password disables auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="workcal", charset="UTF-8"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

const requestIDHeader = "X-Request-ID"

type ctxKey struct{}

// requestIDMiddleware reuses an incoming X-Request-ID or generates one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// RequestID returns the request ID stored by the middleware, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r)

		kv := []any{
			"request_id", RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(started).Milliseconds(),
		}
		if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
			kv = append(kv, "trace_id", sc.TraceID().String())
		}
		if r.URL.Path == "/health" {
			appLog.Debug("http request", kv...)
			return
		}
		appLog.Info("http request", kv...)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
