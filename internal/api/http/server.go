package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"plantwatch/internal/audit"
	"plantwatch/internal/auth"
	liveapp "plantwatch/internal/liveupdate/application"
	livehttp "plantwatch/internal/liveupdate/interfaces/http"
	"plantwatch/internal/logging"
	prefapp "plantwatch/internal/preferences/application"
	readingapp "plantwatch/internal/readings/application"
	sessionapp "plantwatch/internal/session/application"
	telemetryapp "plantwatch/internal/telemetry/application"
)

const maxBodyBytes = 1 << 20

// Deps are the collaborators the HTTP surface is built over. Every field but
// Logger, Audit and Metrics is required.
type Deps struct {
	Preferences *prefapp.Store
	Readings    *readingapp.Store
	Session     *sessionapp.Service
	Telemetry   *telemetryapp.Service
	Live        *liveapp.Loop
	Broker      *livehttp.Broker
	JWTSecret   []byte
	Logger      *zap.Logger
	// Audit records operator actions; defaults to an in-memory journal.
	Audit *audit.Journal
	// Metrics serves /metrics; defaults to the prometheus default registry.
	Metrics http.Handler
}

// Server routes the dashboard API.
type Server struct {
	prefs     *prefapp.Store
	readings  *readingapp.Store
	session   *sessionapp.Service
	telemetry *telemetryapp.Service
	live      *liveapp.Loop
	broker    *livehttp.Broker
	audit     *audit.Journal
	logger    *zap.Logger
	handler   http.Handler
}

// NewServer validates deps and builds the routing tree.
func NewServer(deps Deps) (*Server, error) {
	switch {
	case deps.Preferences == nil:
		return nil, errors.New("api: nil preferences store")
	case deps.Readings == nil:
		return nil, errors.New("api: nil readings store")
	case deps.Session == nil:
		return nil, errors.New("api: nil session service")
	case deps.Telemetry == nil:
		return nil, errors.New("api: nil telemetry service")
	case deps.Live == nil:
		return nil, errors.New("api: nil live loop")
	case deps.Broker == nil:
		return nil, errors.New("api: nil stream broker")
	case len(deps.JWTSecret) == 0:
		return nil, errors.New("api: empty jwt secret")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	journal := deps.Audit
	if journal == nil {
		journal = audit.NewJournal(audit.DefaultCapacity, audit.WithLogger(logger))
	}
	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	s := &Server{
		prefs:     deps.Preferences,
		readings:  deps.Readings,
		session:   deps.Session,
		telemetry: deps.Telemetry,
		live:      deps.Live,
		broker:    deps.Broker,
		audit:     journal,
		logger:    logger,
	}

	mux := http.NewServeMux()
	s.routeSession(mux)
	s.routeTelemetry(mux)
	s.routePreferences(mux)
	s.routeReadings(mux)
	s.routeLive(mux)
	s.routeViews(mux)
	s.routeAudit(mux)
	mux.Handle("GET /api/v1/live/stream", livehttp.NewStreamHandler(deps.Broker))
	mux.Handle("/metrics", metricsHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware(deps.JWTSecret, policy, logger)
	s.handler = logging.Middleware(authMiddleware.Wrap(mux), logger)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// HTTPServer wraps the handler with the timeouts used in production.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
