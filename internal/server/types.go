package server

import (
	"net/http"
	"time"

	"github.com/MeKo-Tech/fieldmark/internal/fragment"
	"github.com/MeKo-Tech/fieldmark/internal/mapping"
	"github.com/MeKo-Tech/fieldmark/internal/matcher"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	store       *mapping.Store
	matcher     *matcher.Matcher
	watcher     *mapping.Watcher
	corsOrigin  string
	maxBodyMB   int64
	timeoutSec  int
	mappingFile string
	rateLimiter *RateLimiter
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigin  string
	MaxBodyMB   int64
	TimeoutSec  int
	MappingFile string
	WatchFile   bool
	Matcher     matcher.Config

	RateLimitEnabled  bool
	RequestsPerMinute int
	RequestsPerHour   int
}

// Response types for API endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Rules   int    `json:"rules"`
	Time    string `json:"time"`
}

// MatchRequest is the body of a POST /match call.
type MatchRequest struct {
	Fragments []fragment.Fragment `json:"fragments"`
}

// MatchResponse wraps a matching pass result.
type MatchResponse struct {
	Success   bool            `json:"success"`
	Result    *matcher.Result `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// MappingsResponse describes the currently published mapping table.
type MappingsResponse struct {
	Fields []mapping.RuleConfig `json:"fields"`
	Count  int                  `json:"count"`
}

// NewServer creates a new field matching server instance.
func NewServer(config Config) (*Server, error) {
	table, err := loadInitialTable(config.MappingFile)
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:       mapping.NewStore(table),
		matcher:     matcher.New(config.Matcher),
		corsOrigin:  config.CORSOrigin,
		maxBodyMB:   config.MaxBodyMB,
		timeoutSec:  config.TimeoutSec,
		mappingFile: config.MappingFile,
	}

	if config.WatchFile && config.MappingFile != "" {
		w, err := mapping.WatchFile(config.MappingFile, s.store)
		if err != nil {
			return nil, err
		}
		s.watcher = w
	}

	if config.RateLimitEnabled {
		s.rateLimiter = NewRateLimiter(config.RequestsPerMinute, config.RequestsPerHour)
	}

	return s, nil
}

func loadInitialTable(path string) (*mapping.Table, error) {
	if path == "" {
		return mapping.NewTable(nil)
	}
	return mapping.LoadFile(path)
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// Store returns the mapping table store. Useful for tests and for
// publishing a table built from inline configuration.
func (s *Server) Store() *mapping.Store {
	return s.store
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/match", s.corsMiddleware(s.rateLimitMiddleware(s.matchHandler)))
	mux.HandleFunc("/mappings", s.corsMiddleware(s.mappingsHandler))
	mux.HandleFunc("/ws/match", s.matchWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

// ReadTimeout returns the configured request timeout.
func (s *Server) ReadTimeout() time.Duration {
	return time.Duration(s.timeoutSec) * time.Second
}
