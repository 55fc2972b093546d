// Package api exposes the anonymization pipeline over HTTP.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/promptguard/promptguard/internal/governance"
	"github.com/promptguard/promptguard/pkg/anonymize"
	"github.com/promptguard/promptguard/pkg/config"
	"github.com/promptguard/promptguard/pkg/telemetry"
)

// ScannerName is the key under which scan scores are reported in
// response payloads.
const ScannerName = "Anonymize"

// Server wires the scanners, vault lifecycle and middleware into an
// HTTP handler. Configuration can be swapped at runtime via ApplyConfig
// without dropping in-flight requests.
type Server struct {
	logger  *slog.Logger
	metrics *telemetry.Metrics
	limiter *governance.RateLimiter

	mu     sync.RWMutex
	cfg    config.Config
	input  *anonymize.Scanner
	output *anonymize.Scanner
}

// NewServer builds a server from the given configuration.
func NewServer(cfg config.Config, logger *slog.Logger, metrics *telemetry.Metrics) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}

	s := &Server{
		logger:  logger,
		metrics: metrics,
		limiter: governance.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	}
	if err := s.ApplyConfig(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyConfig rebuilds the scanners and limiter from a new
// configuration snapshot. On error the previous configuration stays
// active.
func (s *Server) ApplyConfig(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	input, err := buildScanner(cfg.InputScanner)
	if err != nil {
		return fmt.Errorf("input scanner: %w", err)
	}
	output, err := buildScanner(cfg.OutputScanner)
	if err != nil {
		return fmt.Errorf("output scanner: %w", err)
	}

	s.limiter.Configure(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	s.mu.Lock()
	s.cfg = cfg
	s.input = input
	s.output = output
	s.mu.Unlock()

	return nil
}

// Handler returns the full middleware-wrapped handler, instrumented
// for tracing.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router(), "promptguard")
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestID)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.AllowContentType("application/json"))
		r.Use(s.rateLimit)
		r.Use(s.authenticate)

		r.Post("/analyze/prompt", s.handleAnalyzePrompt)
		r.Post("/analyze/output", s.handleAnalyzeOutput)
		r.Post("/scan/prompt", s.handleScanPrompt)
		r.Post("/scan/output", s.handleScanOutput)
		r.Post("/deanonymize", s.handleDeanonymize)
	})

	return r
}

// snapshot returns the active configuration and scanners under one
// read lock so a handler never mixes generations.
func (s *Server) snapshot() (config.Config, *anonymize.Scanner, *anonymize.Scanner) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, s.input, s.output
}

// buildScanner compiles a scanner from config, falling back to the
// built-in rules when none are declared.
func buildScanner(sc config.ScannerConfig) (*anonymize.Scanner, error) {
	cfg := anonymize.DefaultConfig()
	if len(sc.Rules) > 0 {
		rules := make([]anonymize.Rule, len(sc.Rules))
		for i, r := range sc.Rules {
			rules[i] = anonymize.Rule{Category: r.Category, Pattern: r.Pattern}
		}
		cfg.Rules = rules
	}
	cfg.MaxFindings = sc.MaxFindings
	return anonymize.NewScanner(cfg)
}
