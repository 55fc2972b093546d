package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/promptguard/promptguard/pkg/anonymize"
	"github.com/promptguard/promptguard/pkg/vault"
)

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyzePrompt sanitizes a prompt and returns the vault pairs
// needed to reverse the substitutions later. The vault lives exactly as
// long as this request: it is created here, filled by the scanner and
// atomically drained into the response.
func (s *Server) handleAnalyzePrompt(w http.ResponseWriter, r *http.Request) {
	var req AnalyzePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
		return
	}

	cfg, input, _ := s.snapshot()
	ctx, cancel := scanContext(r.Context(), cfg.PromptTimeout())
	defer cancel()

	start := time.Now()
	v := vault.New()
	res, err := input.Scan(ctx, req.Prompt, v)
	if err != nil {
		s.scanFailed(w, r, "analyze_prompt", start, err)
		return
	}

	entries := v.GetAndClear()
	s.metrics.RecordScan("analyze_prompt", outcome(res), time.Since(start))
	s.metrics.RecordRedactions(res.Findings)
	s.metrics.RecordVaultDrain(len(entries))

	s.writeJSON(w, http.StatusOK, AnalyzePromptResponse{
		SanitizedPrompt: res.Sanitized,
		IsValid:         res.Valid,
		Scanners:        map[string]float64{ScannerName: res.RiskScore},
		Vault:           entries,
	})
}

// handleAnalyzeOutput sanitizes model output. The request carries the
// vault pairs from the earlier prompt analysis; the vault is re-seeded
// from them so output-side placeholders continue the same numbering,
// then drained into the response as one atomic step.
func (s *Server) handleAnalyzeOutput(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeOutputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
		return
	}

	cfg, _, output := s.snapshot()
	ctx, cancel := scanContext(r.Context(), cfg.OutputTimeout())
	defer cancel()

	start := time.Now()
	v := vault.New(req.Vault...)
	res, err := output.Scan(ctx, req.Output, v)
	if err != nil {
		s.scanFailed(w, r, "analyze_output", start, err)
		return
	}

	entries := v.GetAndClear()
	s.metrics.RecordScan("analyze_output", outcome(res), time.Since(start))
	s.metrics.RecordRedactions(res.Findings)
	s.metrics.RecordVaultDrain(len(entries))

	s.writeJSON(w, http.StatusOK, AnalyzeOutputResponse{
		SanitizedOutput: res.Sanitized,
		IsValid:         res.Valid,
		Scanners:        map[string]float64{ScannerName: res.RiskScore},
		Vault:           entries,
	})
}

// handleScanPrompt reports detection results without exposing any vault
// contents. Substitutions are recorded in a request-local vault that is
// discarded, never serialized.
func (s *Server) handleScanPrompt(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
		return
	}

	cfg, input, _ := s.snapshot()
	ctx, cancel := scanContext(r.Context(), cfg.PromptTimeout())
	defer cancel()

	start := time.Now()
	res, err := input.Scan(ctx, req.Prompt, vault.New())
	if err != nil {
		s.scanFailed(w, r, "scan_prompt", start, err)
		return
	}

	s.metrics.RecordScan("scan_prompt", outcome(res), time.Since(start))
	s.writeJSON(w, http.StatusOK, ScanResponse{
		IsValid:  res.Valid,
		Scanners: map[string]float64{ScannerName: res.RiskScore},
	})
}

func (s *Server) handleScanOutput(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
		return
	}

	cfg, _, output := s.snapshot()
	ctx, cancel := scanContext(r.Context(), cfg.OutputTimeout())
	defer cancel()

	start := time.Now()
	res, err := output.Scan(ctx, req.Output, vault.New())
	if err != nil {
		s.scanFailed(w, r, "scan_output", start, err)
		return
	}

	s.metrics.RecordScan("scan_output", outcome(res), time.Since(start))
	s.writeJSON(w, http.StatusOK, ScanResponse{
		IsValid:  res.Valid,
		Scanners: map[string]float64{ScannerName: res.RiskScore},
	})
}

// handleDeanonymize restores original values in text using the
// caller-provided vault pairs.
func (s *Server) handleDeanonymize(w http.ResponseWriter, r *http.Request) {
	var req DeanonymizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
		return
	}

	restored := anonymize.Deanonymize(req.Text, req.Vault)
	s.writeJSON(w, http.StatusOK, DeanonymizeResponse{Text: restored})
}

func (s *Server) scanFailed(w http.ResponseWriter, r *http.Request, endpoint string, start time.Time, err error) {
	s.metrics.RecordScan(endpoint, "error", time.Since(start))
	s.logger.Error("scan failed", "endpoint", endpoint, "error", err)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, r, http.StatusRequestTimeout, "SCAN_TIMEOUT", "scan exceeded its deadline")
	case errors.Is(err, anonymize.ErrTooManyFindings):
		s.writeError(w, r, http.StatusUnprocessableEntity, "TOO_MANY_FINDINGS", "scan exceeded the findings cap")
	default:
		s.writeError(w, r, http.StatusInternalServerError, "SCAN_FAILED", "scan failed")
	}
}

// scanContext applies the configured scan deadline; zero means none.
func scanContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func outcome(res anonymize.Result) string {
	if res.Valid {
		return "clean"
	}
	return "redacted"
}
