package api

import (
	"encoding/json"
	"fmt"

	"github.com/promptguard/promptguard/pkg/vault"
)

// VaultPairs is the wire form of a vault snapshot: an ordered array of
// [placeholder, original] pairs. An empty snapshot serializes as [],
// never null.
type VaultPairs []vault.Entry

// MarshalJSON renders each entry as a two-element array.
func (p VaultPairs) MarshalJSON() ([]byte, error) {
	pairs := make([][2]string, len(p))
	for i, e := range p {
		pairs[i] = [2]string{e.Placeholder, e.Original}
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON accepts an array of two-element arrays.
func (p *VaultPairs) UnmarshalJSON(data []byte) error {
	var pairs [][]string
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	entries := make([]vault.Entry, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return fmt.Errorf("vault pair %d has %d elements, want 2", i, len(pair))
		}
		entries[i] = vault.Entry{Placeholder: pair[0], Original: pair[1]}
	}
	*p = entries
	return nil
}

// AnalyzePromptRequest is the body of POST /analyze/prompt.
type AnalyzePromptRequest struct {
	Prompt string `json:"prompt"`
}

// AnalyzePromptResponse carries the sanitized prompt together with the
// drained vault so the caller can later reverse the substitutions. The
// vault field is always present, as an empty array when nothing was
// redacted.
type AnalyzePromptResponse struct {
	SanitizedPrompt string             `json:"sanitized_prompt"`
	IsValid         bool               `json:"is_valid"`
	Scanners        map[string]float64 `json:"scanners"`
	Vault           VaultPairs         `json:"vault"`
}

// AnalyzeOutputRequest is the body of POST /analyze/output. Vault holds
// the pairs returned by the earlier prompt analysis so output-side
// placeholders continue the same numbering.
type AnalyzeOutputRequest struct {
	Prompt string     `json:"prompt"`
	Output string     `json:"output"`
	Vault  VaultPairs `json:"vault"`
}

// AnalyzeOutputResponse mirrors AnalyzePromptResponse for the model
// output side.
type AnalyzeOutputResponse struct {
	SanitizedOutput string             `json:"sanitized_output"`
	IsValid         bool               `json:"is_valid"`
	Scanners        map[string]float64 `json:"scanners"`
	Vault           VaultPairs         `json:"vault"`
}

// ScanRequest is the body of POST /scan/prompt and /scan/output.
type ScanRequest struct {
	Prompt string `json:"prompt,omitempty"`
	Output string `json:"output,omitempty"`
}

// ScanResponse reports detection results only. It deliberately has no
// vault field at all: scan endpoints never expose stored originals.
type ScanResponse struct {
	IsValid  bool               `json:"is_valid"`
	Scanners map[string]float64 `json:"scanners"`
}

// DeanonymizeRequest is the body of POST /deanonymize.
type DeanonymizeRequest struct {
	Text  string     `json:"text"`
	Vault VaultPairs `json:"vault"`
}

// DeanonymizeResponse carries the text with placeholders restored.
type DeanonymizeResponse struct {
	Text string `json:"text"`
}

// ErrorResponse is the standard JSON error model. It avoids exposing
// sensitive details while providing a stable machine-readable code.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}
