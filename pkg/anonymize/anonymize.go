// Package anonymize detects sensitive content in text and replaces it
// with synthetic placeholder tags, recording each substitution in a
// vault so a later stage can reverse it.
package anonymize

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultConfig returns a baseline configuration covering common PII
// and credential classes.
func DefaultConfig() Config {
	return Config{
		Rules: []Rule{
			{
				Category: "EMAIL_ADDRESS",
				Pattern:  `(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`,
			},
			{
				Category: "CREDIT_CARD",
				Pattern:  `\b[0-9]{4}[- ]?[0-9]{4}[- ]?[0-9]{4}[- ]?[0-9]{4}\b`,
			},
			{
				Category: "US_SSN",
				Pattern:  `\b[0-9]{3}-[0-9]{2}-[0-9]{4}\b`,
			},
			{
				Category: "PHONE_NUMBER",
				Pattern:  `(?:\+[0-9]{1,3}[-. ])?\(?[0-9]{3}\)?[-. ][0-9]{3}[-. ][0-9]{4}\b`,
			},
			{
				Category: "IP_ADDRESS",
				Pattern:  `\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`,
			},
			{
				Category: "BEARER_TOKEN",
				Pattern:  `(?i)Bearer\s+[A-Za-z0-9._-]{20,}`,
			},
			{
				Category: "API_KEY",
				Pattern:  `\b(?:sk-ant-[A-Za-z0-9_-]{20,}|sk-[A-Za-z0-9]{20,}|gh[pousr]_[A-Za-z0-9_]{36,}|xox[bporas]-[A-Za-z0-9-]{10,}|AKIA[0-9A-Z]{16})`,
			},
		},
	}
}

// NewScanner constructs a Scanner for the provided configuration.
func NewScanner(cfg Config) (*Scanner, error) {
	maxFindings := cfg.MaxFindings
	if maxFindings <= 0 {
		maxFindings = defaultMaxFindings
	}

	compiled := make([]compiledRule, 0, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		category := strings.TrimSpace(rule.Category)
		if category == "" {
			return nil, fmt.Errorf("anonymize: rule category is required")
		}
		pattern := strings.TrimSpace(rule.Pattern)
		if pattern == "" {
			return nil, fmt.Errorf("anonymize: pattern is required for category %s", category)
		}
		expr, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("anonymize: invalid pattern for category %s: %w", category, err)
		}
		compiled = append(compiled, compiledRule{category: category, expr: expr})
	}

	return &Scanner{rules: compiled, maxFindings: maxFindings}, nil
}
