package anonymize

import (
	"errors"
	"regexp"
)

// Rule declares a single detection rule. Category names the entity
// class and becomes part of the placeholder tag; Pattern is a Go
// regular expression matching occurrences of that class.
type Rule struct {
	Category string
	Pattern  string
}

// Config bundles the rule definitions for a Scanner.
type Config struct {
	Rules       []Rule
	MaxFindings int
}

// Result summarises the outcome of one Scan call.
type Result struct {
	// Sanitized is the input text with every match replaced by its
	// placeholder tag.
	Sanitized string
	// Findings counts matches per category.
	Findings map[string]int
	// RiskScore is 0 for clean text and grows toward 1 with the number
	// of redactions applied.
	RiskScore float64
	// Valid is true iff no sensitive content was found.
	Valid bool
}

// Scanner applies anonymization rules to textual content.
type Scanner struct {
	rules       []compiledRule
	maxFindings int
}

const defaultMaxFindings = 128

// ErrTooManyFindings indicates a scan exceeded the configured findings
// cap, usually a sign of a pathological input or an over-broad pattern.
var ErrTooManyFindings = errors.New("anonymize: maximum findings exceeded")

// compiledRule is the internal representation of a Rule with a compiled
// regex.
type compiledRule struct {
	category string
	expr     *regexp.Regexp
}
