package anonymize

import (
	"context"
	"fmt"

	"github.com/promptguard/promptguard/pkg/vault"
)

// Scan applies all configured rules to the supplied text. Every match
// is replaced by a tag of the form [REDACTED_<CATEGORY>_<n>], where n
// counts occurrences per category, continuing from placeholders already
// present in the vault so that a prompt scan and a later output scan
// against the same vault never collide. All substitutions from one call
// are recorded in the vault as a single Extend, so a concurrent reader
// observes either none or all of them.
func (s *Scanner) Scan(ctx context.Context, text string, v *vault.Vault) (Result, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
	}

	findings := make(map[string]int)
	if len(s.rules) == 0 {
		return Result{Sanitized: text, Findings: findings, Valid: true}, nil
	}

	sanitized := text
	total := 0
	var pending []vault.Entry
	counters := make(map[string]int, len(s.rules))
	overflow := false

	for _, rule := range s.rules {
		sanitized = rule.expr.ReplaceAllStringFunc(sanitized, func(match string) string {
			if total >= s.maxFindings {
				overflow = true
				return match
			}
			n, ok := counters[rule.category]
			if !ok {
				n = nextIndex(v, rule.category)
			}
			placeholder := placeholderTag(rule.category, n)
			counters[rule.category] = n + 1

			pending = append(pending, vault.Entry{Placeholder: placeholder, Original: match})
			findings[rule.category]++
			total++
			return placeholder
		})
	}

	if overflow {
		return Result{}, ErrTooManyFindings
	}

	v.Extend(pending)

	score := 0.0
	if total > 0 {
		score = 0.5 + 0.1*float64(total)
		if score > 1 {
			score = 1
		}
	}

	return Result{
		Sanitized: sanitized,
		Findings:  findings,
		RiskScore: score,
		Valid:     total == 0,
	}, nil
}

// placeholderTag renders the bracketed tag for one substitution.
func placeholderTag(category string, n int) string {
	return fmt.Sprintf("[REDACTED_%s_%d]", category, n)
}

// nextIndex finds the first unused index for a category by probing the
// vault for existing tags. Indexes start at 1.
func nextIndex(v *vault.Vault, category string) int {
	n := 1
	for v.PlaceholderExists(placeholderTag(category, n)) {
		n++
	}
	return n
}
