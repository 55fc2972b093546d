package anonymize

import (
	"strings"

	"github.com/promptguard/promptguard/pkg/vault"
)

// Deanonymize reverses placeholder substitution by replacing every tag
// found in text with the original value recorded for it. Entries are
// applied in insertion order; when duplicate placeholders exist the
// earliest entry wins, matching the vault's first-match removal
// semantics. Placeholders with no occurrence in the text are skipped.
func Deanonymize(text string, entries []vault.Entry) string {
	if len(entries) == 0 {
		return text
	}

	seen := make(map[string]struct{}, len(entries))
	restored := text
	for _, e := range entries {
		if _, dup := seen[e.Placeholder]; dup {
			continue
		}
		seen[e.Placeholder] = struct{}{}
		restored = strings.ReplaceAll(restored, e.Placeholder, e.Original)
	}
	return restored
}
