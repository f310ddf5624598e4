// Package categorize assigns vendor and GL-account labels to ledger rows,
// first by fuzzy-matching against user-curated reference data and then by
// open-ended oracle categorization constrained to a caller-supplied
// GL-account vocabulary.
package categorize

import "strings"

// Vocabulary is the closed set of valid GL-account labels for one
// categorization call. The caller's list is authoritative; there is no
// implicit global vocabulary.
type Vocabulary struct {
	canonical map[string]string
}

// NewVocabulary builds a vocabulary from the caller's GL-account list.
// Lookup is normalized (trim + casefold) but Resolve always returns the
// caller's original spelling.
func NewVocabulary(glAccounts []string) *Vocabulary {
	v := &Vocabulary{canonical: make(map[string]string, len(glAccounts))}
	for _, acct := range glAccounts {
		key := normalizeLabel(acct)
		if key == "" {
			continue
		}
		if _, exists := v.canonical[key]; !exists {
			v.canonical[key] = acct
		}
	}
	return v
}

// Resolve maps a suggested GL account onto the vocabulary. The returned
// string is the canonical caller-supplied spelling; ok is false when the
// suggestion is outside the vocabulary and must be discarded.
func (v *Vocabulary) Resolve(suggestion string) (string, bool) {
	canonical, ok := v.canonical[normalizeLabel(suggestion)]
	return canonical, ok
}

// Len returns the number of distinct entries.
func (v *Vocabulary) Len() int {
	return len(v.canonical)
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
