package categorize

import (
	"strings"

	"github.com/harsh2517/bankrecon/internal/domain"
)

// Matcher fuzzy-matches transaction descriptions against historical
// reference keywords. The similarity cutoff is explicit and tunable
// rather than delegated to an oracle's judgment of "strong match".
type Matcher struct {
	// Threshold is the minimum similarity score for a match.
	Threshold float64

	// AmbiguityMargin is the minimum lead the best candidate must have
	// over the runner-up. Two reference items scoring within this margin
	// of each other leave the row untouched.
	AmbiguityMargin float64
}

// Default matcher tuning. 0.72 keeps obvious keyword hits while rejecting
// shared-word coincidences like "PAYMENT TO ..." prefixes.
const (
	DefaultThreshold       = 0.72
	DefaultAmbiguityMargin = 0.05
)

// NewMatcher returns a matcher with the default tuning.
func NewMatcher() *Matcher {
	return &Matcher{Threshold: DefaultThreshold, AmbiguityMargin: DefaultAmbiguityMargin}
}

// MatchResult partitions the input rows so callers can tell touched from
// untouched rows. Matched rows are new instances with vendor and GL
// account copied from the winning reference item; untouched rows are
// clones of the originals.
type MatchResult struct {
	Matched   []*domain.TransactionRow
	Untouched []*domain.TransactionRow
}

// MatchReferences applies reference-matching categorization. Rows whose
// best candidate is below the threshold, or whose top two candidates are
// too close to call, are left untouched.
func (m *Matcher) MatchReferences(txs []*domain.TransactionRow, refs []domain.HistoricalReferenceItem) MatchResult {
	var res MatchResult
	for _, tx := range txs {
		ref, ok := m.bestReference(tx.Description, refs)
		if !ok {
			res.Untouched = append(res.Untouched, tx.Clone())
			continue
		}
		out := tx.Clone()
		out.Vendor = ref.VendorCustomerName
		out.GLAccount = ref.GLAccount
		res.Matched = append(res.Matched, out)
	}
	return res
}

func (m *Matcher) bestReference(description string, refs []domain.HistoricalReferenceItem) (domain.HistoricalReferenceItem, bool) {
	var (
		best       domain.HistoricalReferenceItem
		bestScore  float64
		secondBest float64
	)
	for _, ref := range refs {
		score := Similarity(description, ref.Keyword)
		if score > bestScore {
			secondBest = bestScore
			bestScore = score
			best = ref
		} else if score > secondBest {
			secondBest = score
		}
	}
	if bestScore < m.Threshold {
		return domain.HistoricalReferenceItem{}, false
	}
	if bestScore-secondBest < m.AmbiguityMargin {
		return domain.HistoricalReferenceItem{}, false
	}
	return best, true
}

// Similarity scores how well a reference keyword matches a transaction
// description, in [0,1]. A keyword fully contained in the description is
// a perfect hit; otherwise the score is the fraction of the keyword's
// character trigrams found in the description, which tolerates truncation
// and OCR noise better than token equality.
func Similarity(description, keyword string) float64 {
	d := normalizeText(description)
	k := normalizeText(keyword)
	if d == "" || k == "" {
		return 0
	}
	if strings.Contains(d, k) {
		return 1
	}

	dt := trigrams(d)
	kt := trigrams(k)
	if len(kt) == 0 {
		return 0
	}

	shared := 0
	for tri := range kt {
		if dt[tri] {
			shared++
		}
	}
	return float64(shared) / float64(len(kt))
}

func normalizeText(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func trigrams(s string) map[string]bool {
	padded := "  " + s + "  "
	out := make(map[string]bool)
	for i := 0; i+3 <= len(padded); i++ {
		out[padded[i:i+3]] = true
	}
	return out
}
