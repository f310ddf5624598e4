package categorize

import (
	"testing"

	"github.com/harsh2517/bankrecon/internal/domain"
)

func refItem(keyword, vendor, acct string) domain.HistoricalReferenceItem {
	return domain.HistoricalReferenceItem{Keyword: keyword, VendorCustomerName: vendor, GLAccount: acct}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name        string
		description string
		keyword     string
		wantPerfect bool
		wantZero    bool
	}{
		{
			name:        "keyword contained in description",
			description: "POS PURCHASE AMAZON MKTP US",
			keyword:     "amazon",
			wantPerfect: true,
		},
		{
			name:        "case and punctuation ignored",
			description: "Amazon.co.uk*Payment",
			keyword:     "AMAZON",
			wantPerfect: true,
		},
		{
			name:        "unrelated strings",
			description: "CITY PARKING METER",
			keyword:     "netflix",
			wantZero:    true,
		},
		{
			name:        "empty keyword",
			description: "anything",
			keyword:     "",
			wantZero:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.description, tt.keyword)
			if tt.wantPerfect && got != 1 {
				t.Errorf("Similarity() = %v, want 1", got)
			}
			if tt.wantZero && got > 0.3 {
				t.Errorf("Similarity() = %v, want near zero", got)
			}
			if got < 0 || got > 1 {
				t.Errorf("Similarity() = %v out of [0,1]", got)
			}
		})
	}
}

func TestSimilarityToleratesNoise(t *testing.T) {
	// Truncated/noisy OCR of a known keyword should still score above
	// the default threshold.
	got := Similarity("STARBUCKS COFF 0042 LONDON", "starbucks coffee")
	if got < DefaultThreshold {
		t.Errorf("Similarity() = %v, want >= %v", got, DefaultThreshold)
	}
}

func TestMatchReferences(t *testing.T) {
	refs := []domain.HistoricalReferenceItem{
		refItem("amazon", "Amazon", "Office Supplies"),
		refItem("starbucks", "Starbucks", "Meals & Entertainment"),
		refItem("shell fuel", "Shell", "Vehicle Expenses"),
	}

	txs := []*domain.TransactionRow{
		{ID: "tx-1", BankName: "B", Description: "AMAZON MKTP US LLC"},
		{ID: "tx-2", BankName: "B", Description: "UNKNOWN MERCHANT 991"},
		{ID: "tx-3", BankName: "B", Description: "STARBUCKS STORE 123"},
	}

	res := NewMatcher().MatchReferences(txs, refs)

	if len(res.Matched) != 2 {
		t.Fatalf("Matched = %d rows, want 2", len(res.Matched))
	}
	if len(res.Untouched) != 1 || res.Untouched[0].ID != "tx-2" {
		t.Fatalf("Untouched = %+v, want only tx-2", res.Untouched)
	}

	if res.Matched[0].Vendor != "Amazon" || res.Matched[0].GLAccount != "Office Supplies" {
		t.Errorf("tx-1 labels = %q/%q", res.Matched[0].Vendor, res.Matched[0].GLAccount)
	}
	if res.Matched[1].Vendor != "Starbucks" {
		t.Errorf("tx-3 vendor = %q", res.Matched[1].Vendor)
	}

	// Inputs must not be mutated; stages operate on copies.
	if txs[0].Vendor != "" {
		t.Errorf("input row mutated: vendor = %q", txs[0].Vendor)
	}
	for _, row := range res.Matched {
		if row.BankName != "B" {
			t.Errorf("bankName lost on matched row %q", row.ID)
		}
	}
}

func TestMatchReferencesAmbiguity(t *testing.T) {
	// Two reference items that match the description equally well leave
	// the row untouched.
	refs := []domain.HistoricalReferenceItem{
		refItem("transfer", "Vendor A", "Account A"),
		refItem("transfer", "Vendor B", "Account B"),
	}
	txs := []*domain.TransactionRow{{ID: "tx-1", Description: "BANK TRANSFER 0042"}}

	res := NewMatcher().MatchReferences(txs, refs)
	if len(res.Matched) != 0 {
		t.Errorf("ambiguous match categorized anyway: %+v", res.Matched[0])
	}
	if len(res.Untouched) != 1 {
		t.Errorf("Untouched = %d, want 1", len(res.Untouched))
	}
}

func TestMatchReferencesThresholdTunable(t *testing.T) {
	refs := []domain.HistoricalReferenceItem{refItem("starbucks coffee", "Starbucks", "Meals")}
	txs := []*domain.TransactionRow{{ID: "tx-1", Description: "STARBCKS 42"}}

	strict := &Matcher{Threshold: 0.95, AmbiguityMargin: DefaultAmbiguityMargin}
	if res := strict.MatchReferences(txs, refs); len(res.Matched) != 0 {
		t.Errorf("strict matcher matched noisy description")
	}

	lax := &Matcher{Threshold: 0.2, AmbiguityMargin: DefaultAmbiguityMargin}
	if res := lax.MatchReferences(txs, refs); len(res.Matched) != 1 {
		t.Errorf("lax matcher failed to match")
	}
}
