package categorize

import (
	"context"
	"errors"
	"testing"

	"github.com/harsh2517/bankrecon/internal/domain"
	"github.com/harsh2517/bankrecon/internal/oracle"
)

func sampleRow(id string) *domain.TransactionRow {
	return &domain.TransactionRow{
		ID:          id,
		BankName:    "First National",
		Date:        "2023-08-15",
		Description: "AMAZON MARKETPLACE",
		Vendor:      domain.VendorUncategorized,
		GLAccount:   domain.VendorUncategorized,
		AmountPaid:  domain.Float64(42.00),
		CreatedAt:   &domain.Timestamp{Seconds: 1690000000, Nanos: 0},
	}
}

func TestMergeSuggestionOverlayDiscipline(t *testing.T) {
	vocab := NewVocabulary([]string{"Office Supplies", "Travel"})
	original := sampleRow("tx-1")

	patch := map[string]any{
		"id":                 "tx-1",
		"suggestedVendor":    "Amazon",
		"suggestedGlAccount": "Office Supplies",
		"confidenceScore":    0.91,
		// Fields the oracle should not be able to touch.
		"bankName":    "Hacked Bank",
		"date":        "1999-01-01",
		"description": "something else",
		"amountPaid":  9999.0,
	}

	got := mergeSuggestion(original, patch, vocab)

	if got.Vendor != "Amazon" || got.GLAccount != "Office Supplies" {
		t.Errorf("labels = %q/%q, want Amazon/Office Supplies", got.Vendor, got.GLAccount)
	}
	if got.ConfidenceScore == nil || *got.ConfidenceScore != 0.91 {
		t.Errorf("ConfidenceScore = %v, want 0.91", got.ConfidenceScore)
	}
	if got.BankName != original.BankName {
		t.Errorf("BankName = %q, want %q preserved", got.BankName, original.BankName)
	}
	if got.Date != original.Date || got.Description != original.Description {
		t.Errorf("date/description not carried over: %q %q", got.Date, got.Description)
	}
	if got.Paid() != 42.00 {
		t.Errorf("AmountPaid = %v, want 42.00 preserved", got.Paid())
	}
	if got.ID != "tx-1" {
		t.Errorf("ID = %q, want tx-1", got.ID)
	}
}

func TestMergeSuggestionVocabularyEnforcement(t *testing.T) {
	vocab := NewVocabulary([]string{"Office Supplies", "Travel"})

	t.Run("out of vocabulary falls back with zero confidence", func(t *testing.T) {
		original := sampleRow("tx-1")
		patch := map[string]any{
			"id":                 "tx-1",
			"suggestedVendor":    "Some Agency",
			"suggestedGlAccount": "Marketing",
			"confidenceScore":    0.99,
		}

		got := mergeSuggestion(original, patch, vocab)
		if got.GLAccount != domain.VendorUncategorized {
			t.Errorf("GLAccount = %q, want placeholder fallback", got.GLAccount)
		}
		if got.ConfidenceScore == nil || *got.ConfidenceScore != 0 {
			t.Errorf("ConfidenceScore = %v, want forced 0", got.ConfidenceScore)
		}
	})

	t.Run("out of vocabulary keeps pre-existing account", func(t *testing.T) {
		original := sampleRow("tx-1")
		original.GLAccount = "Travel"
		patch := map[string]any{
			"id":                 "tx-1",
			"suggestedGlAccount": "Marketing",
			"confidenceScore":    0.99,
		}

		got := mergeSuggestion(original, patch, vocab)
		if got.GLAccount != "Travel" {
			t.Errorf("GLAccount = %q, want pre-existing Travel", got.GLAccount)
		}
		if *got.ConfidenceScore != 0 {
			t.Errorf("ConfidenceScore = %v, want 0", *got.ConfidenceScore)
		}
	})

	t.Run("vocabulary match is normalized", func(t *testing.T) {
		original := sampleRow("tx-1")
		patch := map[string]any{
			"id":                 "tx-1",
			"suggestedGlAccount": "  office supplies  ",
			"confidenceScore":    0.8,
		}

		got := mergeSuggestion(original, patch, vocab)
		if got.GLAccount != "Office Supplies" {
			t.Errorf("GLAccount = %q, want canonical Office Supplies", got.GLAccount)
		}
		if *got.ConfidenceScore != 0.8 {
			t.Errorf("ConfidenceScore = %v, want 0.8", *got.ConfidenceScore)
		}
	})

	t.Run("confidence outside [0,1] is zeroed", func(t *testing.T) {
		original := sampleRow("tx-1")
		patch := map[string]any{
			"id":                 "tx-1",
			"suggestedGlAccount": "Travel",
			"confidenceScore":    1.7,
		}

		got := mergeSuggestion(original, patch, vocab)
		if got.GLAccount != "Travel" {
			t.Errorf("GLAccount = %q, want Travel", got.GLAccount)
		}
		if *got.ConfidenceScore != 0 {
			t.Errorf("ConfidenceScore = %v, want 0", *got.ConfidenceScore)
		}
	})
}

func TestMergeSuggestionCreatedAtRoundTrip(t *testing.T) {
	vocab := NewVocabulary([]string{"Travel"})

	t.Run("patch omits createdAt", func(t *testing.T) {
		original := sampleRow("tx-1")
		patch := map[string]any{
			"id":                 "tx-1",
			"suggestedGlAccount": "Travel",
			"confidenceScore":    0.5,
		}

		got := mergeSuggestion(original, patch, vocab)
		if got.CreatedAt == nil || *got.CreatedAt != (domain.Timestamp{Seconds: 1690000000, Nanos: 0}) {
			t.Errorf("CreatedAt = %+v, want restored original", got.CreatedAt)
		}
	})

	t.Run("patch drops nanoseconds", func(t *testing.T) {
		original := sampleRow("tx-1")
		patch := map[string]any{
			"id":                 "tx-1",
			"suggestedGlAccount": "Travel",
			"confidenceScore":    0.5,
			"createdAt":          map[string]any{"seconds": float64(1690000000)},
		}

		got := mergeSuggestion(original, patch, vocab)
		if got.CreatedAt == nil || *got.CreatedAt != (domain.Timestamp{Seconds: 1690000000, Nanos: 0}) {
			t.Errorf("CreatedAt = %+v, want {1690000000 0}", got.CreatedAt)
		}
	})

	t.Run("malformed patch with absent original is absent", func(t *testing.T) {
		original := sampleRow("tx-1")
		original.CreatedAt = nil
		patch := map[string]any{
			"id":                 "tx-1",
			"suggestedGlAccount": "Travel",
			"confidenceScore":    0.5,
			"createdAt":          "yesterday",
		}

		got := mergeSuggestion(original, patch, vocab)
		if got.CreatedAt != nil {
			t.Errorf("CreatedAt = %+v, want nil", got.CreatedAt)
		}
	})
}

func TestCategorizeCompleteness(t *testing.T) {
	txs := []*domain.TransactionRow{sampleRow("tx-1"), sampleRow("tx-2"), sampleRow("tx-3")}
	vocabList := []string{"Office Supplies", "Travel"}

	o := &mockOracle{GenerateJSONFunc: func(ctx context.Context, prompt string, doc *oracle.Document) (any, error) {
		return []any{
			map[string]any{"id": "tx-2", "suggestedVendor": "Delta", "suggestedGlAccount": "Travel", "confidenceScore": 0.9},
			// tx-1 and tx-3 dropped by the oracle; tx-2 duplicated.
			map[string]any{"id": "tx-2", "suggestedVendor": "Dup", "suggestedGlAccount": "Travel", "confidenceScore": 0.1},
			map[string]any{"id": "tx-9", "suggestedVendor": "Ghost", "suggestedGlAccount": "Travel", "confidenceScore": 0.9},
		}, nil
	}}

	res, err := NewCategorizer(o).Categorize(context.Background(), txs, vocabList)
	if err != nil {
		t.Fatalf("Categorize() error: %v", err)
	}

	if len(res.Rows) != len(txs) {
		t.Fatalf("Categorize() returned %d rows, want %d", len(res.Rows), len(txs))
	}
	seen := make(map[string]int)
	for i, row := range res.Rows {
		seen[row.ID]++
		if row.ID != txs[i].ID {
			t.Errorf("row %d id = %q, want input order preserved (%q)", i, row.ID, txs[i].ID)
		}
		if row.BankName != "First National" {
			t.Errorf("row %d lost bankName: %q", i, row.BankName)
		}
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("id %q appears %d times", id, n)
		}
	}
	if seen["tx-9"] != 0 {
		t.Error("fabricated id tx-9 leaked into output")
	}

	if res.Rows[1].Vendor != "Delta" {
		t.Errorf("tx-2 vendor = %q, want first suggestion Delta", res.Rows[1].Vendor)
	}
	if *res.Rows[0].ConfidenceScore != 0 {
		t.Errorf("dropped tx-1 confidence = %v, want 0", *res.Rows[0].ConfidenceScore)
	}
	if res.Categorized != 1 || res.Untouched != 2 {
		t.Errorf("counts = %d/%d, want 1 categorized, 2 untouched", res.Categorized, res.Untouched)
	}
}

func TestCategorizeOracleFailureStillYieldsRows(t *testing.T) {
	txs := []*domain.TransactionRow{sampleRow("tx-1"), sampleRow("tx-2")}

	o := &mockOracle{GenerateJSONFunc: func(ctx context.Context, prompt string, doc *oracle.Document) (any, error) {
		return nil, oracle.Unavailable("GenerateJSON", errors.New("timeout"))
	}}

	res, err := NewCategorizer(o).Categorize(context.Background(), txs, []string{"Travel"})
	if !errors.Is(err, oracle.ErrUnavailable) {
		t.Errorf("Categorize() error = %v, want ErrUnavailable", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("Categorize() fallback rows = %d, want 2", len(res.Rows))
	}
	for i, row := range res.Rows {
		if row.ConfidenceScore == nil || *row.ConfidenceScore != 0 {
			t.Errorf("row %d confidence = %v, want 0", i, row.ConfidenceScore)
		}
		if row.GLAccount != domain.VendorUncategorized {
			t.Errorf("row %d glAccount = %q, want placeholder", i, row.GLAccount)
		}
	}
}

func TestCategorizeNonArrayResponse(t *testing.T) {
	txs := []*domain.TransactionRow{sampleRow("tx-1")}

	o := &mockOracle{GenerateJSONFunc: func(ctx context.Context, prompt string, doc *oracle.Document) (any, error) {
		return map[string]any{"oops": true}, nil
	}}

	res, err := NewCategorizer(o).Categorize(context.Background(), txs, []string{"Travel"})
	var se *oracle.SchemaError
	if !errors.As(err, &se) {
		t.Errorf("Categorize() error = %v, want *SchemaError", err)
	}
	if len(res.Rows) != 1 {
		t.Errorf("Categorize() fallback rows = %d, want 1", len(res.Rows))
	}
}

type mockOracle struct {
	GenerateJSONFunc func(ctx context.Context, prompt string, doc *oracle.Document) (any, error)
}

func (m *mockOracle) GenerateJSON(ctx context.Context, prompt string, doc *oracle.Document) (any, error) {
	return m.GenerateJSONFunc(ctx, prompt, doc)
}
