package extract

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/harsh2517/bankrecon/internal/domain"
	"github.com/harsh2517/bankrecon/internal/oracle"
)

func TestHeaderFor(t *testing.T) {
	tests := []struct {
		name       string
		docType    domain.DocumentType
		hasBalance bool
		want       []string
	}{
		{
			name:    "bank statement without balance",
			docType: domain.DocTypeBankStatement,
			want:    []string{"Date", "Description", "Amount Paid", "Amount Received"},
		},
		{
			name:       "bank statement with balance",
			docType:    domain.DocTypeBankStatement,
			hasBalance: true,
			want:       []string{"Date", "Description", "Amount Paid", "Amount Received", "Balance"},
		},
		{
			name:    "credit card",
			docType: domain.DocTypeCreditCard,
			want:    []string{"Transaction Date", "Description", "Amount"},
		},
		{
			name:    "check",
			docType: domain.DocTypeCheck,
			want:    []string{"Date", "Check Number", "Payee", "Payer", "Amount", "Memo/Narration"},
		},
		{
			name:       "credit card ignores balance flag",
			docType:    domain.DocTypeCreditCard,
			hasBalance: true,
			want:       []string{"Transaction Date", "Description", "Amount"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HeaderFor(tt.docType, tt.hasBalance)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("HeaderFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeRowsCoercion(t *testing.T) {
	raw := [][]any{
		{"2023-08-01", "COFFEE SHOP", 4.5, nil},
		{"2023-08-02", "SALARY", nil, float64(2500)},
		{"2023-08-03", "REFUND", "", "12.30", "extra-cell-dropped"},
	}

	res := NormalizeRows(raw, domain.DocTypeBankStatement, false)
	if res.Empty() {
		t.Fatalf("NormalizeRows() unexpectedly empty: %q", res.Diagnostic)
	}

	want := [][]string{
		{"Date", "Description", "Amount Paid", "Amount Received"},
		{"2023-08-01", "COFFEE SHOP", "4.5", ""},
		{"2023-08-02", "SALARY", "", "2500"},
		{"2023-08-03", "REFUND", "", "12.30"},
	}
	if !reflect.DeepEqual(res.Table, want) {
		t.Errorf("NormalizeRows() = %v, want %v", res.Table, want)
	}
}

func TestNormalizeRowsExcludesSummaryRows(t *testing.T) {
	raw := [][]any{
		{"2023-08-01", "GROCERY STORE", "50.00", ""},
		{"", "Total Debits: 500.00", "", ""},
		{"", "Balance brought forward", "", ""},
		{"", "", "", ""},
		{"2023-08-02", "FUEL", "30.00", ""},
	}

	res := NormalizeRows(raw, domain.DocTypeBankStatement, false)
	if len(res.Table) != 3 {
		t.Fatalf("NormalizeRows() kept %d data rows, want 2: %v", len(res.Table)-1, res.Table)
	}
	for _, row := range res.Table {
		joined := strings.ToLower(strings.Join(row, " "))
		if strings.Contains(joined, "total debits") || strings.Contains(joined, "brought forward") {
			t.Errorf("summary row leaked into output: %v", row)
		}
	}
}

func TestNormalizeRowsKeepsTransactionsWithSummaryLikeDescriptions(t *testing.T) {
	raw := [][]any{
		{"2023-08-15", "TOTAL ENERGIES FUEL STATION", "50.00", ""},
		{"2023-08-16", "MONEY IN FROM CLIENT ABC", "", "200.00"},
		{"2023-08-17", "SUBTOTAL CAFE LONDON", "12.40", ""},
		{"", "Total Debits: 500.00", "", ""},
	}

	res := NormalizeRows(raw, domain.DocTypeBankStatement, false)
	if got := len(res.Table) - 1; got != 3 {
		t.Fatalf("NormalizeRows() kept %d data rows, want 3: %v", got, res.Table)
	}
	for _, desc := range []string{"TOTAL ENERGIES FUEL STATION", "MONEY IN FROM CLIENT ABC", "SUBTOTAL CAFE LONDON"} {
		found := false
		for _, row := range res.Table[1:] {
			if row[1] == desc {
				found = true
			}
		}
		if !found {
			t.Errorf("dated row with a single amount was dropped: %q", desc)
		}
	}
	for _, row := range res.Table[1:] {
		if strings.Contains(strings.ToLower(row[1]), "total debits") {
			t.Errorf("summary row leaked into output: %v", row)
		}
	}
}

func TestNormalizeRowsCheckKeepsOneRow(t *testing.T) {
	raw := [][]any{
		{"2023-08-01", "1042", "Acme Ltd", "J Smith", "150.00", "invoice 88"},
		{"2023-08-01", "1043", "Other Co", "J Smith", "75.00", "duplicate scan"},
	}

	res := NormalizeRows(raw, domain.DocTypeCheck, false)
	if got := len(res.Table) - 1; got != 1 {
		t.Errorf("NormalizeRows(check) kept %d data rows, want exactly 1", got)
	}
}

func TestNormalizeRowsEmptyInput(t *testing.T) {
	res := NormalizeRows(nil, domain.DocTypeBankStatement, false)
	if !res.Empty() {
		t.Errorf("NormalizeRows(nil) not empty: %v", res.Table)
	}
	if res.Diagnostic == "" {
		t.Error("NormalizeRows(nil) has no diagnostic")
	}
}

func TestTransactionRows(t *testing.T) {
	res := Result{Table: [][]string{
		{"Date", "Description", "Amount Paid", "Amount Received", "Balance"},
		{"2023-08-01", "COFFEE SHOP", "4.50", "", "995.50"},
		{"2023-08-02", "SALARY", "", "2,500.00", "3495.50"},
	}}

	rows, err := TransactionRows(res, "First National")
	if err != nil {
		t.Fatalf("TransactionRows() error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("TransactionRows() = %d rows, want 2", len(rows))
	}

	for i, row := range rows {
		if row.ID == "" {
			t.Errorf("row %d has no ID", i)
		}
		if row.BankName != "First National" {
			t.Errorf("row %d BankName = %q", i, row.BankName)
		}
		if row.Vendor != domain.VendorUncategorized || row.GLAccount != domain.VendorUncategorized {
			t.Errorf("row %d not marked uncategorized: %q/%q", i, row.Vendor, row.GLAccount)
		}
		if row.CreatedAt == nil || row.CreatedAt.Seconds == 0 {
			t.Errorf("row %d missing CreatedAt", i)
		}
		if err := row.Validate(); err != nil {
			t.Errorf("row %d violates single-amount invariant: %v", i, err)
		}
	}

	if rows[0].Paid() != 4.50 || rows[0].Received() != 0 {
		t.Errorf("row 0 amounts = %v/%v", rows[0].Paid(), rows[0].Received())
	}
	if rows[1].Received() != 2500.00 || rows[1].Paid() != 0 {
		t.Errorf("row 1 amounts = %v/%v", rows[1].Paid(), rows[1].Received())
	}

	if rows[0].ID == rows[1].ID {
		t.Error("rows share an ID")
	}
}

// mockOracle is a func-field oracle double shared by extractor tests.
type mockOracle struct {
	GenerateJSONFunc func(ctx context.Context, prompt string, doc *oracle.Document) (any, error)
}

func (m *mockOracle) GenerateJSON(ctx context.Context, prompt string, doc *oracle.Document) (any, error) {
	return m.GenerateJSONFunc(ctx, prompt, doc)
}

func TestExtractTable(t *testing.T) {
	doc := &oracle.Document{MIMEType: "application/pdf", Data: []byte("pdf")}

	t.Run("normal page", func(t *testing.T) {
		o := &mockOracle{GenerateJSONFunc: func(ctx context.Context, prompt string, d *oracle.Document) (any, error) {
			if !strings.Contains(prompt, "Amount Paid") {
				t.Errorf("prompt missing bank statement columns:\n%s", prompt)
			}
			return map[string]any{
				"hasRunningBalance": false,
				"rows": []any{
					[]any{"2023-08-01", "GROCERY STORE", "50.00", ""},
					"not-a-row",
					[]any{"", "Total Credits: 900.00", "", ""},
					[]any{"2023-08-02", "SALARY", "", 900.0},
				},
			}, nil
		}}

		res, err := NewExtractor(o).ExtractTable(context.Background(), doc, domain.DocTypeBankStatement)
		if err != nil {
			t.Fatalf("ExtractTable() error: %v", err)
		}
		if got := len(res.Table) - 1; got != 2 {
			t.Errorf("ExtractTable() kept %d rows, want 2: %v", got, res.Table)
		}
	})

	t.Run("no table is a diagnostic not an error", func(t *testing.T) {
		o := &mockOracle{GenerateJSONFunc: func(ctx context.Context, prompt string, d *oracle.Document) (any, error) {
			return map[string]any{
				"rows":              []any{},
				"hasRunningBalance": false,
				"diagnostic":        "document is a marketing letter, no transactions present",
			}, nil
		}}

		res, err := NewExtractor(o).ExtractTable(context.Background(), doc, domain.DocTypeBankStatement)
		if err != nil {
			t.Fatalf("ExtractTable() error: %v", err)
		}
		if !res.Empty() {
			t.Errorf("expected empty result, got %v", res.Table)
		}
		if !strings.Contains(res.Diagnostic, "marketing letter") {
			t.Errorf("diagnostic not propagated: %q", res.Diagnostic)
		}
	})

	t.Run("oracle transport failure", func(t *testing.T) {
		o := &mockOracle{GenerateJSONFunc: func(ctx context.Context, prompt string, d *oracle.Document) (any, error) {
			return nil, oracle.Unavailable("GenerateJSON", errors.New("connection reset"))
		}}

		_, err := NewExtractor(o).ExtractTable(context.Background(), doc, domain.DocTypeBankStatement)
		if !errors.Is(err, oracle.ErrUnavailable) {
			t.Errorf("ExtractTable() error = %v, want ErrUnavailable", err)
		}
	})

	t.Run("missing rows field is a schema error", func(t *testing.T) {
		o := &mockOracle{GenerateJSONFunc: func(ctx context.Context, prompt string, d *oracle.Document) (any, error) {
			return map[string]any{"hasRunningBalance": true}, nil
		}}

		_, err := NewExtractor(o).ExtractTable(context.Background(), doc, domain.DocTypeBankStatement)
		var se *oracle.SchemaError
		if !errors.As(err, &se) {
			t.Errorf("ExtractTable() error = %v, want *SchemaError", err)
		}
	})
}
