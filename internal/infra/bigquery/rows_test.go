package bigquery

import (
	"testing"

	"github.com/harsh2517/bankrecon/internal/domain"
)

func TestLedgerRowMappingPreservesOptionalFields(t *testing.T) {
	t.Run("created_at present", func(t *testing.T) {
		tx := &domain.TransactionRow{
			ID:          "tx-1",
			BankName:    "First National",
			Date:        "2023-08-15",
			Description: "COFFEE",
			Vendor:      "Starbucks",
			GLAccount:   "Meals",
			AmountPaid:  domain.Float64(4.50),
			CreatedAt:   &domain.Timestamp{Seconds: 1690000000, Nanos: 0},
		}

		got := FromLedgerRow(ToLedgerRow(tx, "doc-1", "run-1"))
		if got.CreatedAt == nil || *got.CreatedAt != *tx.CreatedAt {
			t.Errorf("CreatedAt = %+v, want %+v", got.CreatedAt, tx.CreatedAt)
		}
		if got.BankName != tx.BankName || got.Paid() != 4.50 || got.AmountReceived != nil {
			t.Errorf("row mapping lost fields: %+v", got)
		}
	})

	t.Run("created_at absent stays absent", func(t *testing.T) {
		tx := &domain.TransactionRow{ID: "tx-2", BankName: "B", Date: "2023-08-15", Description: "X"}

		got := FromLedgerRow(ToLedgerRow(tx, "doc-1", "run-1"))
		if got.CreatedAt != nil {
			t.Errorf("CreatedAt = %+v, want nil", got.CreatedAt)
		}
		if got.ConfidenceScore != nil {
			t.Errorf("ConfidenceScore = %+v, want nil", got.ConfidenceScore)
		}
	})
}
