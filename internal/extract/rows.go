package extract

import (
	"time"

	"github.com/google/uuid"

	"github.com/harsh2517/bankrecon/internal/domain"
	"github.com/harsh2517/bankrecon/internal/oracle"
)

// TransactionRows converts a normalized bank-statement table into ledger
// rows. IDs are generated here, on ingestion, and are stable for the rest
// of the row's life. A trailing running-balance column, if present, is a
// display artifact of the source and is dropped before rows reach
// downstream stages.
func TransactionRows(res Result, bankName string) ([]*domain.TransactionRow, error) {
	if res.Empty() {
		return nil, nil
	}

	now := time.Now()
	rows := make([]*domain.TransactionRow, 0, len(res.Table)-1)
	for _, cells := range res.Table[1:] {
		if len(cells) < 4 {
			continue
		}
		row := &domain.TransactionRow{
			ID:          uuid.NewString(),
			BankName:    bankName,
			Date:        cells[0],
			Description: cells[1],
			Vendor:      domain.VendorUncategorized,
			GLAccount:   domain.VendorUncategorized,
			CreatedAt: &domain.Timestamp{
				Seconds: now.Unix(),
				Nanos:   int64(now.Nanosecond()),
			},
		}
		if amt := parseCellAmount(cells[2]); amt != nil {
			row.AmountPaid = amt
		}
		if amt := parseCellAmount(cells[3]); amt != nil {
			row.AmountReceived = amt
		}
		if err := row.Validate(); err != nil {
			// A row with both columns populated is malformed in the
			// source; keep the larger movement and zero the other
			// rather than dropping the transaction.
			if row.Paid() >= row.Received() {
				row.AmountReceived = nil
			} else {
				row.AmountPaid = nil
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseCellAmount(cell string) *float64 {
	f, err := oracle.ParseAmount(cell)
	if err != nil || f == 0 {
		return nil
	}
	if f < 0 {
		f = -f
	}
	return &f
}
