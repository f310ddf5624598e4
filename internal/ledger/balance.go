// Package ledger folds transaction rows into balances. It is the shared
// arithmetic used by both the categorization and reconciliation stages and
// by the balance reports, so the sign convention lives here and nowhere
// else.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/harsh2517/bankrecon/internal/domain"
)

// BalancePoint is one entry of a running-balance series: the row that
// moved the balance and the balance after applying it.
type BalancePoint struct {
	Row     *domain.TransactionRow
	Balance float64
}

// signedEffect returns the row's net effect on a balance of the given
// nature as an exact decimal.
func signedEffect(row *domain.TransactionRow, nature domain.AccountNature) decimal.Decimal {
	received := decimal.NewFromFloat(row.Received())
	paid := decimal.NewFromFloat(row.Paid())
	if nature == domain.NatureCredit {
		return paid.Sub(received)
	}
	return received.Sub(paid)
}

// SumSigned folds the rows into a single signed total under the sign
// convention of the given account nature. For NatureDebit (cash/bank-type
// accounts) each row contributes received - paid; for NatureCredit the
// sign flips.
func SumSigned(rows []*domain.TransactionRow, nature domain.AccountNature) float64 {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(signedEffect(row, nature))
	}
	f, _ := total.Round(2).Float64()
	return f
}

// Accumulate folds the rows forward from an opening balance and returns
// the running-balance series in input order. Arithmetic is done in exact
// decimals so that long statements do not drift by accumulated float
// error.
func Accumulate(rows []*domain.TransactionRow, opening float64, nature domain.AccountNature) []BalancePoint {
	series := make([]BalancePoint, 0, len(rows))
	balance := decimal.NewFromFloat(opening)
	for _, row := range rows {
		balance = balance.Add(signedEffect(row, nature))
		f, _ := balance.Round(2).Float64()
		series = append(series, BalancePoint{Row: row, Balance: f})
	}
	return series
}

// ClosingBalance computes the balance after folding all rows over the
// opening balance.
func ClosingBalance(rows []*domain.TransactionRow, opening float64, nature domain.AccountNature) float64 {
	balance := decimal.NewFromFloat(opening)
	for _, row := range rows {
		balance = balance.Add(signedEffect(row, nature))
	}
	f, _ := balance.Round(2).Float64()
	return f
}

// Discrepancy returns the signed difference between the computed closing
// balance and the stated one, over an asset-side (bank) account. A
// positive value means the computed balance is too high.
func Discrepancy(rows []*domain.TransactionRow, opening, closing float64) float64 {
	computed := decimal.NewFromFloat(opening)
	for _, row := range rows {
		computed = computed.Add(signedEffect(row, domain.NatureDebit))
	}
	f, _ := computed.Sub(decimal.NewFromFloat(closing)).Round(2).Float64()
	return f
}

// BalancesByGLAccount aggregates cumulative balances per GL account under
// the given nature. Rows with an empty or placeholder account land under
// the placeholder key so uncategorized activity stays visible in reports.
func BalancesByGLAccount(rows []*domain.TransactionRow, nature domain.AccountNature) map[string]float64 {
	return balancesBy(rows, nature, func(row *domain.TransactionRow) string {
		if row.GLAccount == "" {
			return domain.VendorUncategorized
		}
		return row.GLAccount
	})
}

// BalancesByVendor aggregates cumulative balances per vendor/contact.
func BalancesByVendor(rows []*domain.TransactionRow, nature domain.AccountNature) map[string]float64 {
	return balancesBy(rows, nature, func(row *domain.TransactionRow) string {
		if row.Vendor == "" {
			return domain.VendorUncategorized
		}
		return row.Vendor
	})
}

func balancesBy(rows []*domain.TransactionRow, nature domain.AccountNature, key func(*domain.TransactionRow) string) map[string]float64 {
	totals := make(map[string]decimal.Decimal)
	for _, row := range rows {
		k := key(row)
		totals[k] = totals[k].Add(signedEffect(row, nature))
	}
	out := make(map[string]float64, len(totals))
	for k, v := range totals {
		f, _ := v.Round(2).Float64()
		out[k] = f
	}
	return out
}
