// Package reconcile repairs an extracted transaction set so that its
// arithmetic closes exactly against the statement's opening and closing
// balances. The source document, not the extracted table, is the
// authority; the oracle re-derives the full transaction list and the
// engine validates the arithmetic itself instead of trusting the oracle.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/harsh2517/bankrecon/internal/domain"
	"github.com/harsh2517/bankrecon/internal/ledger"
	"github.com/harsh2517/bankrecon/internal/logger"
	"github.com/harsh2517/bankrecon/internal/oracle"
)

// Tolerance is the closure tolerance: half a cent, so balances compare
// equal iff they agree to the cent after rounding.
const Tolerance = 0.005

// ErrNoTransactions is returned when the oracle produced no transaction
// list at all. This is a hard failure: returning an empty reconciled set
// would falsely reconcile a zero-discrepancy edge case.
var ErrNoTransactions = errors.New("reconcile: oracle returned no transaction list")

// UnresolvedError reports that the oracle did respond with a corrected
// set, but the set still does not balance to the cent. It is distinct
// from an oracle failure; the caller decides between retry, manual
// escalation and rejection.
type UnresolvedError struct {
	Residual float64
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("reconcile: corrected set does not balance, residual discrepancy %.2f", e.Residual)
}

// Outcome is a successful reconciliation: a complete replacement
// transaction set for the statement period and the oracle's explanation
// of what changed. Corrected rows carry only the four statement columns;
// the running balance is never reproduced and the caller recomputes it.
type Outcome struct {
	Corrected   []*domain.TransactionRow
	Explanation string

	// ResidualDiscrepancy is the discrepancy recomputed by the engine
	// over the corrected set. Zero (within tolerance) on success; also
	// populated on an UnresolvedError so the caller can judge how close
	// the oracle got.
	ResidualDiscrepancy float64
}

// Engine drives oracle-assisted discrepancy repair.
type Engine struct {
	oracle oracle.Oracle
}

// NewEngine creates an engine bound to the given oracle.
func NewEngine(o oracle.Oracle) *Engine {
	return &Engine{oracle: o}
}

// Reconcile repairs the transaction set in rc against the source
// document. ocrText is optional supplementary text for documents whose
// PDF layer is unreliable.
//
// The post-condition opening + Σreceived - Σpaid == closing is validated
// here, never merely trusted from the oracle. On an UnresolvedError the
// returned Outcome still carries the corrected set and residual so the
// caller can surface it for manual review.
func (e *Engine) Reconcile(ctx context.Context, rc domain.ReconciliationContext, doc *oracle.Document, ocrText string) (Outcome, error) {
	log := logger.FromContext(ctx)

	discrepancy := ledger.Discrepancy(rc.CurrentTransactions, rc.OpeningBalance, rc.ClosingBalance)
	if math.Abs(discrepancy-rc.DiscrepancyAmount) > Tolerance {
		// The caller's precomputed discrepancy disagrees with ours;
		// ours is derived from the rows, so it wins.
		log.Warn().
			Float64("caller_discrepancy", rc.DiscrepancyAmount).
			Float64("computed_discrepancy", discrepancy).
			Msg("discrepancy recomputed from transaction set")
	}
	rc.DiscrepancyAmount = discrepancy

	if math.Abs(discrepancy) <= Tolerance {
		// Already balanced; the current set is the corrected set.
		return Outcome{
			Corrected:   cloneRows(rc.CurrentTransactions),
			Explanation: "statement already reconciles; no changes required",
		}, nil
	}

	prompt := buildRepairPrompt(rc, ocrText)

	raw, err := e.oracle.GenerateJSON(ctx, prompt, doc)
	if err != nil {
		return Outcome{}, fmt.Errorf("Reconcile: %w", err)
	}

	obj, err := oracle.AsObject(raw)
	if err != nil {
		return Outcome{}, fmt.Errorf("Reconcile: %w", err)
	}

	txAny, ok := obj["correctedTransactions"]
	if !ok || txAny == nil {
		return Outcome{}, ErrNoTransactions
	}
	txArr, err := oracle.AsArray(txAny)
	if err != nil {
		return Outcome{}, fmt.Errorf("Reconcile: field \"correctedTransactions\": %w", err)
	}
	if len(txArr) == 0 && len(rc.CurrentTransactions) > 0 {
		// An empty rebuild of a non-empty statement cannot be a repair.
		return Outcome{}, ErrNoTransactions
	}

	explanation, err := oracle.StringField(obj, "explanation")
	if err != nil {
		// Corrected transactions without an explanation violate the
		// contract.
		return Outcome{}, fmt.Errorf("Reconcile: %w", err)
	}

	corrected, err := decodeCorrected(txArr, bankNameFor(rc))
	if err != nil {
		return Outcome{}, fmt.Errorf("Reconcile: %w", err)
	}

	residual := ledger.Discrepancy(corrected, rc.OpeningBalance, rc.ClosingBalance)
	outcome := Outcome{
		Corrected:           corrected,
		Explanation:         explanation,
		ResidualDiscrepancy: residual,
	}

	if math.Abs(residual) > Tolerance {
		log.Warn().
			Float64("residual", residual).
			Int("corrected_rows", len(corrected)).
			Msg("corrected set does not balance")
		return outcome, &UnresolvedError{Residual: residual}
	}

	log.Info().
		Float64("discrepancy", discrepancy).
		Int("corrected_rows", len(corrected)).
		Msg("statement reconciled")
	return outcome, nil
}

// decodeCorrected re-validates every oracle row. Output rows carry only
// the four statement columns plus fresh ingestion metadata; amounts are
// normalized so the single-amount invariant holds.
func decodeCorrected(txArr []any, bankName string) ([]*domain.TransactionRow, error) {
	rows := make([]*domain.TransactionRow, 0, len(txArr))
	for i, item := range txArr {
		obj, err := oracle.AsObject(item)
		if err != nil {
			return nil, fmt.Errorf("corrected transaction %d: %w", i, err)
		}

		date, err := oracle.StringField(obj, "date")
		if err != nil {
			return nil, fmt.Errorf("corrected transaction %d: %w", i, err)
		}
		desc, err := oracle.StringField(obj, "description")
		if err != nil {
			return nil, fmt.Errorf("corrected transaction %d: %w", i, err)
		}
		paid, err := oracle.OptionalFloat64Field(obj, "amountPaid")
		if err != nil {
			return nil, fmt.Errorf("corrected transaction %d: %w", i, err)
		}
		received, err := oracle.OptionalFloat64Field(obj, "amountReceived")
		if err != nil {
			return nil, fmt.Errorf("corrected transaction %d: %w", i, err)
		}

		row := &domain.TransactionRow{
			ID:          uuid.NewString(),
			BankName:    bankName,
			Date:        date,
			Description: desc,
			Vendor:      domain.VendorUncategorized,
			GLAccount:   domain.VendorUncategorized,
		}
		if paid != nil && *paid != 0 {
			v := math.Abs(*paid)
			row.AmountPaid = &v
		}
		if received != nil && *received != 0 {
			v := math.Abs(*received)
			row.AmountReceived = &v
		}
		if err := row.Validate(); err != nil {
			return nil, fmt.Errorf("corrected transaction %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// cloneRows returns copies so the already-balanced path still honors the
// no-shared-mutation rule.
func cloneRows(rows []*domain.TransactionRow) []*domain.TransactionRow {
	out := make([]*domain.TransactionRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Clone())
	}
	return out
}

// bankNameFor prefers the tag already on the rows and falls back to the
// context's own bank name, so a rebuild of an empty extraction still
// tags every corrected row.
func bankNameFor(rc domain.ReconciliationContext) string {
	for _, row := range rc.CurrentTransactions {
		if row.BankName != "" {
			return row.BankName
		}
	}
	return rc.BankName
}
