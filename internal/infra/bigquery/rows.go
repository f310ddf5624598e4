// Package bigquery is the ledger store: one BigQuery record per
// transaction row, plus statement documents and reconciliation-run
// bookkeeping. The field set here is the wire contract for a persisted
// ledger row; absence vs explicit null on the optional created_at pair is
// significant and preserved.
package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/harsh2517/bankrecon/internal/domain"
)

// DocumentRow is one uploaded statement document.
type DocumentRow struct {
	DocumentID       string                 `bigquery:"document_id"`
	GCSURI           string                 `bigquery:"gcs_uri"`
	DocumentType     string                 `bigquery:"document_type"`
	BankName         string                 `bigquery:"bank_name"`
	StatementStart   bigquery.NullDate      `bigquery:"statement_start_date"`
	StatementEnd     bigquery.NullDate      `bigquery:"statement_end_date"`
	OpeningBalance   bigquery.NullFloat64   `bigquery:"opening_balance"`
	ClosingBalance   bigquery.NullFloat64   `bigquery:"closing_balance"`
	UploadTS         time.Time              `bigquery:"upload_ts"`
	ProcessedTS      bigquery.NullTimestamp `bigquery:"processed_ts"`
	OriginalFilename string                 `bigquery:"original_filename"`
}

// LedgerRow is the persisted form of a domain.TransactionRow.
type LedgerRow struct {
	TransactionID string `bigquery:"transaction_id"`
	DocumentID    string `bigquery:"document_id"`
	RunID         string `bigquery:"run_id"`

	BankName    string `bigquery:"bank_name"`
	Date        string `bigquery:"transaction_date"`
	Description string `bigquery:"description"`

	Vendor    string `bigquery:"vendor"`
	GLAccount string `bigquery:"gl_account"`

	AmountPaid     bigquery.NullFloat64 `bigquery:"amount_paid"`
	AmountReceived bigquery.NullFloat64 `bigquery:"amount_received"`

	ConfidenceScore bigquery.NullFloat64 `bigquery:"confidence_score"`

	CreatedAtSeconds bigquery.NullInt64 `bigquery:"created_at_seconds"`
	CreatedAtNanos   bigquery.NullInt64 `bigquery:"created_at_nanos"`

	Superseded bool      `bigquery:"superseded"`
	InsertedTS time.Time `bigquery:"inserted_ts"`
}

// ReconciliationRunRow records one pass of the pipeline over a document.
type ReconciliationRunRow struct {
	RunID      string `bigquery:"run_id"`
	DocumentID string `bigquery:"document_id"`

	StartedTS  time.Time              `bigquery:"started_ts"`
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"`

	// Status is RUNNING, SUCCESS, UNRESOLVED or FAILED. UNRESOLVED
	// means the oracle responded but the corrected set did not balance.
	Status       string `bigquery:"status"`
	ErrorMessage string `bigquery:"error_message"`

	Discrepancy bigquery.NullFloat64 `bigquery:"discrepancy"`
	Residual    bigquery.NullFloat64 `bigquery:"residual"`

	Explanation string `bigquery:"explanation"`
}

// Run statuses.
const (
	RunStatusRunning    = "RUNNING"
	RunStatusSuccess    = "SUCCESS"
	RunStatusUnresolved = "UNRESOLVED"
	RunStatusFailed     = "FAILED"
)

// ToLedgerRow maps a domain row onto its wire form.
func ToLedgerRow(tx *domain.TransactionRow, documentID, runID string) *LedgerRow {
	row := &LedgerRow{
		TransactionID: tx.ID,
		DocumentID:    documentID,
		RunID:         runID,
		BankName:      tx.BankName,
		Date:          tx.Date,
		Description:   tx.Description,
		Vendor:        tx.Vendor,
		GLAccount:     tx.GLAccount,
		InsertedTS:    time.Now(),
	}
	if tx.AmountPaid != nil {
		row.AmountPaid = bigquery.NullFloat64{Float64: *tx.AmountPaid, Valid: true}
	}
	if tx.AmountReceived != nil {
		row.AmountReceived = bigquery.NullFloat64{Float64: *tx.AmountReceived, Valid: true}
	}
	if tx.ConfidenceScore != nil {
		row.ConfidenceScore = bigquery.NullFloat64{Float64: *tx.ConfidenceScore, Valid: true}
	}
	if tx.CreatedAt != nil {
		row.CreatedAtSeconds = bigquery.NullInt64{Int64: tx.CreatedAt.Seconds, Valid: true}
		row.CreatedAtNanos = bigquery.NullInt64{Int64: tx.CreatedAt.Nanos, Valid: true}
	}
	return row
}

// FromLedgerRow maps a wire row back onto the domain form. A row stored
// without a created_at pair comes back with CreatedAt explicitly absent.
func FromLedgerRow(row *LedgerRow) *domain.TransactionRow {
	tx := &domain.TransactionRow{
		ID:          row.TransactionID,
		BankName:    row.BankName,
		Date:        row.Date,
		Description: row.Description,
		Vendor:      row.Vendor,
		GLAccount:   row.GLAccount,
	}
	if row.AmountPaid.Valid {
		tx.AmountPaid = domain.Float64(row.AmountPaid.Float64)
	}
	if row.AmountReceived.Valid {
		tx.AmountReceived = domain.Float64(row.AmountReceived.Float64)
	}
	if row.ConfidenceScore.Valid {
		tx.ConfidenceScore = domain.Float64(row.ConfidenceScore.Float64)
	}
	if row.CreatedAtSeconds.Valid || row.CreatedAtNanos.Valid {
		tx.CreatedAt = &domain.Timestamp{
			Seconds: row.CreatedAtSeconds.Int64,
			Nanos:   row.CreatedAtNanos.Int64,
		}
	}
	return tx
}

// NullDateOf converts a time into a BigQuery civil date.
func NullDateOf(t time.Time) bigquery.NullDate {
	return bigquery.NullDate{Date: civil.DateOf(t), Valid: true}
}
