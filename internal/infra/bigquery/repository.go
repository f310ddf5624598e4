package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/harsh2517/bankrecon/internal/domain"
)

// LedgerRepository is the storage surface the pipeline needs. The
// interface exists so tests can run against a func-field mock instead of
// a live dataset.
type LedgerRepository interface {
	InsertDocument(ctx context.Context, row *DocumentRow) error
	// DocumentExists reports whether a document record is already
	// present, so retried jobs do not register the same document twice.
	DocumentExists(ctx context.Context, documentID string) (bool, error)
	InsertTransactions(ctx context.Context, txs []*domain.TransactionRow, documentID, runID string) error
	ListTransactions(ctx context.Context, documentID string) ([]*domain.TransactionRow, error)
	// SupersedeTransactions marks a document's current rows as
	// superseded so a reconciled replacement set can take their place.
	SupersedeTransactions(ctx context.Context, documentID string) error

	StartRun(ctx context.Context, documentID string) (string, error)
	FinishRun(ctx context.Context, runID, status, errMsg, explanation string, discrepancy, residual *float64)

	Close() error
}

// Repository is the BigQuery-backed LedgerRepository. It holds a shared
// client so each operation does not open a new connection.
type Repository struct {
	client  *bigquery.Client
	dataset string
}

// NewRepository creates a repository against the given project and
// dataset.
func NewRepository(ctx context.Context, projectID, dataset string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: bigquery client: %w", err)
	}
	return &Repository{client: client, dataset: dataset}, nil
}

// Close releases the underlying client.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// InsertDocument inserts one document record.
func (r *Repository) InsertDocument(ctx context.Context, row *DocumentRow) error {
	inserter := r.client.Dataset(r.dataset).Table("documents").Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertDocument: inserting row: %w", err)
	}
	return nil
}

// DocumentExists checks for an existing document record by id.
func (r *Repository) DocumentExists(ctx context.Context, documentID string) (bool, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT COUNT(*) AS n
		FROM %s.documents
		WHERE document_id = @document_id
	`, r.dataset))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "document_id", Value: documentID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return false, fmt.Errorf("DocumentExists: running query: %w", err)
	}
	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil {
		return false, fmt.Errorf("DocumentExists: reading count: %w", err)
	}
	return row.N > 0, nil
}

// InsertTransactions writes a batch of ledger rows for a document/run.
func (r *Repository) InsertTransactions(ctx context.Context, txs []*domain.TransactionRow, documentID, runID string) error {
	rows := make([]*LedgerRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, ToLedgerRow(tx, documentID, runID))
	}
	inserter := r.client.Dataset(r.dataset).Table("ledger_rows").Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting %d rows: %w", len(rows), err)
	}
	return nil
}

// ListTransactions returns the current (non-superseded) rows of a
// document in insertion order.
func (r *Repository) ListTransactions(ctx context.Context, documentID string) ([]*domain.TransactionRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT *
		FROM %s.ledger_rows
		WHERE document_id = @document_id AND superseded = FALSE
		ORDER BY inserted_ts, transaction_date
	`, r.dataset))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "document_id", Value: documentID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: running query: %w", err)
	}

	var out []*domain.TransactionRow
	for {
		var row LedgerRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: reading row: %w", err)
		}
		out = append(out, FromLedgerRow(&row))
	}
	return out, nil
}

// SupersedeTransactions flags every live row of a document.
func (r *Repository) SupersedeTransactions(ctx context.Context, documentID string) error {
	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s.ledger_rows
		SET superseded = TRUE
		WHERE document_id = @document_id AND superseded = FALSE
	`, r.dataset))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "document_id", Value: documentID},
	}
	return r.runAndWait(ctx, q, "SupersedeTransactions")
}

// StartRun creates a reconciliation run with status=RUNNING and returns
// its id.
func (r *Repository) StartRun(ctx context.Context, documentID string) (string, error) {
	runID := newRunID()
	q := r.client.Query(fmt.Sprintf(`
		INSERT %s.reconciliation_runs (run_id, document_id, started_ts, status)
		VALUES (@run_id, @document_id, @started_ts, @status)
	`, r.dataset))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "document_id", Value: documentID},
		{Name: "started_ts", Value: time.Now()},
		{Name: "status", Value: RunStatusRunning},
	}
	if err := r.runAndWait(ctx, q, "StartRun"); err != nil {
		return "", err
	}
	return runID, nil
}

// FinishRun records the terminal state of a run. Errors here are logged
// by the query layer but not propagated: a bookkeeping failure must not
// mask the pipeline outcome it is recording.
func (r *Repository) FinishRun(ctx context.Context, runID, status, errMsg, explanation string, discrepancy, residual *float64) {
	const maxErrLen = 2000
	if len(errMsg) > maxErrLen {
		errMsg = errMsg[:maxErrLen]
	}

	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s.reconciliation_runs
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message,
		    explanation = @explanation,
		    discrepancy = @discrepancy,
		    residual = @residual
		WHERE run_id = @run_id
	`, r.dataset))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: status},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "explanation", Value: explanation},
		{Name: "discrepancy", Value: nullFloatParam(discrepancy)},
		{Name: "residual", Value: nullFloatParam(residual)},
		{Name: "run_id", Value: runID},
	}
	_ = r.runAndWait(ctx, q, "FinishRun")
}

func (r *Repository) runAndWait(ctx context.Context, q *bigquery.Query, op string) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s: running query: %w", op, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("%s: job error: %w", op, err)
	}
	return nil
}

func newRunID() string {
	return uuid.NewString()
}

func nullFloatParam(f *float64) bigquery.NullFloat64 {
	if f == nil {
		return bigquery.NullFloat64{}
	}
	return bigquery.NullFloat64{Float64: *f, Valid: true}
}
