package pipeline

import (
	"context"

	"github.com/harsh2517/bankrecon/internal/categorize"
	"github.com/harsh2517/bankrecon/internal/domain"
	"github.com/harsh2517/bankrecon/internal/extract"
	"github.com/harsh2517/bankrecon/internal/oracle"
	"github.com/harsh2517/bankrecon/internal/reconcile"
)

// TableExtractor extracts the normalized transaction table from a
// document page.
type TableExtractor interface {
	ExtractTable(ctx context.Context, doc *oracle.Document, docType domain.DocumentType) (extract.Result, error)
}

// RowCategorizer suggests vendor and GL-account labels for a batch of
// rows against a fixed vocabulary.
type RowCategorizer interface {
	Categorize(ctx context.Context, txs []*domain.TransactionRow, availableGLAccounts []string) (categorize.BatchResult, error)
}

// ReferenceMatcher applies historical-reference categorization before
// the oracle is consulted.
type ReferenceMatcher interface {
	MatchReferences(txs []*domain.TransactionRow, refs []domain.HistoricalReferenceItem) categorize.MatchResult
}

// Reconciler repairs a transaction set that does not balance against
// the statement's stated opening and closing balances.
type Reconciler interface {
	Reconcile(ctx context.Context, rc domain.ReconciliationContext, doc *oracle.Document, ocrText string) (reconcile.Outcome, error)
}
