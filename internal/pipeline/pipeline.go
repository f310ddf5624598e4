// Package pipeline orchestrates one full reconciliation pass over a
// statement document: fetch, extract, categorize, reconcile, persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/harsh2517/bankrecon/internal/domain"
	"github.com/harsh2517/bankrecon/internal/extract"
	"github.com/harsh2517/bankrecon/internal/gcs"
	infra "github.com/harsh2517/bankrecon/internal/infra/bigquery"
	"github.com/harsh2517/bankrecon/internal/ledger"
	"github.com/harsh2517/bankrecon/internal/logger"
	"github.com/harsh2517/bankrecon/internal/oracle"
	"github.com/harsh2517/bankrecon/internal/reconcile"
)

// Request describes one document to process.
type Request struct {
	GCSURI       string
	DocumentType domain.DocumentType
	BankName     string

	// DocumentID makes document registration idempotent: callers that
	// may retry (the job queue) pass a stable id so a re-run never
	// inserts a second document record. Empty means generate one.
	DocumentID string

	OpeningBalance float64
	ClosingBalance float64

	// StatementStart and StatementEnd bound the statement period when
	// the caller knows it; zero values are stored as NULL.
	StatementStart time.Time
	StatementEnd   time.Time

	AvailableGLAccounts []string
	References          []domain.HistoricalReferenceItem

	// OCRText is optional supplementary text for documents whose PDF
	// layer is unreliable.
	OCRText string
}

// Summary is the outcome of one pipeline run.
type Summary struct {
	DocumentID string
	RunID      string
	Status     string

	RowCount    int
	Categorized int

	Discrepancy string
	Residual    float64
	Explanation string
}

// PipelineStep represents a single step in the reconciliation pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Request Request

	DocumentID string
	RunID      string

	DocBytes []byte
	Document *oracle.Document

	Extracted extract.Result
	Rows      []*domain.TransactionRow

	Discrepancy float64
	Outcome     *reconcile.Outcome
	Categorized int
}

// Service wires the pipeline's collaborators. Every field is an
// interface so tests can substitute mocks.
type Service struct {
	Storage     gcs.StorageService
	Repo        infra.LedgerRepository
	Extractor   TableExtractor
	Matcher     ReferenceMatcher
	Categorizer RowCategorizer
	Engine      Reconciler
	Log         zerolog.Logger
}

// FetchDocumentStep downloads the source bytes from storage.
type FetchDocumentStep struct{ svc *Service }

func (s *FetchDocumentStep) Execute(ctx context.Context, state *PipelineState) error {
	data, err := s.svc.Storage.Fetch(ctx, state.Request.GCSURI)
	if err != nil {
		return fmt.Errorf("FetchDocumentStep: %w", err)
	}
	state.DocBytes = data
	state.Document = &oracle.Document{
		MIMEType: mimeFor(s.svc.Storage.FilenameFromURI(state.Request.GCSURI)),
		Data:     data,
	}
	return nil
}

// CreateDocumentStep records the document in the ledger store.
type CreateDocumentStep struct{ svc *Service }

func (s *CreateDocumentStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Request.DocumentID != "" {
		state.DocumentID = state.Request.DocumentID
		exists, err := s.svc.Repo.DocumentExists(ctx, state.DocumentID)
		if err != nil {
			return fmt.Errorf("CreateDocumentStep: %w", err)
		}
		if exists {
			return nil
		}
	} else {
		state.DocumentID = uuid.NewString()
	}
	row := &infra.DocumentRow{
		DocumentID:       state.DocumentID,
		GCSURI:           state.Request.GCSURI,
		DocumentType:     string(state.Request.DocumentType),
		BankName:         state.Request.BankName,
		OpeningBalance:   nullFloat(state.Request.OpeningBalance),
		ClosingBalance:   nullFloat(state.Request.ClosingBalance),
		UploadTS:         time.Now(),
		OriginalFilename: s.svc.Storage.FilenameFromURI(state.Request.GCSURI),
	}
	if !state.Request.StatementStart.IsZero() {
		row.StatementStart = infra.NullDateOf(state.Request.StatementStart)
	}
	if !state.Request.StatementEnd.IsZero() {
		row.StatementEnd = infra.NullDateOf(state.Request.StatementEnd)
	}
	if err := s.svc.Repo.InsertDocument(ctx, row); err != nil {
		return fmt.Errorf("CreateDocumentStep: %w", err)
	}
	return nil
}

// StartRunStep opens a reconciliation run (status=RUNNING).
type StartRunStep struct{ svc *Service }

func (s *StartRunStep) Execute(ctx context.Context, state *PipelineState) error {
	runID, err := s.svc.Repo.StartRun(ctx, state.DocumentID)
	if err != nil {
		return fmt.Errorf("StartRunStep: %w", err)
	}
	state.RunID = runID
	return nil
}

// ExtractStep extracts the normalized transaction table and builds
// transaction rows from it. A document with no identifiable rows is a
// valid empty outcome, not a failure.
type ExtractStep struct{ svc *Service }

func (s *ExtractStep) Execute(ctx context.Context, state *PipelineState) error {
	res, err := s.svc.Extractor.ExtractTable(ctx, state.Document, state.Request.DocumentType)
	if err != nil {
		return fmt.Errorf("ExtractStep: %w", err)
	}
	state.Extracted = res

	if res.Empty() {
		log := logger.ForRun(s.svc.Log, state.DocumentID, state.RunID)
		log.Warn().
			Str("diagnostic", res.Diagnostic).
			Msg("no transaction rows identified")
		state.Rows = nil
		return nil
	}

	rows, err := extract.TransactionRows(res, state.Request.BankName)
	if err != nil {
		return fmt.Errorf("ExtractStep: %w", err)
	}
	state.Rows = rows
	return nil
}

// ReferenceMatchStep copies vendor and GL account from historical
// reference items onto rows whose descriptions match unambiguously.
// Rows the matcher leaves untouched stay eligible for the open-ended
// categorizer.
type ReferenceMatchStep struct{ svc *Service }

func (s *ReferenceMatchStep) Execute(ctx context.Context, state *PipelineState) error {
	if len(state.Request.References) == 0 || len(state.Rows) == 0 {
		return nil
	}
	res := s.svc.Matcher.MatchReferences(state.Rows, state.Request.References)

	byID := make(map[string]*domain.TransactionRow, len(res.Matched))
	for _, tx := range res.Matched {
		byID[tx.ID] = tx
	}
	for i, tx := range state.Rows {
		if m, ok := byID[tx.ID]; ok {
			state.Rows[i] = m
		}
	}
	log := logger.ForRun(s.svc.Log, state.DocumentID, state.RunID)
	log.Info().
		Int("matched", len(res.Matched)).
		Int("untouched", len(res.Untouched)).
		Msg("reference matching complete")
	return nil
}

// CategorizeStep runs open-ended categorization over rows that still
// lack a vendor or GL account. A categorization failure downgrades to a
// warning: the rows keep their conservative fallback labels and the run
// continues.
type CategorizeStep struct{ svc *Service }

func (s *CategorizeStep) Execute(ctx context.Context, state *PipelineState) error {
	if len(state.Request.AvailableGLAccounts) == 0 || len(state.Rows) == 0 {
		return nil
	}

	var pending []*domain.TransactionRow
	for _, tx := range state.Rows {
		if tx.Vendor == domain.VendorUncategorized || tx.GLAccount == domain.VendorUncategorized || tx.GLAccount == "" {
			pending = append(pending, tx)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	log := logger.ForRun(s.svc.Log, state.DocumentID, state.RunID)
	res, err := s.svc.Categorizer.Categorize(logger.WithContext(ctx, log), pending, state.Request.AvailableGLAccounts)
	if err != nil {
		log.Warn().Err(err).Msg("categorization failed, keeping fallback labels")
	}
	state.Categorized = res.Categorized

	byID := make(map[string]*domain.TransactionRow, len(res.Rows))
	for _, tx := range res.Rows {
		byID[tx.ID] = tx
	}
	for i, tx := range state.Rows {
		if m, ok := byID[tx.ID]; ok {
			state.Rows[i] = m
		}
	}
	return nil
}

// PersistRowsStep writes the current row set to the ledger store.
type PersistRowsStep struct{ svc *Service }

func (s *PersistRowsStep) Execute(ctx context.Context, state *PipelineState) error {
	if len(state.Rows) == 0 {
		return nil
	}
	if err := s.svc.Repo.InsertTransactions(ctx, state.Rows, state.DocumentID, state.RunID); err != nil {
		return fmt.Errorf("PersistRowsStep: %w", err)
	}
	return nil
}

// ReconcileStep checks the extracted set against the statement balances
// and repairs it through the engine when it does not close. A repaired
// set supersedes the originally persisted rows.
type ReconcileStep struct{ svc *Service }

func (s *ReconcileStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Discrepancy = ledger.Discrepancy(state.Rows, state.Request.OpeningBalance, state.Request.ClosingBalance)

	log := logger.ForRun(s.svc.Log, state.DocumentID, state.RunID)
	if state.Discrepancy >= -reconcile.Tolerance && state.Discrepancy <= reconcile.Tolerance {
		log.Info().Msg("statement reconciles, no repair needed")
		return nil
	}

	log.Info().
		Float64("discrepancy", state.Discrepancy).
		Msg("statement does not reconcile, invoking repair")

	rc := domain.ReconciliationContext{
		OpeningBalance:      state.Request.OpeningBalance,
		ClosingBalance:      state.Request.ClosingBalance,
		CurrentTransactions: state.Rows,
		DiscrepancyAmount:   state.Discrepancy,
		BankName:            state.Request.BankName,
	}
	outcome, err := s.svc.Engine.Reconcile(ctx, rc, state.Document, state.Request.OCRText)

	var unresolved *reconcile.UnresolvedError
	if err != nil && !errors.As(err, &unresolved) {
		return fmt.Errorf("ReconcileStep: %w", err)
	}
	state.Outcome = &outcome

	if err := s.svc.Repo.SupersedeTransactions(ctx, state.DocumentID); err != nil {
		return fmt.Errorf("ReconcileStep: %w", err)
	}
	if len(outcome.Corrected) > 0 {
		if perr := s.svc.Repo.InsertTransactions(ctx, outcome.Corrected, state.DocumentID, state.RunID); perr != nil {
			return fmt.Errorf("ReconcileStep: %w", perr)
		}
	}
	state.Rows = outcome.Corrected

	if unresolved != nil {
		return unresolved
	}
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially, stopping at the first error.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d: %w", i+1, err)
		}
	}
	return nil
}

// NewReconciliationPipeline builds the standard step sequence for one
// statement document.
func (s *Service) NewReconciliationPipeline() *Pipeline {
	return NewPipeline(
		&FetchDocumentStep{svc: s},
		&CreateDocumentStep{svc: s},
		&StartRunStep{svc: s},
		&ExtractStep{svc: s},
		&ReferenceMatchStep{svc: s},
		&CategorizeStep{svc: s},
		&PersistRowsStep{svc: s},
		&ReconcileStep{svc: s},
	)
}

// ProcessDocument runs the full pipeline for one request and records the
// run's terminal status. An unresolved repair is reported in the summary
// rather than returned as a failure; hard errors fail the run.
func (s *Service) ProcessDocument(ctx context.Context, req Request) (*Summary, error) {
	state := &PipelineState{Request: req}
	err := s.NewReconciliationPipeline().Execute(ctx, state)

	summary := &Summary{
		DocumentID:  state.DocumentID,
		RunID:       state.RunID,
		RowCount:    len(state.Rows),
		Categorized: state.Categorized,
		Discrepancy: fmt.Sprintf("%.2f", state.Discrepancy),
	}
	if state.Outcome != nil {
		summary.Residual = state.Outcome.ResidualDiscrepancy
		summary.Explanation = state.Outcome.Explanation
	}

	var unresolved *reconcile.UnresolvedError
	switch {
	case err == nil:
		summary.Status = infra.RunStatusSuccess
	case errors.As(err, &unresolved):
		summary.Status = infra.RunStatusUnresolved
		err = nil
	default:
		summary.Status = infra.RunStatusFailed
	}

	if state.RunID != "" {
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		}
		disc := state.Discrepancy
		var residual *float64
		if state.Outcome != nil {
			residual = &state.Outcome.ResidualDiscrepancy
		}
		s.Repo.FinishRun(ctx, state.RunID, summary.Status, errMsg, summary.Explanation, &disc, residual)
	}

	if err != nil {
		return summary, err
	}
	return summary, nil
}

func nullFloat(f float64) bigquery.NullFloat64 {
	return bigquery.NullFloat64{Float64: f, Valid: true}
}

func mimeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/pdf"
	}
}
