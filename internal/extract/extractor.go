package extract

import (
	"context"
	"fmt"

	"github.com/harsh2517/bankrecon/internal/domain"
	"github.com/harsh2517/bankrecon/internal/oracle"
)

// Extractor runs oracle-backed table extraction over one document page
// per call and normalizes the result.
type Extractor struct {
	oracle oracle.Oracle

	// StatementYear is supplied when source documents omit the year from
	// transaction dates. Zero means no year context.
	StatementYear int
}

// NewExtractor creates an extractor bound to the given oracle.
func NewExtractor(o oracle.Oracle) *Extractor {
	return &Extractor{oracle: o}
}

// ExtractTable extracts and normalizes the transaction table from a
// document page. A document with no identifiable table yields an empty
// Result with a diagnostic, not an error; errors are reserved for oracle
// transport failures and whole-response schema mismatches.
func (e *Extractor) ExtractTable(ctx context.Context, doc *oracle.Document, docType domain.DocumentType) (Result, error) {
	if !docType.Valid() {
		return Result{}, fmt.Errorf("ExtractTable: unknown document type %q", docType)
	}

	prompt := buildExtractionPrompt(docType, e.StatementYear)

	raw, err := e.oracle.GenerateJSON(ctx, prompt, doc)
	if err != nil {
		return Result{}, fmt.Errorf("ExtractTable: %w", err)
	}

	obj, err := oracle.AsObject(raw)
	if err != nil {
		return Result{}, fmt.Errorf("ExtractTable: %w", err)
	}

	rowsAny, ok := obj["rows"]
	if !ok {
		return Result{}, fmt.Errorf("ExtractTable: %w", &oracle.SchemaError{Reason: "missing required field \"rows\""})
	}
	rowsArr, err := oracle.AsArray(rowsAny)
	if err != nil {
		return Result{}, fmt.Errorf("ExtractTable: field \"rows\": %w", err)
	}

	hasBalance := false
	if v, ok := obj["hasRunningBalance"].(bool); ok {
		hasBalance = v
	}

	rawRows := make([][]any, 0, len(rowsArr))
	for _, item := range rowsArr {
		cells, ok := item.([]any)
		if !ok {
			// One malformed row does not fail the page.
			continue
		}
		rawRows = append(rawRows, cells)
	}

	res := NormalizeRows(rawRows, docType, hasBalance)
	if res.Empty() {
		if diag, _ := oracle.OptionalStringField(obj, "diagnostic"); diag != nil {
			res.Diagnostic = *diag
		} else if res.Diagnostic == "" {
			res.Diagnostic = "no transaction rows identified in document"
		}
	}
	return res, nil
}
