package categorize

import (
	"context"
	"fmt"

	"github.com/harsh2517/bankrecon/internal/domain"
	"github.com/harsh2517/bankrecon/internal/logger"
	"github.com/harsh2517/bankrecon/internal/oracle"
)

// Categorizer runs open-ended oracle categorization over a batch of rows.
// One oracle call per batch; no internal retries.
type Categorizer struct {
	oracle oracle.Oracle
}

// NewCategorizer creates a categorizer bound to the given oracle.
func NewCategorizer(o oracle.Oracle) *Categorizer {
	return &Categorizer{oracle: o}
}

// BatchResult is the outcome of one categorization call. Rows preserves
// input order and contains exactly one output row per input id.
type BatchResult struct {
	Rows []*domain.TransactionRow

	// Categorized counts rows that received an in-vocabulary suggestion;
	// Untouched counts rows that fell back to their previous labels.
	// Batch operations report partial success, never all-or-nothing.
	Categorized int
	Untouched   int
}

// Categorize asks the oracle for a vendor and GL-account suggestion for
// every input row, then merges the suggestions under the strict overlay
// discipline. Every input id yields exactly one output row regardless of
// what the oracle returns; an out-of-vocabulary account is discarded with
// confidence forced to zero.
//
// When the oracle call itself fails, the returned error is non-nil and
// Rows still holds a defined fallback output for every input row, so the
// caller can choose between surfacing the failure and keeping the
// conservative result.
func (c *Categorizer) Categorize(ctx context.Context, txs []*domain.TransactionRow, availableGLAccounts []string) (BatchResult, error) {
	log := logger.FromContext(ctx)

	vocab := NewVocabulary(availableGLAccounts)
	if vocab.Len() == 0 {
		return fallbackBatch(txs, vocab), fmt.Errorf("Categorize: empty GL account vocabulary")
	}
	if len(txs) == 0 {
		return BatchResult{}, nil
	}

	prompt := buildCategorizationPrompt(txs, availableGLAccounts)

	raw, err := c.oracle.GenerateJSON(ctx, prompt, nil)
	if err != nil {
		log.Error().Err(err).Int("rows", len(txs)).Msg("categorization oracle call failed")
		return fallbackBatch(txs, vocab), fmt.Errorf("Categorize: %w", err)
	}

	arr, err := oracle.AsArray(raw)
	if err != nil {
		log.Error().Err(err).Msg("categorization response is not an array")
		return fallbackBatch(txs, vocab), fmt.Errorf("Categorize: %w", err)
	}

	// Index suggestions by id. Duplicates keep the first occurrence so
	// the output can never contain a row twice.
	byID := make(map[string]map[string]any, len(arr))
	for _, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, err := oracle.StringField(obj, "id")
		if err != nil {
			continue
		}
		if _, seen := byID[id]; !seen {
			byID[id] = obj
		}
	}

	res := mergeBatch(txs, byID, vocab)
	log.Info().
		Int("categorized", res.Categorized).
		Int("untouched", res.Untouched).
		Msg("categorization batch merged")
	return res, nil
}

func mergeBatch(txs []*domain.TransactionRow, byID map[string]map[string]any, vocab *Vocabulary) BatchResult {
	res := BatchResult{Rows: make([]*domain.TransactionRow, 0, len(txs))}
	for _, tx := range txs {
		merged := mergeSuggestion(tx, byID[tx.ID], vocab)
		res.Rows = append(res.Rows, merged)
		if merged.ConfidenceScore != nil && *merged.ConfidenceScore > 0 {
			res.Categorized++
		} else {
			res.Untouched++
		}
	}
	return res
}

func fallbackBatch(txs []*domain.TransactionRow, vocab *Vocabulary) BatchResult {
	return mergeBatch(txs, nil, vocab)
}
