package categorize

import (
	"github.com/harsh2517/bankrecon/internal/domain"
	"github.com/harsh2517/bankrecon/internal/oracle"
)

// mergeSuggestion rebuilds an output row by overlaying only vendor,
// glAccount and confidenceScore onto a full copy of the original. Every
// other field (id, bankName, date, description, amounts, createdAt) is
// carried over unconditionally, whatever the oracle returned.
//
// patch is the raw per-row object from the oracle response; it may be nil
// when the oracle dropped the row entirely.
func mergeSuggestion(original *domain.TransactionRow, patch map[string]any, vocab *Vocabulary) *domain.TransactionRow {
	out := original.Clone()

	if patch == nil {
		return fallback(out)
	}

	// CreatedAt round-trips through the merge even when the patch
	// mangles or omits it.
	patchTS, present := patch["createdAt"]
	out.CreatedAt = domain.RepairTimestamp(patchTS, present, original.CreatedAt)

	vendor, vendorErr := oracle.OptionalStringField(patch, "suggestedVendor")
	acct, acctErr := oracle.OptionalStringField(patch, "suggestedGlAccount")
	conf, confErr := oracle.OptionalFloat64Field(patch, "confidenceScore")

	if vendorErr != nil || acctErr != nil || confErr != nil {
		// Malformed individual suggestion: conservative defaults, do
		// not fail the batch.
		return fallback(out)
	}

	if vendor != nil {
		out.Vendor = *vendor
	} else if out.Vendor == "" {
		out.Vendor = domain.VendorUncategorized
	}

	if acct == nil {
		return fallback(out)
	}

	canonical, ok := vocab.Resolve(*acct)
	if !ok {
		// Out-of-vocabulary suggestion: discard it, keep the row's
		// pre-existing account, and force confidence to zero so
		// downstream consumers can filter the row. The oracle's own
		// reported confidence is irrelevant here.
		out.GLAccount = priorAccount(original)
		out.ConfidenceScore = domain.Float64(0)
		return out
	}

	out.GLAccount = canonical
	if conf != nil && *conf >= 0 && *conf <= 1 {
		out.ConfidenceScore = conf
	} else {
		out.ConfidenceScore = domain.Float64(0)
	}
	return out
}

// fallback applies the conservative defaults for a row whose suggestion
// is absent or unusable: original labels (or the placeholder) and zero
// confidence. The row is never dropped.
func fallback(row *domain.TransactionRow) *domain.TransactionRow {
	if row.Vendor == "" {
		row.Vendor = domain.VendorUncategorized
	}
	row.GLAccount = priorAccount(row)
	row.ConfidenceScore = domain.Float64(0)
	return row
}

func priorAccount(row *domain.TransactionRow) string {
	if row.GLAccount == "" {
		return domain.VendorUncategorized
	}
	return row.GLAccount
}
