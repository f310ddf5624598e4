package domain

// VendorUncategorized is the placeholder written into Vendor and GLAccount
// when a row has not been categorized yet, or when a suggestion had to be
// discarded and no previous value existed.
const VendorUncategorized = "-"

// TransactionRow is the canonical ledger row that flows through every
// pipeline stage. Stages receive copies and return new instances; the row
// stored in the ledger is only replaced, never mutated in place.
type TransactionRow struct {
	// ID is generated once on ingestion and never regenerated afterwards.
	ID string `json:"id"`

	// BankName tags the source statement. It must survive every
	// transformation byte-for-byte; losing it is a correctness bug.
	BankName string `json:"bankName"`

	// Date is a calendar date in canonical "YYYY-MM-DD" form. When the
	// source document omits the year, the statement year is supplied by
	// the caller before rows reach this struct.
	Date string `json:"date"`

	// Description is preserved verbatim from extraction.
	Description string `json:"description"`

	Vendor    string `json:"vendor"`
	GLAccount string `json:"glAccount"`

	// AmountPaid and AmountReceived are nullable non-negative amounts.
	// At most one of the two may be non-zero on any row.
	AmountPaid     *float64 `json:"amountPaid"`
	AmountReceived *float64 `json:"amountReceived"`

	// ConfidenceScore is the oracle's self-reported certainty in [0,1],
	// present only after open-ended categorization. Low scores flag rows
	// for human review; they never exclude a row automatically.
	ConfidenceScore *float64 `json:"confidenceScore,omitempty"`

	// CreatedAt is an opaque creation-time marker. Absence and explicit
	// null are distinct states and both must round-trip through merges.
	CreatedAt *Timestamp `json:"createdAt,omitempty"`
}

// Clone returns a deep copy of the row. Pipeline stages work on clones so
// that no stage mutates state it does not own.
func (t *TransactionRow) Clone() *TransactionRow {
	out := *t
	out.AmountPaid = cloneFloat(t.AmountPaid)
	out.AmountReceived = cloneFloat(t.AmountReceived)
	out.ConfidenceScore = cloneFloat(t.ConfidenceScore)
	if t.CreatedAt != nil {
		ts := *t.CreatedAt
		out.CreatedAt = &ts
	}
	return &out
}

// Paid returns the paid amount, treating nil as zero.
func (t *TransactionRow) Paid() float64 {
	if t.AmountPaid == nil {
		return 0
	}
	return *t.AmountPaid
}

// Received returns the received amount, treating nil as zero.
func (t *TransactionRow) Received() float64 {
	if t.AmountReceived == nil {
		return 0
	}
	return *t.AmountReceived
}

// Validate checks the single-amount invariant: a row may carry a paid
// amount or a received amount, never both, and neither may be negative.
func (t *TransactionRow) Validate() error {
	if t.AmountPaid != nil && *t.AmountPaid < 0 {
		return &InvalidRowError{ID: t.ID, Reason: "negative amountPaid"}
	}
	if t.AmountReceived != nil && *t.AmountReceived < 0 {
		return &InvalidRowError{ID: t.ID, Reason: "negative amountReceived"}
	}
	if t.Paid() != 0 && t.Received() != 0 {
		return &InvalidRowError{ID: t.ID, Reason: "both amountPaid and amountReceived are non-zero"}
	}
	return nil
}

// InvalidRowError reports a row that violates the transaction-row
// invariants. Individual invalid rows are repaired or skipped locally;
// they do not fail a whole batch.
type InvalidRowError struct {
	ID     string
	Reason string
}

func (e *InvalidRowError) Error() string {
	return "invalid transaction row " + e.ID + ": " + e.Reason
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Float64 returns a pointer to v. Convenience for building rows.
func Float64(v float64) *float64 {
	return &v
}

// HistoricalReferenceItem is a user-curated lookup entry used for
// deterministic-leaning categorization before falling back to open-ended
// oracle categorization. The pipeline treats these as read-only.
type HistoricalReferenceItem struct {
	Keyword            string `json:"keyword"`
	VendorCustomerName string `json:"vendorCustomerName"`
	GLAccount          string `json:"glAccount"`
}

// ReconciliationContext carries everything the reconciliation engine needs
// to repair a statement: the stated balances, the current (presumed wrong)
// transaction set, and the discrepancy computed over it.
type ReconciliationContext struct {
	OpeningBalance      float64
	ClosingBalance      float64
	CurrentTransactions []*TransactionRow
	DiscrepancyAmount   float64

	// BankName tags rows the engine rebuilds. It must be set even when
	// CurrentTransactions is empty; corrected rows may never lose the
	// bank tag.
	BankName string
}

// AccountNature selects the sign convention the balance accumulator
// applies when folding rows into a balance.
type AccountNature int

const (
	// NatureDebit is for asset and expense accounts: a received amount
	// increases the balance, a paid amount decreases it.
	NatureDebit AccountNature = iota
	// NatureCredit is for liability, equity and income accounts: the
	// convention above is inverted.
	NatureCredit
)

// DocumentType identifies the kind of source document a table was
// extracted from, which fixes the header contract of the extracted table.
type DocumentType string

const (
	DocTypeBankStatement DocumentType = "bankStatement"
	DocTypeCreditCard    DocumentType = "creditCard"
	DocTypeVendorBill    DocumentType = "vendorBill"
	DocTypeCheck         DocumentType = "check"
)

// Valid reports whether d is one of the known document types.
func (d DocumentType) Valid() bool {
	switch d {
	case DocTypeBankStatement, DocTypeCreditCard, DocTypeVendorBill, DocTypeCheck:
		return true
	}
	return false
}
