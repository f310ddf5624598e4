// Package extract turns raw document pages into canonical extracted
// tables. The oracle reads the page; this package owns the header
// contracts, cell coercion and the row-inclusion policy.
package extract

import (
	"strconv"
	"strings"

	"github.com/harsh2517/bankrecon/internal/domain"
)

// Header contracts per document type. Order is part of the contract.
var (
	headerBankStatement = []string{"Date", "Description", "Amount Paid", "Amount Received"}
	headerCreditCard    = []string{"Transaction Date", "Description", "Amount"}
	headerVendorBill    = []string{"Date", "Vendor Name", "Customer Name", "Bill Number", "Description", "Unit Price", "Quantity", "Amount", "Total GST", "Total Amount"}
	headerCheck         = []string{"Date", "Check Number", "Payee", "Payer", "Amount", "Memo/Narration"}
)

// HeaderFor returns the fixed header row for the document type. For bank
// statements a trailing "Balance" column is appended only when the source
// genuinely exposes a running balance; it is never fabricated.
func HeaderFor(docType domain.DocumentType, hasRunningBalance bool) []string {
	switch docType {
	case domain.DocTypeBankStatement:
		if hasRunningBalance {
			return append(append([]string{}, headerBankStatement...), "Balance")
		}
		return append([]string{}, headerBankStatement...)
	case domain.DocTypeCreditCard:
		return append([]string{}, headerCreditCard...)
	case domain.DocTypeVendorBill:
		return append([]string{}, headerVendorBill...)
	case domain.DocTypeCheck:
		return append([]string{}, headerCheck...)
	}
	return nil
}

// Result is the outcome of extracting one document page. An empty table
// with a diagnostic is a valid terminal state, not an error; the caller
// falls back to manual entry.
type Result struct {
	// Table is the extracted table. The first row is the header; every
	// cell is a string.
	Table [][]string

	// Diagnostic is a human-readable message explaining why no table
	// could be identified. Set only when the table is empty.
	Diagnostic string
}

// Empty reports whether no transaction rows were extracted.
func (r Result) Empty() bool {
	return len(r.Table) <= 1
}

// NormalizeRows converts heterogeneous raw cells into the canonical table
// for the document type. Cells are coerced to strings (numbers
// stringified, missing values become ""), rows are padded or truncated to
// the header width, and summary/non-transactional rows are dropped.
func NormalizeRows(raw [][]any, docType domain.DocumentType, hasRunningBalance bool) Result {
	header := HeaderFor(docType, hasRunningBalance)
	if header == nil {
		return Result{Diagnostic: "unknown document type " + string(docType)}
	}

	table := [][]string{header}
	for _, rawRow := range raw {
		cells := coerceRow(rawRow, len(header))
		if emptyRow(cells) || isSummaryRow(cells, docType) {
			continue
		}
		table = append(table, cells)
		// A check document carries exactly one data row.
		if docType == domain.DocTypeCheck {
			break
		}
	}

	if len(table) == 1 {
		return Result{
			Table:      table,
			Diagnostic: "no transaction rows identified in document",
		}
	}
	return Result{Table: table}
}

// coerceRow stringifies every cell and fixes the row width.
func coerceRow(raw []any, width int) []string {
	cells := make([]string, width)
	for i := 0; i < width && i < len(raw); i++ {
		cells[i] = coerceCell(raw[i])
	}
	return cells
}

func coerceCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func emptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// summaryMarkers are phrases that identify summary/total rows and other
// non-transactional statement text. Such rows never reach downstream
// stages.
var summaryMarkers = []string{
	"total",
	"subtotal",
	"sub-total",
	"balance brought forward",
	"balance carried forward",
	"brought forward",
	"carried forward",
	"opening balance",
	"closing balance",
	"statement summary",
	"continued on next page",
	"continued from previous page",
	"money in",
	"money out",
	"grand total",
}

// isSummaryRow drops only rows that cannot be transactions. A row with a
// date and a valid amount in the amount columns is always kept, whatever
// its description says: banks print vendors like "TOTAL ENERGIES" and
// narrations like "MONEY IN FROM CLIENT", and losing such rows corrupts
// every balance computed downstream. Markers therefore apply only to
// rows without transaction shape, and only as whole phrases at the start
// of a cell.
func isSummaryRow(cells []string, docType domain.DocumentType) bool {
	if hasTransactionShape(cells, docType) {
		return false
	}

	// Vendor bills legitimately carry "Total GST"/"Total Amount" values
	// per line item, so only the description-like cells are inspected.
	inspect := cells
	if docType == domain.DocTypeVendorBill && len(cells) > 4 {
		inspect = cells[:5]
	}

	for _, cell := range inspect {
		if matchesSummaryMarker(cell) {
			return true
		}
	}
	return false
}

// matchesSummaryMarker reports whether the cell begins with a summary
// phrase. Prefix-only matching keeps markers from firing inside longer
// descriptions.
func matchesSummaryMarker(cell string) bool {
	lc := strings.ToLower(strings.TrimSpace(cell))
	if lc == "" {
		return false
	}
	for _, marker := range summaryMarkers {
		if lc == marker ||
			strings.HasPrefix(lc, marker+" ") ||
			strings.HasPrefix(lc, marker+":") {
			return true
		}
	}
	return false
}

// hasTransactionShape reports whether the row carries the date/amount
// shape of a real transaction for the document type: a date-like first
// cell plus a valid non-zero amount in the type's amount columns (for
// bank statements, exactly one of paid/received).
func hasTransactionShape(cells []string, docType domain.DocumentType) bool {
	if len(cells) == 0 || !dateLike(cells[0]) {
		return false
	}

	switch docType {
	case domain.DocTypeBankStatement:
		if len(cells) < 4 {
			return false
		}
		paid := parseCellAmount(cells[2])
		received := parseCellAmount(cells[3])
		return (paid != nil) != (received != nil)
	case domain.DocTypeCreditCard:
		return len(cells) >= 3 && parseCellAmount(cells[2]) != nil
	case domain.DocTypeVendorBill:
		for _, i := range []int{5, 7, 9} {
			if i < len(cells) && parseCellAmount(cells[i]) != nil {
				return true
			}
		}
		return false
	case domain.DocTypeCheck:
		return len(cells) >= 5 && parseCellAmount(cells[4]) != nil
	}
	return false
}

// dateLike accepts any non-empty cell containing a digit; exact date
// canonicalization happens upstream in the extraction prompt.
func dateLike(cell string) bool {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return false
	}
	return strings.ContainsAny(cell, "0123456789")
}
