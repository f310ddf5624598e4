package reconcile

import (
	"fmt"
	"strings"

	"github.com/harsh2517/bankrecon/internal/domain"
)

// buildRepairPrompt frames the discrepancy repair for the oracle. The
// discrepancy sign is a directional hint, and the attached source
// document is declared the authority over the extracted table.
func buildRepairPrompt(rc domain.ReconciliationContext, ocrText string) string {
	var b strings.Builder

	b.WriteString("You are a bank statement reconciliation assistant.\n\n")
	fmt.Fprintf(&b, "Stated opening balance: %.2f\n", rc.OpeningBalance)
	fmt.Fprintf(&b, "Stated closing balance: %.2f\n", rc.ClosingBalance)
	fmt.Fprintf(&b, "Discrepancy (computed closing minus stated closing): %.2f\n\n", rc.DiscrepancyAmount)

	b.WriteString("The currently extracted transactions are listed below. They are WRONG in at least one way:\n")
	b.WriteString("a transaction is missing, an amount was transcribed incorrectly, a debit and credit were swapped,\n")
	b.WriteString("or a summary row was mistakenly included as a transaction.\n\n")

	if rc.DiscrepancyAmount > 0 {
		b.WriteString("The computed balance is TOO HIGH: look for a missed payment (debit), an overstated receipt,\n")
		b.WriteString("or a payment misread as a receipt.\n")
	} else {
		b.WriteString("The computed balance is TOO LOW: look for a missed receipt (credit), an overstated payment,\n")
		b.WriteString("or a receipt misread as a payment.\n")
	}
	b.WriteString("A small discrepancy may be a single transcription error such as transposed digits.\n\n")

	b.WriteString("Current transactions (date | description | amountPaid | amountReceived):\n")
	for _, tx := range rc.CurrentTransactions {
		fmt.Fprintf(&b, "  %s | %s | %.2f | %.2f\n", tx.Date, strings.ReplaceAll(tx.Description, "\n", " "), tx.Paid(), tx.Received())
	}

	b.WriteString("\nTask:\n")
	b.WriteString("- The ATTACHED SOURCE DOCUMENT is the authority, not the list above.\n")
	b.WriteString("- Re-derive the COMPLETE transaction list for the entire statement period from the document.\n")
	b.WriteString("- Do NOT just delete or patch one row to force the arithmetic; every real transaction must appear.\n")
	b.WriteString("- EXCLUDE summary rows, totals and balance-brought-forward lines.\n")
	b.WriteString("- Do NOT include any running-balance column.\n")
	b.WriteString("- The result must satisfy: openingBalance + sum(amountReceived) - sum(amountPaid) == closingBalance, exactly.\n\n")

	if ocrText != "" {
		b.WriteString("OCR text of the document, as supplementary context:\n")
		b.WriteString(ocrText)
		b.WriteString("\n\n")
	}

	b.WriteString("Output STRICT JSON only, a single object:\n")
	b.WriteString("{\n")
	b.WriteString("  \"correctedTransactions\": [{\"date\": \"YYYY-MM-DD\", \"description\": string, \"amountPaid\": number or null, \"amountReceived\": number or null}, ...],\n")
	b.WriteString("  \"explanation\": string, a non-empty summary of exactly what changed and why\n")
	b.WriteString("}\n")
	b.WriteString("Each transaction has EITHER amountPaid OR amountReceived, never both.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n")

	return b.String()
}
