package categorize

import (
	"strings"

	"github.com/harsh2517/bankrecon/internal/domain"
)

// buildCategorizationPrompt asks for one suggestion per input row,
// constrained to the caller's GL-account vocabulary. The response schema
// is re-validated on the way back; nothing here is trusted.
func buildCategorizationPrompt(txs []*domain.TransactionRow, glAccounts []string) string {
	var b strings.Builder

	b.WriteString("You are a bookkeeping assistant categorizing bank transactions.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- For EVERY transaction below, suggest the vendor/customer name and the best GL account.\n")
	b.WriteString("- Output STRICT JSON only: a JSON array with EXACTLY one object per transaction id.\n")
	b.WriteString("- Never skip an id, never invent one, never repeat one.\n\n")
	b.WriteString("Each object must have these fields:\n")
	b.WriteString("- \"id\": string, copied verbatim from the transaction\n")
	b.WriteString("- \"suggestedVendor\": string\n")
	b.WriteString("- \"suggestedGlAccount\": string, EXACTLY one of the GL accounts listed below\n")
	b.WriteString("- \"confidenceScore\": number between 0 and 1\n\n")

	b.WriteString("Use ONLY the following GL accounts:\n")
	for _, acct := range glAccounts {
		b.WriteString("  - " + acct + "\n")
	}

	b.WriteString("\nTransactions:\n")
	for _, tx := range txs {
		b.WriteString("  id=" + tx.ID)
		b.WriteString(" date=" + tx.Date)
		b.WriteString(" description=" + strings.ReplaceAll(tx.Description, "\n", " "))
		if tx.Paid() != 0 {
			b.WriteString(" direction=paid")
		} else if tx.Received() != 0 {
			b.WriteString(" direction=received")
		}
		b.WriteString("\n")
	}

	b.WriteString("\nReturn ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"[\" and end with \"]\".\n")

	return b.String()
}
