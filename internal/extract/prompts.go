package extract

import (
	"strconv"
	"strings"

	"github.com/harsh2517/bankrecon/internal/domain"
)

// buildExtractionPrompt builds the page-extraction prompt for a document
// type. The model returns an object so that the running-balance question
// and the no-table diagnostic travel alongside the rows.
func buildExtractionPrompt(docType domain.DocumentType, statementYear int) string {
	var b strings.Builder

	b.WriteString("You are a financial document parser.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Extract ALL transaction rows from the attached document.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	b.WriteString("- Output a single JSON object with these fields:\n")
	b.WriteString("  - \"rows\": array of arrays, one inner array per transaction, cells in the column order given below\n")
	b.WriteString("  - \"hasRunningBalance\": boolean, true ONLY if the document itself shows a running balance column\n")
	b.WriteString("  - \"diagnostic\": string, set ONLY when no transaction table exists, explaining what the document contains instead\n\n")

	switch docType {
	case domain.DocTypeBankStatement:
		b.WriteString("Column order: Date, Description, Amount Paid, Amount Received")
		b.WriteString(", and Balance as a fifth cell ONLY when hasRunningBalance is true.\n")
		b.WriteString("Amount Paid and Amount Received are mutually exclusive per row; leave the other cell empty.\n")
	case domain.DocTypeCreditCard:
		b.WriteString("Column order: Transaction Date, Description, Amount.\n")
		b.WriteString("Sign convention: purchases and debits are positive, payments and credits are negative.\n")
	case domain.DocTypeVendorBill:
		b.WriteString("Column order: Date, Vendor Name, Customer Name, Bill Number, Description, Unit Price, Quantity, Amount, Total GST, Total Amount.\n")
		b.WriteString("Repeat the bill-level fields on every line-item row.\n")
	case domain.DocTypeCheck:
		b.WriteString("Column order: Date, Check Number, Payee, Payer, Amount, Memo/Narration.\n")
		b.WriteString("A check has exactly one transaction row.\n")
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Dates in ISO format \"YYYY-MM-DD\".\n")
	if statementYear > 0 {
		b.WriteString("- When the document omits the year, use ")
		b.WriteString(strconv.Itoa(statementYear))
		b.WriteString(".\n")
	}
	b.WriteString("- EXCLUDE summary rows, totals, \"balance brought forward\" lines and any non-transactional text.\n")
	b.WriteString("- Never invent a Balance column that the document does not show.\n")
	b.WriteString("- If no transaction table can be identified, return {\"rows\": [], \"hasRunningBalance\": false, \"diagnostic\": \"...\"}.\n")
	b.WriteString("\nReturn ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Do NOT use ```json or any Markdown.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n")

	return b.String()
}
