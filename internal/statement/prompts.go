package statement

import "strings"

// buildSystemPrompt constructs the system-level instructions for the
// completion service. The business rules here are load-bearing: sign
// convention, ISO dates, description joining, the closed category list, and
// skipping non-transaction rows all happen at the model, with the validator
// as the backstop.
func buildSystemPrompt(categories []string) string {
	var b strings.Builder

	b.WriteString("You are a bank statement parser for a household budgeting app.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Extract ALL transactions from the provided statement content.\n")
	b.WriteString("- Output STRICT JSON only: a JSON array of objects, no comments, no extra text.\n\n")
	b.WriteString("Each object must have these fields:\n")
	b.WriteString("- \"date\": string, ISO format \"YYYY-MM-DD\"\n")
	b.WriteString("- \"description\": string\n")
	b.WriteString("- \"amount\": number (negative for debits/expenses, positive for credits/income)\n")
	b.WriteString("- \"category\": string (one of the known categories below)\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- If the statement has separate debit and credit columns, convert to a single signed amount: debit means negative, credit means positive.\n")
	b.WriteString("- Normalize every date to YYYY-MM-DD.\n")
	b.WriteString("- If a description spans multiple lines, join it into a single line.\n")
	b.WriteString("- Ignore running-balance columns, header rows, footer rows, and totals.\n")
	b.WriteString("- Do NOT wrap the response in code fences or Markdown.\n")

	if len(categories) > 0 {
		b.WriteString("\nAssign each transaction a \"category\" from EXACTLY this list:\n")
		for _, c := range categories {
			b.WriteString("- " + c + "\n")
		}
		b.WriteString("If none fits, use \"Other\".\n")
	} else {
		b.WriteString("\nSet \"category\" to \"Other\" for every transaction.\n")
	}

	return b.String()
}

// textUserPrompt wraps statement text for the text-mode call.
func textUserPrompt(text string) string {
	return "Statement content:\n\n" + text
}
