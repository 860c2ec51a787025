package extract

import "strings"

const (
	// DefaultPrimaryTextLimit bounds the text sent to the primary backend.
	DefaultPrimaryTextLimit = 30000
	// DefaultLocalTextLimit bounds the text sent to the local model.
	DefaultLocalTextLimit = 8000
)

const systemPrompt = "You are an expert insurance claims data extraction assistant. " +
	"Extract data exactly as written. Patient names are ALWAYS text (like 'John Doe' or 'Baby of Sarah'), NEVER numbers or codes."

const instructionPrompt = `You are an expert assistant for a hospital insurance desk extracting structured data from insurance claim documents.

CRITICAL INSTRUCTIONS:
1. Extract ONLY information present in the document. Do not invent data.
2. Patient names are ALWAYS text names (e.g. "John Doe", "Baby of Sarah"), NEVER numbers or codes.
3. Claim numbers are alphanumeric codes (e.g. "CLM123456"), NOT patient names.
4. If a field cannot be found with confidence, use null.

Return ONLY a valid JSON object (no markdown, no explanations) with these fields:

PATIENT
- patient_name: the name only (e.g. "Rajesh Kumar"). Remove prefixes like "Details Patient Name" and suffixes like "Insured", "Policy No", "Main Member".
- hospital_id: hospital UHID or medical record number.

INSURANCE
- insurer_name: insurance company (e.g. ICICI Lombard, HDFC ERGO, Star Health).
- administrator_name: Third Party Administrator. Look for headers or logos containing "TPA", "TPA Limited", "Health Services".
- claim_number: look for "Claim No", "Claim Intimation No", "Invoice Number" or "UTR Number". Prefer the claim registration ID.
- claim_status: one of [Approved, Settled, Rejected, Pending, Queried, PreAuthorized]. A Payment Advice or any mention of UTR or payment made MUST be Settled. Settled trumps Approved.
- claim_date: PRIORITY 1. Admission Date 2. Date of Admission (DOA) 3. Hospitalization Date 4. Claim Submission Date. Format YYYY-MM-DD.
- settlement_date: PRIORITY 1. Settlement Date 2. Payment Date 3. EFT Date 4. Payment Processed Date. Format YYYY-MM-DD.
- claim_type: 'Cashless' if the document mentions TPA, Network Hospital, Pre-Auth, Authorization, Cashless or the insurer paid the hospital directly. 'Reimbursement' if it mentions Reimbursement, Refund to Patient, Patient Paid, Bill Submission. Use 'Emergency' or 'Planned' when explicitly stated. 'General' only if there is no clue.

AMOUNTS (numbers only, 0 if not found)
- total_bill_amount: gross hospital bill. In Payment Advices often "Invoice Amount", "Gross Amount" or "Claimed Amount".
- claim_amount: amount claimed from insurance. Often equal to the total bill.
- approved_amount: approved or eligible amount before co-pays ("Payable Amount", "Eligible Amount", "Admissible Amount").
- settled_amount: amount actually paid ("Net Payable", "Net Amount", "Amount Paid").
- rejected_amount: amount rejected or disallowed.
- patient_payable_amount: amount the patient must pay.
- balance_amount: balance the hospital still has to receive.
- outstanding_amount: amount pending from insurance.
- coverage_percent: coverage percentage (0-100).

OTHER
- remarks: notes, queries or rejection reasons.
- follow_up_date: follow-up or TAT date, format YYYY-MM-DD.

Document Text:
`

// BuildPrompt renders the primary extraction prompt for text bounded to limit runes.
func BuildPrompt(text string, limit int) string {
	var b strings.Builder
	b.WriteString(instructionPrompt)
	b.WriteString(truncate(text, limit))
	return b.String()
}

// BuildLocalPrompt renders the shorter completion-style prompt used with the
// local model. The response is expected to continue the opened JSON object.
func BuildLocalPrompt(text string, limit int) string {
	var b strings.Builder
	b.WriteString("### System:\n")
	b.WriteString("You are a helpful insurance claims processor. Extract fields from the text into valid JSON using the keys ")
	b.WriteString("patient_name, hospital_id, insurer_name, administrator_name, claim_number, claim_status, claim_type, ")
	b.WriteString("claim_date, settlement_date, total_bill_amount, claim_amount, approved_amount, settled_amount, rejected_amount, remarks.\n")
	b.WriteString("Patient names are ALWAYS text (e.g. \"John Smith\"), NEVER numbers.\n\n")
	b.WriteString("### User:\nText:\n")
	b.WriteString(truncate(text, limit))
	b.WriteString("\n\n### Assistant:\n{\n")
	return b.String()
}
