package sequence

import "strings"

// Canonical sequence type keys. The set is fixed; unrecognized keys pass
// through verbatim so new voucher kinds need no migration.
const (
	TypeReceipt         = "RC"
	TypePayment         = "PV"
	TypeExpense         = "EX"
	TypeDisbursement    = "DS"
	TypeJournalEntry    = "JE"
	TypeRemittance      = "TR"
	TypeBooking         = "BK"
	TypeVisa            = "VS"
	TypeRefund          = "RF"
	TypeExchange        = "EXC"
	TypeExtension       = "EXT"
	TypeExpenseClaim    = "EXP"
	TypeVoidTicket      = "VOID"
	TypeSegmentDeal     = "SEG"
	TypeCompanyInvoice  = "COMP"
	TypePartner         = "PARTNER"
	TypeSubAgent        = "SUB"
	TypeSubAgentPayment = "SUBP"
	TypeProfitShare     = "PR"
	TypeClientStatement = "CL"
)

// catalog maps each canonical key to its default display label. The prefix
// defaults to the key itself.
var catalog = map[string]string{
	TypeReceipt:         "Receipt Voucher",
	TypePayment:         "Payment Voucher",
	TypeExpense:         "Expense Voucher",
	TypeDisbursement:    "Disbursement Voucher",
	TypeJournalEntry:    "Journal Entry",
	TypeRemittance:      "Remittance Transfer",
	TypeBooking:         "Booking Invoice",
	TypeVisa:            "Visa Invoice",
	TypeRefund:          "Refund Voucher",
	TypeExchange:        "Ticket Exchange",
	TypeExtension:       "Ticket Extension",
	TypeExpenseClaim:    "Expense Claim",
	TypeVoidTicket:      "Void Ticket",
	TypeSegmentDeal:     "Segment Deal",
	TypeCompanyInvoice:  "Company Invoice",
	TypePartner:         "Partner Settlement",
	TypeSubAgent:        "Sub-agent Invoice",
	TypeSubAgentPayment: "Sub-agent Payment",
	TypeProfitShare:     "Profit Share",
	TypeClientStatement: "Client Statement",
}

// aliases maps historical and business-facing names onto canonical keys.
// Lookups are done on the lowercased, underscore-normalized form.
var aliases = map[string]string{
	"booking":          TypeBooking,
	"bookings":         TypeBooking,
	"ticket":           TypeBooking,
	"visa":             TypeVisa,
	"visas":            TypeVisa,
	"refund":           TypeRefund,
	"remittance":       TypeRemittance,
	"transfer":         TypeRemittance,
	"receipt":          TypeReceipt,
	"payment":          TypePayment,
	"expense":          TypeExpense,
	"disbursement":     TypeDisbursement,
	"journal":          TypeJournalEntry,
	"journal_entry":    TypeJournalEntry,
	"exchange":         TypeExchange,
	"extension":        TypeExtension,
	"expense_claim":    TypeExpenseClaim,
	"void":             TypeVoidTicket,
	"segment":          TypeSegmentDeal,
	"segment_deal":     TypeSegmentDeal,
	"company":          TypeCompanyInvoice,
	"partner":          TypePartner,
	"subagent":         TypeSubAgent,
	"sub_agent":        TypeSubAgent,
	"subagent_payment": TypeSubAgentPayment,
	"profit":           TypeProfitShare,
	"profit_share":     TypeProfitShare,
	"client":           TypeClientStatement,
}

// Normalize resolves a raw business name to its canonical type key. Unknown
// keys are accepted verbatim, uppercased, and used as both key and prefix.
func Normalize(raw string) (key string, known bool) {
	trimmed := strings.TrimSpace(raw)
	folded := strings.ToLower(trimmed)
	folded = strings.NewReplacer(" ", "_", "-", "_").Replace(folded)
	if canonical, ok := aliases[folded]; ok {
		return canonical, true
	}
	upper := strings.ToUpper(trimmed)
	if _, ok := catalog[upper]; ok {
		return upper, true
	}
	return upper, false
}

// DefaultsFor returns the lazy-creation metadata for a type key.
func DefaultsFor(key string) Defaults {
	label, ok := catalog[key]
	if !ok {
		label = key
	}
	return Defaults{Label: label, Prefix: key, PadWidth: DefaultPadWidth}
}

// Known reports whether key belongs to the canonical vocabulary.
func Known(key string) bool {
	_, ok := catalog[key]
	return ok
}
