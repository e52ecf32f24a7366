package domain

// LedgerEntryKind discriminates treasury journal entries.
type LedgerEntryKind string

// Journal entry kinds.
const (
	LedgerIncome LedgerEntryKind = "income"
	LedgerSpend  LedgerEntryKind = "spend"
)

// LedgerEntry is one append-only treasury journal record.
// Insertion order is the audit trail and must be preserved.
type LedgerEntry struct {
	TimestampMs int64           `json:"timestampMs"`
	Kind        LedgerEntryKind `json:"kind"`
	Amount      float64         `json:"amount"` // SOL
	Reason      string          `json:"reason"`
	CampaignID  string          `json:"campaignId,omitempty"`
}
