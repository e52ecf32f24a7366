package domain

// Reward producer names. Each producer discovers reward-worthy items
// independently but shares the same progression and payment machinery.
const (
	ProducerMentionReply = "mention_reply"
	ProducerShillScan    = "shill_scan"
)

// Reward states. A record only moves forward:
// discovered -> credential_requested -> paid, or to failed from either of
// the first two. paid and failed are terminal.
const (
	RewardDiscovered          = "discovered"
	RewardCredentialRequested = "credential_requested"
	RewardPaid                = "paid"
	RewardFailed              = "failed"
)

// RewardRecord tracks paying an external actor for valuable engagement.
// SourceID is the discovering item's external identifier and doubles as the
// idempotency key: a producer never creates a second record for a SourceID
// it has already processed.
type RewardRecord struct {
	ID                   string  `json:"id"`
	Producer             string  `json:"producer"` // mention_reply | shill_scan
	SourceID             string  `json:"sourceId"`
	SubjectID            string  `json:"subjectId"`
	SubjectHandle        string  `json:"subjectHandle"`
	SourceText           string  `json:"sourceText"`
	Impressions          int64   `json:"impressions"`
	Likes                int64   `json:"likes"`
	State                string  `json:"state"`
	CredentialRequestRef string  `json:"credentialRequestRef,omitempty"`
	Credential           string  `json:"credential,omitempty"`        // payout address
	CredentialOnCurve    bool    `json:"credentialOnCurve,omitempty"` // ed25519 keypair account vs derived
	PaymentRef           string  `json:"paymentRef,omitempty"`
	Amount               float64 `json:"amount"` // SOL
	DiscoveredAtMs       int64   `json:"discoveredAtMs"`
	PaidAtMs             int64   `json:"paidAtMs,omitempty"`
	FailReason           string  `json:"failReason,omitempty"`
}

// PaymentReady reports whether the record is waiting for a payment attempt.
// Readiness is derived, not a distinct state: the state field stays
// credential_requested until payment succeeds.
func (r *RewardRecord) PaymentReady() bool {
	return r.State == RewardCredentialRequested && r.Credential != "" && r.PaymentRef == ""
}
