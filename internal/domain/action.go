package domain

// ActionKind identifies the type of promotional action a campaign performed.
// The set is open: routers for new kinds can be registered without touching
// the core, so unknown values round-trip through storage unchanged.
type ActionKind string

// Known action kinds.
const (
	ActionTweet         ActionKind = "tweet"
	ActionThread        ActionKind = "thread"
	ActionImagePost     ActionKind = "image_post"
	ActionQuoteBoost    ActionKind = "quote_boost"
	ActionAirdrop       ActionKind = "airdrop"
	ActionMemoBroadcast ActionKind = "memo_broadcast"
	ActionTip           ActionKind = "tip"
	ActionTwitterBoost  ActionKind = "twitter_boost"
	ActionKOLPayment    ActionKind = "kol_payment"
	ActionAdBuy         ActionKind = "ad_buy"
	ActionCustom        ActionKind = "custom"
)

// IsFree reports whether the action kind carries no intrinsic cost.
// Budgets proposed for free kinds are zeroed before execution.
func (k ActionKind) IsFree() bool {
	switch k {
	case ActionTweet, ActionThread, ActionImagePost, ActionQuoteBoost:
		return true
	default:
		return false
	}
}
