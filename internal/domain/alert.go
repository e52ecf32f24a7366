package domain

// Alert flags a high-performing campaign as a boost candidate.
// ID is derived deterministically from the campaign ID so re-evaluation
// updates the existing alert instead of duplicating it.
type Alert struct {
	ID          string  `json:"id"` // "boost_" + CampaignID
	CampaignID  string  `json:"campaignId"`
	ExternalRef string  `json:"externalRef,omitempty"`
	Content     string  `json:"content"`
	Impressions float64 `json:"impressions"`
	Likes       float64 `json:"likes"`
	Retweets    float64 `json:"retweets"`
	Score       float64 `json:"score"`
	Reason      string  `json:"reason"`
	Dismissed   bool    `json:"dismissed"`
	CreatedAtMs int64   `json:"createdAtMs"`
}
