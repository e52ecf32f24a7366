package social

import (
	"context"

	"solana-promo-agent/internal/domain"
)

// Post is a social item as the agent sees it: a mention, a search hit, or a
// conversation reply. Engagement counters are whatever the source reported
// at fetch time.
type Post struct {
	ID           string
	AuthorID     string
	AuthorHandle string
	Text         string
	Impressions  int64
	Likes        int64
	Retweets     int64
	CreatedAtMs  int64
}

// Poster publishes content. Implementations talk to the actual network;
// the agent only consumes the returned references.
type Poster interface {
	// Post publishes a standalone post and returns its external reference.
	Post(ctx context.Context, text string) (string, error)

	// Reply publishes a reply to an existing post.
	Reply(ctx context.Context, toID, text string) (string, error)
}

// Searcher finds posts the agent reacts to.
type Searcher interface {
	// Mentions returns recent posts mentioning the agent's account.
	Mentions(ctx context.Context) ([]Post, error)

	// Search returns recent posts matching a free-form query.
	Search(ctx context.Context, query string) ([]Post, error)

	// ConversationReplies returns replies in a post's conversation
	// authored by the given user.
	ConversationReplies(ctx context.Context, postID, authorID string) ([]Post, error)
}

// MetricsSource reports current engagement counters for a published post.
type MetricsSource interface {
	// PostMetrics fetches engagement counters for an external reference.
	PostMetrics(ctx context.Context, externalRef string) (domain.Metrics, error)
}

// Classifier judges whether a piece of text is reward-worthy engagement
// rather than spam or hostility. Implementations are typically LLM-backed.
type Classifier interface {
	IsValuable(ctx context.Context, text string) (bool, error)
}
