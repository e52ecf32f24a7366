package stub

import (
	"context"
	"fmt"
	"sync"

	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/social"
)

// Social implements every social collaborator interface for testing:
// posts are recorded, replies and search results are scripted.
type Social struct {
	mu sync.Mutex

	// Posts holds everything published through Post/Reply, in order.
	Posts []PublishedPost

	// MentionItems is returned by Mentions.
	MentionItems []social.Post

	// SearchResults maps query to results.
	SearchResults map[string][]social.Post

	// Replies maps "postID/authorID" to conversation replies.
	Replies map[string][]social.Post

	// Metrics maps externalRef to reported counters.
	Metrics map[string]domain.Metrics

	// Valuable maps text to the classifier verdict; texts not present
	// are judged not valuable.
	Valuable map[string]bool

	// PostErr, when set, makes Post and Reply fail.
	PostErr error

	nextID int
}

// PublishedPost records one Post or Reply call.
type PublishedPost struct {
	Ref       string
	Text      string
	InReplyTo string // "" for standalone posts
}

// Compile-time interface checks.
var (
	_ social.Poster        = (*Social)(nil)
	_ social.Searcher      = (*Social)(nil)
	_ social.MetricsSource = (*Social)(nil)
	_ social.Classifier    = (*Social)(nil)
)

// New creates an empty stub.
func New() *Social {
	return &Social{
		SearchResults: make(map[string][]social.Post),
		Replies:       make(map[string][]social.Post),
		Metrics:       make(map[string]domain.Metrics),
		Valuable:      make(map[string]bool),
	}
}

func (s *Social) Post(_ context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PostErr != nil {
		return "", s.PostErr
	}
	s.nextID++
	ref := fmt.Sprintf("post-%d", s.nextID)
	s.Posts = append(s.Posts, PublishedPost{Ref: ref, Text: text})
	return ref, nil
}

func (s *Social) Reply(_ context.Context, toID, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PostErr != nil {
		return "", s.PostErr
	}
	s.nextID++
	ref := fmt.Sprintf("reply-%d", s.nextID)
	s.Posts = append(s.Posts, PublishedPost{Ref: ref, Text: text, InReplyTo: toID})
	return ref, nil
}

func (s *Social) Mentions(_ context.Context) ([]social.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]social.Post(nil), s.MentionItems...), nil
}

func (s *Social) Search(_ context.Context, query string) ([]social.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]social.Post(nil), s.SearchResults[query]...), nil
}

func (s *Social) ConversationReplies(_ context.Context, postID, authorID string) ([]social.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]social.Post(nil), s.Replies[postID+"/"+authorID]...), nil
}

func (s *Social) PostMetrics(_ context.Context, externalRef string) (domain.Metrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.Metrics[externalRef]
	if !ok {
		return nil, fmt.Errorf("no metrics for %s", externalRef)
	}
	out := make(domain.Metrics, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out, nil
}

func (s *Social) IsValuable(_ context.Context, text string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Valuable[text], nil
}

// LastPost returns the most recently published post, or nil.
func (s *Social) LastPost() *PublishedPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Posts) == 0 {
		return nil
	}
	p := s.Posts[len(s.Posts)-1]
	return &p
}
