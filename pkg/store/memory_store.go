package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"commentrating/pkg/domain"
)

// MemoryStore keeps all records in memory behind a single mutex, so
// every operation is atomic. Used by tests and local development.
type MemoryStore struct {
	mu       sync.Mutex
	comments map[string]domain.Comment
	leaders  map[string]domain.Leader
	settings *domain.Settings
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		comments: make(map[string]domain.Comment),
		leaders:  make(map[string]domain.Leader),
	}
}

// UpsertComment creates or merges a comment record.
func (s *MemoryStore) UpsertComment(_ context.Context, up CommentUpsert) (domain.Comment, error) {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[up.Key]
	if !ok {
		c = domain.Comment{Key: up.Key, CreatedAt: now}
	}
	if up.Channel != "" {
		c.Channel = up.Channel
	}
	if up.ThreadID != "" {
		c.ThreadID = up.ThreadID
	}
	if up.ThreadText != "" {
		c.ThreadText = up.ThreadText
	}
	if up.SenderID != "" {
		c.SenderID = up.SenderID
	}
	if up.MessageID != "" {
		c.MessageID = up.MessageID
	}
	if up.MessageText != "" {
		c.MessageText = up.MessageText
	}
	if up.Score != nil {
		score := *up.Score
		c.Score = &score
	}
	c.UpdatedAt = now
	s.comments[up.Key] = c
	return c, nil
}

// GetComment looks up a comment by key.
func (s *MemoryStore) GetComment(_ context.Context, key string) (domain.Comment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[key]
	return c, ok, nil
}

// SetCommentScore overwrites the comment's score only, rejecting keys
// that were never ingested.
func (s *MemoryStore) SetCommentScore(_ context.Context, key string, score float64) (domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[key]
	if !ok {
		return domain.Comment{}, fmt.Errorf("set comment score %q: %w", key, ErrCommentNotFound)
	}
	c.Score = &score
	c.UpdatedAt = time.Now().UTC()
	s.comments[key] = c
	return c, nil
}

// AddLeaderScore atomically adds value to the sender's channel total.
func (s *MemoryStore) AddLeaderScore(_ context.Context, channel, senderID string, value float64) (domain.Leader, error) {
	now := time.Now().UTC()
	key := domain.LeaderKey(channel, senderID)
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.leaders[key]
	if !ok {
		l = domain.Leader{Key: key, Channel: channel, SenderID: senderID, CreatedAt: now}
	}
	l.Score += value
	l.UpdatedAt = now
	s.leaders[key] = l
	return l, nil
}

// GetLeader returns one leaderboard record.
func (s *MemoryStore) GetLeader(_ context.Context, channel, senderID string) (domain.Leader, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leaders[domain.LeaderKey(channel, senderID)]
	return l, ok, nil
}

// TopLeaders returns up to limit records for a channel, best score first.
func (s *MemoryStore) TopLeaders(_ context.Context, channel string, limit int) ([]domain.Leader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]domain.Leader, 0)
	for _, l := range s.leaders {
		if l.Channel == channel {
			res = append(res, l)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Score != res[j].Score {
			return res[i].Score > res[j].Score
		}
		return res[i].SenderID < res[j].SenderID
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// Settings returns the singleton, creating it with defaults on first
// access.
func (s *MemoryStore) Settings(_ context.Context) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		s.settings = &domain.Settings{
			Active:  false,
			Status:  domain.StatusDisabled,
			Threads: []int64{},
		}
	}
	return *s.settings, nil
}

// SaveSettings replaces the singleton.
func (s *MemoryStore) SaveSettings(_ context.Context, in domain.Settings) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := in
	s.settings = &copied
	return copied, nil
}
