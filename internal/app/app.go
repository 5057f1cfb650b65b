// Package app holds the comment-rating core: comment ingestion, the
// rating engine, and leaderboard reads. HTTP plumbing stays in the
// server package; persistence behind the store interface.
package app

import (
	"context"
	"errors"
	"fmt"

	"commentrating/internal/util"
	"commentrating/pkg/domain"
	"commentrating/pkg/rank"
	"commentrating/pkg/store"
	"commentrating/pkg/textcodec"
)

const (
	defaultLeadersLimit = 10
	maxLeadersLimit     = 100
)

// Config wires required dependencies for the core.
type Config struct {
	Store store.Store
	// Rank is optional; when nil leaderboard reads go to the store.
	Rank *rank.Cache
}

// App implements the comment-rating operations.
type App struct {
	store store.Store
	rank  *rank.Cache
}

// New constructs the core.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("app requires a store")
	}
	return &App{store: cfg.Store, rank: cfg.Rank}, nil
}

// AddCommentRequest carries one inbound comment.
type AddCommentRequest struct {
	Channel     string
	SenderID    string
	MessageID   string
	MessageText string
	ThreadID    string
	Value       *float64
}

// AddComment validates and persists an incoming comment, resolving the
// parent thread's stored text when a thread id is present. Thread
// lookup misses and undecodable text are non-fatal and only logged.
func (a *App) AddComment(ctx context.Context, req AddCommentRequest) error {
	logger := util.LoggerFromContext(ctx)

	for _, f := range []struct{ name, value string }{
		{"channel", req.Channel},
		{"sender_id", req.SenderID},
		{"message_id", req.MessageID},
		{"message_text", req.MessageText},
	} {
		if f.value == "" {
			return &MissingFieldError{Field: f.name}
		}
	}
	if textcodec.IsEmptyMarker(req.MessageText) {
		return ErrNoText
	}

	var threadText string
	if req.ThreadID != "" {
		threadKey := domain.CommentKey(req.Channel, req.ThreadID)
		parent, ok, err := a.store.GetComment(ctx, threadKey)
		switch {
		case err != nil:
			logger.Warn("thread lookup failed", "thread_key", threadKey, "err", err)
		case !ok:
			logger.Warn("thread text unavailable", "thread_key", threadKey, "err", ErrThreadNotFound)
		default:
			threadText = parent.MessageText
		}
	}

	messageText := req.MessageText
	if decoded, err := textcodec.Decode(req.MessageText); err != nil {
		logger.Warn("message text is not valid base64, storing raw", "err", err)
	} else {
		messageText = decoded
	}

	key := domain.CommentKey(req.Channel, req.MessageID)
	_, err := a.store.UpsertComment(ctx, store.CommentUpsert{
		Key:         key,
		Channel:     req.Channel,
		ThreadID:    req.ThreadID,
		ThreadText:  threadText,
		SenderID:    req.SenderID,
		MessageID:   req.MessageID,
		MessageText: messageText,
		Score:       req.Value,
	})
	if err != nil {
		return fmt.Errorf("save comment: %w", err)
	}
	logger.Info("comment saved", "key", key)
	return nil
}

// RateRequest carries one rating event.
type RateRequest struct {
	Channel   string
	SenderID  string
	MessageID string
	Value     float64
}

// ApplyRating overwrites the comment's score with Value and adds Value
// to the sender's channel leaderboard total. Only the score is written
// to the comment record; channel and sender on the leaderboard come
// from the stored record, not the raw request, so a rating event can
// never relabel a comment or credit a different sender. Rating a
// comment that was never ingested fails with store.ErrCommentNotFound.
// Every rate event adds its full value: re-rating a comment overwrites
// the comment score but still awards the new value on the leaderboard.
//
// The leaderboard update is a single atomic increment in the store, so
// concurrent ratings for the same sender never lose an increment. A
// store failure after the comment update leaves the comment rated but
// the leaderboard untouched; that partial state is logged, not rolled
// back.
func (a *App) ApplyRating(ctx context.Context, req RateRequest) (domain.Comment, error) {
	logger := util.LoggerFromContext(ctx)

	for _, f := range []struct{ name, value string }{
		{"channel", req.Channel},
		{"sender_id", req.SenderID},
		{"message_id", req.MessageID},
	} {
		if f.value == "" {
			return domain.Comment{}, &MissingFieldError{Field: f.name}
		}
	}

	key := domain.CommentKey(req.Channel, req.MessageID)
	value := req.Value
	comment, err := a.store.SetCommentScore(ctx, key, value)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("rate comment: %w", err)
	}

	leader, err := a.store.AddLeaderScore(ctx, comment.Channel, comment.SenderID, value)
	if err != nil {
		logger.Error("leaderboard update failed after comment was rated",
			"key", key, "sender_id", comment.SenderID, "err", err)
		return domain.Comment{}, fmt.Errorf("update leaderboard: %w", err)
	}

	if a.rank != nil {
		if err := a.rank.Set(ctx, comment.Channel, comment.SenderID, leader.Score); err != nil {
			logger.Warn("rank cache update failed", "sender_id", comment.SenderID, "err", err)
		}
	}

	logger.Info("rating applied",
		"key", key, "value", value, "sender_id", comment.SenderID, "leader_score", leader.Score)
	return comment, nil
}

// Leaders returns the channel leaderboard, best score first. Reads hit
// the rank cache when available and fall back to the store.
func (a *App) Leaders(ctx context.Context, channel string, limit int) ([]domain.Leader, error) {
	if channel == "" {
		return nil, &MissingFieldError{Field: "channel"}
	}
	if limit <= 0 {
		limit = defaultLeadersLimit
	}
	if limit > maxLeadersLimit {
		limit = maxLeadersLimit
	}

	if a.rank != nil {
		entries, err := a.rank.Top(ctx, channel, limit)
		if err != nil {
			util.LoggerFromContext(ctx).Warn("rank cache read failed, falling back to store", "err", err)
		} else if len(entries) > 0 {
			leaders := make([]domain.Leader, 0, len(entries))
			for _, e := range entries {
				leaders = append(leaders, domain.Leader{
					Key:      domain.LeaderKey(channel, e.SenderID),
					Channel:  channel,
					SenderID: e.SenderID,
					Score:    e.Score,
				})
			}
			return leaders, nil
		}
	}
	return a.store.TopLeaders(ctx, channel, limit)
}

// Settings returns the module configuration singleton.
func (a *App) Settings(ctx context.Context) (domain.Settings, error) {
	return a.store.Settings(ctx)
}

// SaveSettings validates and replaces the module configuration.
func (a *App) SaveSettings(ctx context.Context, s domain.Settings) (domain.Settings, error) {
	switch s.Status {
	case domain.StatusDisabled, domain.StatusWaiting, domain.StatusInWork:
	default:
		return domain.Settings{}, fmt.Errorf("%w: %q", ErrInvalidStatus, s.Status)
	}
	if s.Threads == nil {
		s.Threads = []int64{}
	}
	return a.store.SaveSettings(ctx, s)
}
