package store

import (
	"context"
	"errors"

	"commentrating/pkg/domain"
)

// ErrCommentNotFound is returned when an operation targets a comment
// that was never ingested.
var ErrCommentNotFound = errors.New("comment not found")

// CommentUpsert carries the fields of a comment upsert. Empty string
// fields are left untouched on an existing record; a nil Score leaves
// the stored score as is.
type CommentUpsert struct {
	Key         string
	Channel     string
	ThreadID    string
	ThreadText  string
	SenderID    string
	MessageID   string
	MessageText string
	Score       *float64
}

// Store defines persistence operations for comments, leaderboard
// records, and the module settings singleton.
//
// Implementations must make UpsertComment, SetCommentScore, and
// AddLeaderScore atomic with respect to concurrent callers on the same
// key: two concurrent AddLeaderScore calls for one sender must never
// lose an increment.
type Store interface {
	// comments
	UpsertComment(ctx context.Context, up CommentUpsert) (domain.Comment, error)
	GetComment(ctx context.Context, key string) (domain.Comment, bool, error)
	// SetCommentScore overwrites the comment's score, leaving every
	// other field untouched, and returns the resulting record. A key
	// with no ingested comment yields ErrCommentNotFound.
	SetCommentScore(ctx context.Context, key string, score float64) (domain.Comment, error)

	// leaderboard
	// AddLeaderScore atomically adds value to the sender's channel
	// total, creating the record when absent.
	AddLeaderScore(ctx context.Context, channel, senderID string, value float64) (domain.Leader, error)
	GetLeader(ctx context.Context, channel, senderID string) (domain.Leader, bool, error)
	TopLeaders(ctx context.Context, channel string, limit int) ([]domain.Leader, error)

	// settings
	// Settings returns the singleton configuration, creating it with
	// defaults on first access.
	Settings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, s domain.Settings) (domain.Settings, error)
}
