package domain

import "time"

// ModuleStatus describes the operational state of the rating module.
type ModuleStatus string

const (
	StatusDisabled ModuleStatus = "disabled"
	StatusWaiting  ModuleStatus = "waiting"
	StatusInWork   ModuleStatus = "inwork"
)

// Comment is one ingested comment and its current rating.
// Key is derived as "<channel>-<message_id>" and uniquely identifies the record.
type Comment struct {
	Key         string    `json:"key"`
	Channel     string    `json:"channel"`
	ThreadID    string    `json:"thread_id,omitempty"`
	ThreadText  string    `json:"thread_text,omitempty"`
	SenderID    string    `json:"sender_id"`
	MessageID   string    `json:"message_id"`
	MessageText string    `json:"message_text"`
	Score       *float64  `json:"score,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Leader is the accumulated rating score of one sender in one channel.
// Key is derived as "<channel>-<sender_id>".
type Leader struct {
	Key       string    `json:"key"`
	Channel   string    `json:"channel"`
	SenderID  string    `json:"sender_id"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SalebotConfig holds credentials for the external notification API.
type SalebotConfig struct {
	ProjectID string `json:"project_id"`
	APIKey    string `json:"api_key"`
}

// Settings is the singleton module configuration, lazily created with
// defaults on first access.
type Settings struct {
	Active     bool          `json:"active"`
	Status     ModuleStatus  `json:"status"`
	JobID      *int64        `json:"job_id,omitempty"`
	Threads    []int64       `json:"threads"`
	LaunchTime *time.Time    `json:"launch_time,omitempty"`
	Salebot    SalebotConfig `json:"salebot"`
}

// CommentKey derives the unique comment record key.
func CommentKey(channel, messageID string) string {
	return channel + "-" + messageID
}

// LeaderKey derives the unique leaderboard record key.
func LeaderKey(channel, senderID string) string {
	return channel + "-" + senderID
}
