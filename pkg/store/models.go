package store

import (
	"time"

	"gorm.io/datatypes"

	"commentrating/pkg/domain"
)

// GORM models used for persistence.
type CommentModel struct {
	Key         string `gorm:"primaryKey"`
	Channel     string `gorm:"not null;index"`
	ThreadID    string
	ThreadText  string
	SenderID    string `gorm:"not null"`
	MessageID   string `gorm:"not null"`
	MessageText string
	Score       *float64
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

type LeaderModel struct {
	Key       string    `gorm:"primaryKey"`
	Channel   string    `gorm:"not null;index"`
	SenderID  string    `gorm:"not null"`
	Score     float64   `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// SettingsModel holds the single module configuration row; ID is
// always settingsRowID.
type SettingsModel struct {
	ID         int64 `gorm:"primaryKey"`
	Active     bool
	Status     string `gorm:"not null"`
	JobID      *int64
	Threads    datatypes.JSONSlice[int64]
	LaunchTime *time.Time
	ProjectID  string
	APIKey     string
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func commentFromModel(m CommentModel) domain.Comment {
	return domain.Comment{
		Key:         m.Key,
		Channel:     m.Channel,
		ThreadID:    m.ThreadID,
		ThreadText:  m.ThreadText,
		SenderID:    m.SenderID,
		MessageID:   m.MessageID,
		MessageText: m.MessageText,
		Score:       m.Score,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func leaderFromModel(m LeaderModel) domain.Leader {
	return domain.Leader{
		Key:       m.Key,
		Channel:   m.Channel,
		SenderID:  m.SenderID,
		Score:     m.Score,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func settingsFromModel(m SettingsModel) domain.Settings {
	return domain.Settings{
		Active:     m.Active,
		Status:     domain.ModuleStatus(m.Status),
		JobID:      m.JobID,
		Threads:    []int64(m.Threads),
		LaunchTime: m.LaunchTime,
		Salebot: domain.SalebotConfig{
			ProjectID: m.ProjectID,
			APIKey:    m.APIKey,
		},
	}
}
