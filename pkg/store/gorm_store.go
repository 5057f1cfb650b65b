package store

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"commentrating/pkg/domain"
)

const migrateLockID int64 = 52805280

// settingsRowID pins the configuration singleton to one row.
const settingsRowID int64 = 1

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory
// lock so concurrent replicas don't race on schema changes.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Exec("SELECT pg_advisory_lock(?)", migrateLockID).Error; err != nil {
		return nil, fmt.Errorf("acquire migrate lock: %w", err)
	}
	migrateErr := db.AutoMigrate(&CommentModel{}, &LeaderModel{}, &SettingsModel{})
	if err := db.Exec("SELECT pg_advisory_unlock(?)", migrateLockID).Error; err != nil {
		return nil, fmt.Errorf("release migrate lock: %w", err)
	}
	if migrateErr != nil {
		return nil, fmt.Errorf("auto migrate: %w", migrateErr)
	}
	return &GormStore{db: db}, nil
}

// UpsertComment creates the comment or merges the provided fields into
// the existing record, keyed on Key.
func (s *GormStore) UpsertComment(ctx context.Context, up CommentUpsert) (domain.Comment, error) {
	now := time.Now().UTC()
	model := CommentModel{
		Key:         up.Key,
		Channel:     up.Channel,
		ThreadID:    up.ThreadID,
		ThreadText:  up.ThreadText,
		SenderID:    up.SenderID,
		MessageID:   up.MessageID,
		MessageText: up.MessageText,
		Score:       up.Score,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	assignments := map[string]any{"updated_at": now}
	if up.Channel != "" {
		assignments["channel"] = up.Channel
	}
	if up.ThreadID != "" {
		assignments["thread_id"] = up.ThreadID
	}
	if up.ThreadText != "" {
		assignments["thread_text"] = up.ThreadText
	}
	if up.SenderID != "" {
		assignments["sender_id"] = up.SenderID
	}
	if up.MessageID != "" {
		assignments["message_id"] = up.MessageID
	}
	if up.MessageText != "" {
		assignments["message_text"] = up.MessageText
	}
	if up.Score != nil {
		assignments["score"] = *up.Score
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&model).Error
	if err != nil {
		return domain.Comment{}, fmt.Errorf("upsert comment: %w", err)
	}
	return s.fetchComment(ctx, up.Key)
}

// GetComment looks up a comment by its derived key.
func (s *GormStore) GetComment(ctx context.Context, key string) (domain.Comment, bool, error) {
	var model CommentModel
	if err := s.db.WithContext(ctx).First(&model, "key = ?", key).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Comment{}, false, nil
		}
		return domain.Comment{}, false, err
	}
	return commentFromModel(model), true, nil
}

// SetCommentScore overwrites the comment's score only. The rating
// path takes channel and sender from this record afterwards, so a
// caller can never relabel a comment through a rating event.
func (s *GormStore) SetCommentScore(ctx context.Context, key string, score float64) (domain.Comment, error) {
	res := s.db.WithContext(ctx).Model(&CommentModel{}).
		Where("key = ?", key).
		Updates(map[string]any{"score": score, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return domain.Comment{}, fmt.Errorf("set comment score: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Comment{}, fmt.Errorf("set comment score %q: %w", key, ErrCommentNotFound)
	}
	return s.fetchComment(ctx, key)
}

// AddLeaderScore adds value to the sender's running channel total in a
// single statement, so concurrent callers never lose an increment.
func (s *GormStore) AddLeaderScore(ctx context.Context, channel, senderID string, value float64) (domain.Leader, error) {
	now := time.Now().UTC()
	key := domain.LeaderKey(channel, senderID)
	model := LeaderModel{
		Key:       key,
		Channel:   channel,
		SenderID:  senderID,
		Score:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"score":      gorm.Expr("leader_models.score + ?", value),
			"updated_at": now,
		}),
	}).Create(&model).Error
	if err != nil {
		return domain.Leader{}, fmt.Errorf("add leader score: %w", err)
	}
	var updated LeaderModel
	if err := s.db.WithContext(ctx).First(&updated, "key = ?", key).Error; err != nil {
		return domain.Leader{}, fmt.Errorf("fetch leader: %w", err)
	}
	return leaderFromModel(updated), nil
}

// GetLeader returns the leaderboard record for one sender in a channel.
func (s *GormStore) GetLeader(ctx context.Context, channel, senderID string) (domain.Leader, bool, error) {
	var model LeaderModel
	key := domain.LeaderKey(channel, senderID)
	if err := s.db.WithContext(ctx).First(&model, "key = ?", key).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Leader{}, false, nil
		}
		return domain.Leader{}, false, err
	}
	return leaderFromModel(model), true, nil
}

// TopLeaders returns up to limit leaderboard records for a channel,
// best score first.
func (s *GormStore) TopLeaders(ctx context.Context, channel string, limit int) ([]domain.Leader, error) {
	var models []LeaderModel
	err := s.db.WithContext(ctx).
		Where("channel = ?", channel).
		Order("score DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.Leader, 0, len(models))
	for _, m := range models {
		res = append(res, leaderFromModel(m))
	}
	return res, nil
}

// Settings returns the configuration singleton, inserting the default
// row on first access. The insert is ON CONFLICT DO NOTHING, so
// concurrent first readers cannot create duplicate rows.
func (s *GormStore) Settings(ctx context.Context) (domain.Settings, error) {
	now := time.Now().UTC()
	def := SettingsModel{
		ID:        settingsRowID,
		Active:    false,
		Status:    string(domain.StatusDisabled),
		Threads:   datatypes.JSONSlice[int64]{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&def).Error
	if err != nil {
		return domain.Settings{}, fmt.Errorf("init settings: %w", err)
	}
	var model SettingsModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", settingsRowID).Error; err != nil {
		return domain.Settings{}, fmt.Errorf("fetch settings: %w", err)
	}
	return settingsFromModel(model), nil
}

// SaveSettings replaces the configuration singleton.
func (s *GormStore) SaveSettings(ctx context.Context, in domain.Settings) (domain.Settings, error) {
	now := time.Now().UTC()
	model := SettingsModel{
		ID:         settingsRowID,
		Active:     in.Active,
		Status:     string(in.Status),
		JobID:      in.JobID,
		Threads:    datatypes.JSONSlice[int64](in.Threads),
		LaunchTime: in.LaunchTime,
		ProjectID:  in.Salebot.ProjectID,
		APIKey:     in.Salebot.APIKey,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"active":      in.Active,
			"status":      string(in.Status),
			"job_id":      in.JobID,
			"threads":     datatypes.JSONSlice[int64](in.Threads),
			"launch_time": in.LaunchTime,
			"project_id":  in.Salebot.ProjectID,
			"api_key":     in.Salebot.APIKey,
			"updated_at":  now,
		}),
	}).Create(&model).Error
	if err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return s.Settings(ctx)
}

func (s *GormStore) fetchComment(ctx context.Context, key string) (domain.Comment, error) {
	var model CommentModel
	if err := s.db.WithContext(ctx).First(&model, "key = ?", key).Error; err != nil {
		return domain.Comment{}, fmt.Errorf("fetch comment: %w", err)
	}
	return commentFromModel(model), nil
}
