package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"health-concierge/backend/internal/models"
	apperrors "health-concierge/backend/pkg/errors"
)

// GormMessageRepository implements MessageRepository backed by GORM
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a message repository
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return apperrors.NewStorageError("failed to store message", err)
	}
	return nil
}

func (r *GormMessageRepository) ListPage(ctx context.Context, sessionID string, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list messages", err)
	}
	return messages, nil
}

func (r *GormMessageRepository) ListRecent(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list recent messages", err)
	}

	// Flip the tail back into chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *GormMessageRepository) ListAssistantSince(ctx context.Context, since time.Time) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("role = ? AND created_at >= ?", models.RoleAssistant, since).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list assistant messages", err)
	}
	return messages, nil
}

func (r *GormMessageRepository) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.NewStorageError("failed to count messages", err)
	}
	return count, nil
}

func (r *GormMessageRepository) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	var sessions []SessionInfo
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Select("session_id, COUNT(*) AS message_count, MAX(created_at) AS last_activity").
		Group("session_id").
		Order("last_activity DESC").
		Scan(&sessions).Error
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list sessions", err)
	}
	return sessions, nil
}

func (r *GormMessageRepository) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&models.Message{})
	if result.Error != nil {
		return 0, apperrors.NewStorageError("failed to delete session", result.Error)
	}
	return result.RowsAffected, nil
}
