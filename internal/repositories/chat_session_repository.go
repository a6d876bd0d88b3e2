package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"proof/internal/models"
)

type ChatSessionRepository interface {
	List(ctx context.Context) ([]models.ChatSession, error)
	GetByID(ctx context.Context, id string) (*models.ChatSession, error)
	Upsert(ctx context.Context, session *models.ChatSession) error
	DeleteByID(ctx context.Context, id string) error
}

type chatSessionRepository struct {
	db *gorm.DB
}

func NewChatSessionRepository(db *gorm.DB) ChatSessionRepository {
	return &chatSessionRepository{db: db}
}

// List returns every session, newest first. Ties keep id order so the result
// is stable across calls.
func (r *chatSessionRepository) List(ctx context.Context) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	res := r.db.WithContext(ctx).Order("created_at desc").Order("id desc").Find(&sessions)
	if res.Error != nil {
		return nil, res.Error
	}
	return sessions, nil
}

// GetByID returns nil, nil when no session has that id.
func (r *chatSessionRepository) GetByID(ctx context.Context, id string) (*models.ChatSession, error) {
	var sess models.ChatSession
	res := r.db.WithContext(ctx).Where("id = ?", id).Take(&sess)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, res.Error
	}
	return &sess, nil
}

func (r *chatSessionRepository) Upsert(ctx context.Context, session *models.ChatSession) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "created_at", "messages"}),
	}).Create(session).Error
}

func (r *chatSessionRepository) DeleteByID(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ChatSession{}).Error
}
