package repository

import (
	"context"
	"time"

	"pulse-chat/internal/domain/ids"
	"pulse-chat/internal/domain/typing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresTypingRepository struct {
	db *gorm.DB
}

func NewTypingRepository(db *gorm.DB) TypingRepository {
	return &PostgresTypingRepository{db: db}
}

// Upsert keeps a single row per (conversation, user); concurrent keystrokes
// are last-write-wins on last_typed_at.
func (r *PostgresTypingRepository) Upsert(ctx context.Context, s typing.Signal) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_typed_at"}),
		}).
		Create(&s).Error
}

func (r *PostgresTypingRepository) ListByConversation(ctx context.Context, conversationID ids.ConversationID) ([]typing.Signal, error) {
	var signals []typing.Signal
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Find(&signals).Error
	if err != nil {
		return nil, err
	}
	return signals, nil
}

// DeleteBefore reaps rows that expired before cutoff. Storage hygiene only:
// readers already filter on the expiry window.
func (r *PostgresTypingRepository) DeleteBefore(ctx context.Context, cutoff time.Time) error {
	return r.db.WithContext(ctx).
		Delete(&typing.Signal{}, "last_typed_at < ?", cutoff).Error
}
