package repository

import (
	"time"

	"github.com/pawmates/pawmates-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageRepository message data access interface.
//
// List contracts: messages are returned ascending by id. Message ids are
// server-assigned and monotonic, so both cursors (before/after) are stable
// under concurrent inserts.
type MessageRepository interface {
	Append(msg *domain.Message) error
	ListByConversation(conversationID, beforeID uint64, limit int) ([]*domain.Message, error)
	ListAfter(conversationID, afterID uint64, limit int) ([]*domain.Message, error)
	MarkRead(conversationID, readerID uint64) (int64, error)
	CountUnread(userID, conversationID uint64) (int64, error)
	CountUnreadTotal(userID uint64) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Append persists a message and bumps the conversation's last-message
// pointer. The conversation row is locked for the duration of the
// transaction so concurrent sends to the same conversation get strictly
// ordered ids and neither message is lost.
func (r *messageRepository) Append(msg *domain.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var conv domain.Conversation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", msg.ConversationID).
			First(&conv).Error; err != nil {
			return err
		}

		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		return tx.Model(&domain.Conversation{}).
			Where("id = ?", conv.ID).
			Updates(map[string]interface{}{
				"last_message_id": msg.ID,
				"last_message_at": msg.CreatedAt,
			}).Error
	})
}

// ListByConversation returns the page of messages ending just before
// beforeID (or the newest page when beforeID is 0), ascending by id.
func (r *messageRepository) ListByConversation(conversationID, beforeID uint64, limit int) ([]*domain.Message, error) {
	var messages []*domain.Message

	query := r.db.Where("conversation_id = ?", conversationID)
	if beforeID > 0 {
		query = query.Where("id < ?", beforeID)
	}
	// Fetch newest-first to honor the limit, then reverse to ascending.
	if err := query.Order("id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ListAfter returns messages with id greater than afterID, ascending.
// Used by the incremental sync tick of open threads.
func (r *messageRepository) ListAfter(conversationID, afterID uint64, limit int) ([]*domain.Message, error) {
	var messages []*domain.Message
	err := r.db.Where("conversation_id = ? AND id > ?", conversationID, afterID).
		Order("id ASC").Limit(limit).
		Find(&messages).Error
	return messages, err
}

// MarkRead sets read_at on every unread message addressed to readerID in
// the conversation. The read_at IS NULL predicate makes the call
// idempotent and keeps read_at set-once.
func (r *messageRepository) MarkRead(conversationID, readerID uint64) (int64, error) {
	now := time.Now()
	result := r.db.Model(&domain.Message{}).
		Where("conversation_id = ? AND recipient_id = ? AND read_at IS NULL", conversationID, readerID).
		Update("read_at", now)
	return result.RowsAffected, result.Error
}

// CountUnread recomputes the unread count for one conversation. This is
// the source of truth the unread tracker reconciles against.
func (r *messageRepository) CountUnread(userID, conversationID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Message{}).
		Where("conversation_id = ? AND recipient_id = ? AND read_at IS NULL", conversationID, userID).
		Count(&count).Error
	return count, err
}

// CountUnreadTotal recomputes the global unread badge count for a user.
func (r *messageRepository) CountUnreadTotal(userID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Message{}).
		Where("recipient_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}
