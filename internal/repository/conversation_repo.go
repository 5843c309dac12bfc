package repository

import (
	"github.com/pawmates/pawmates-backend/internal/domain"
	"gorm.io/gorm"
)

// ConversationRepository conversation data access interface
type ConversationRepository interface {
	GetOrCreate(userA, userB, petID uint64) (*domain.Conversation, error)
	FindByID(id uint64) (*domain.Conversation, error)
	ListForUser(userID uint64) ([]*domain.Conversation, error)
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// GetOrCreate returns the conversation for the (participants, pet) triple,
// creating it if absent. Participant order does not matter: the pair is
// normalized before lookup, and the unique index on
// (user_low_id, user_high_id, pet_id) prevents duplicates when both users
// initiate at the same time.
func (r *conversationRepository) GetOrCreate(userA, userB, petID uint64) (*domain.Conversation, error) {
	low, high := domain.NormalizePair(userA, userB)

	conv := domain.Conversation{UserLowID: low, UserHighID: high, PetID: petID}
	err := r.db.Where("user_low_id = ? AND user_high_id = ? AND pet_id = ?", low, high, petID).
		FirstOrCreate(&conv).Error
	if err != nil {
		// A concurrent create may have hit the unique index first;
		// the row exists now, so look it up again.
		var existing domain.Conversation
		lookupErr := r.db.Where("user_low_id = ? AND user_high_id = ? AND pet_id = ?", low, high, petID).
			First(&existing).Error
		if lookupErr != nil {
			return nil, err
		}
		return &existing, nil
	}
	return &conv, nil
}

// FindByID finds a conversation by ID
func (r *conversationRepository) FindByID(id uint64) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.db.Where("id = ?", id).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListForUser returns the user's conversations ordered by last message
// recency. Conversations without any message yet are excluded: a handle
// that never received a message is not part of the inbox.
func (r *conversationRepository) ListForUser(userID uint64) ([]*domain.Conversation, error) {
	var convs []*domain.Conversation
	err := r.db.Preload("LastMessage").
		Where("(user_low_id = ? OR user_high_id = ?) AND last_message_id IS NOT NULL", userID, userID).
		Order("last_message_at DESC").
		Find(&convs).Error
	return convs, err
}
