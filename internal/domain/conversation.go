package domain

import (
	"time"
	"unicode/utf8"
)

// previewLength caps the last-message preview in conversation summaries
const previewLength = 80

// Conversation is the scope uniting two users and one pet. It is
// materialized implicitly by the first message for a (participants, pet)
// triple and never deleted.
//
// Identity is order-independent: UserLowID < UserHighID always holds, so
// either participant initiating yields the same row.
type Conversation struct {
	ID            uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserLowID     uint64     `gorm:"column:user_low_id;uniqueIndex:uq_conv_pair_pet,priority:1" json:"user_low_id"`
	UserHighID    uint64     `gorm:"column:user_high_id;uniqueIndex:uq_conv_pair_pet,priority:2;index" json:"user_high_id"`
	PetID         uint64     `gorm:"column:pet_id;uniqueIndex:uq_conv_pair_pet,priority:3" json:"pet_id"`
	LastMessageID *uint64    `gorm:"column:last_message_id" json:"last_message_id,omitempty"`
	LastMessageAt *time.Time `gorm:"column:last_message_at;index" json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	LastMessage *Message `gorm:"foreignKey:LastMessageID" json:"last_message,omitempty"`
}

// TableName returns the table name
func (Conversation) TableName() string {
	return "conversations"
}

// NormalizePair orders two user ids so the pair is independent of who
// initiated the conversation.
func NormalizePair(a, b uint64) (low, high uint64) {
	if a < b {
		return a, b
	}
	return b, a
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID uint64) bool {
	return c.UserLowID == userID || c.UserHighID == userID
}

// Counterpart returns the other participant's id.
func (c *Conversation) Counterpart(userID uint64) uint64 {
	if c.UserLowID == userID {
		return c.UserHighID
	}
	return c.UserLowID
}

// ConversationSummary is the list-view projection of a conversation,
// denormalized with counterpart and pet display data for rendering.
type ConversationSummary struct {
	ID          uint64           `json:"id"`
	OtherUser   *UserRef         `json:"other_user"`
	Pet         *PetRef          `json:"pet"`
	LastMessage *MessageResponse `json:"latest_message,omitempty"`
	UnreadCount int64            `json:"unread_count"`
}

// HandleRequest asks for a conversation id before the first message is sent
type HandleRequest struct {
	UserID uint64 `json:"user_id" binding:"required"`
	PetID  uint64 `json:"pet_id" binding:"required"`
}

// HandleResponse carries the deterministic conversation id
type HandleResponse struct {
	ConversationID uint64 `json:"conversation_id"`
}

// Preview truncates message content for conversation summaries.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewLength]) + "…"
}
