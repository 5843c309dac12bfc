package domain

import "time"

// Message is a single unit of communication within a conversation.
// Immutable once created, except for read_at which is set exactly once
// by the recipient's read receipt.
type Message struct {
	ID             uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ConversationID uint64     `gorm:"column:conversation_id;index:idx_messages_conv_id" json:"conversation_id"`
	SenderID       uint64     `gorm:"column:sender_id;index" json:"sender_id"`
	RecipientID    uint64     `gorm:"column:recipient_id;index" json:"recipient_id"`
	Content        string     `gorm:"column:content;type:text" json:"content"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	ReadAt         *time.Time `gorm:"column:read_at" json:"read_at,omitempty"`
}

// TableName returns the table name
func (Message) TableName() string {
	return "messages"
}

// SendMessageRequest represents a send message request
type SendMessageRequest struct {
	RecipientID uint64 `json:"recipient_id" binding:"required"`
	PetID       uint64 `json:"pet_id" binding:"required"`
	Content     string `json:"content" binding:"required"`
	// ClientRef is an optional client-generated correlation id, echoed back
	// so optimistic UI entries can be reconciled without content matching.
	ClientRef string `json:"client_ref,omitempty"`
}

// MessageResponse represents a message in API responses
type MessageResponse struct {
	ID             uint64 `json:"id"`
	ConversationID uint64 `json:"conversation_id"`
	SenderID       uint64 `json:"sender_id"`
	RecipientID    uint64 `json:"recipient_id"`
	Content        string `json:"content"`
	CreatedAt      string `json:"created_at"`
	ReadAt         string `json:"read_at,omitempty"`
	IsRead         bool   `json:"is_read"`
	ClientRef      string `json:"client_ref,omitempty"`
}

// ToResponse converts Message to MessageResponse
func (m *Message) ToResponse() *MessageResponse {
	resp := &MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		RecipientID:    m.RecipientID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
		IsRead:         m.ReadAt != nil,
	}
	if m.ReadAt != nil {
		resp.ReadAt = m.ReadAt.Format(time.RFC3339)
	}
	return resp
}

// MarkReadResponse reports how many messages a read receipt updated
type MarkReadResponse struct {
	ConversationID uint64 `json:"conversation_id"`
	Updated        int64  `json:"updated"`
}

// UnreadCountResponse carries the global unread badge count
type UnreadCountResponse struct {
	Total int64 `json:"total"`
}
