package service

import (
	"github.com/pawmates/pawmates-backend/internal/domain"
	"github.com/pawmates/pawmates-backend/internal/ws"
)

// Notifier emits semantic messaging events toward the notification
// surface (toasts, badges). Rendering is owned by the surrounding
// application; this core only publishes the event kind and payload.
type Notifier interface {
	MessageReceived(userID uint64, msg *domain.MessageResponse)
	UnreadChanged(userID, conversationID uint64, total int64)
}

type hubNotifier struct {
	hub *ws.Hub
}

// NewHubNotifier bridges messaging events onto the WebSocket hub
func NewHubNotifier(hub *ws.Hub) Notifier {
	return &hubNotifier{hub: hub}
}

func (n *hubNotifier) MessageReceived(userID uint64, msg *domain.MessageResponse) {
	n.hub.SendToUser(userID, &ws.Event{
		Type:    ws.EventMessageReceived,
		Payload: msg,
	})
}

type unreadPayload struct {
	ConversationID uint64 `json:"conversation_id"`
	Total          int64  `json:"total"`
}

func (n *hubNotifier) UnreadChanged(userID, conversationID uint64, total int64) {
	n.hub.SendToUser(userID, &ws.Event{
		Type:    ws.EventUnreadCount,
		Payload: unreadPayload{ConversationID: conversationID, Total: total},
	})
}

// NopNotifier discards events. Used when the hub is not running.
type NopNotifier struct{}

func (NopNotifier) MessageReceived(uint64, *domain.MessageResponse) {}
func (NopNotifier) UnreadChanged(uint64, uint64, int64)             {}
