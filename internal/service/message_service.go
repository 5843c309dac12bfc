package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pawmates/pawmates-backend/internal/common"
	"github.com/pawmates/pawmates-backend/internal/domain"
	"github.com/pawmates/pawmates-backend/internal/metrics"
	"github.com/pawmates/pawmates-backend/internal/repository"
	"github.com/pawmates/pawmates-backend/pkg/logger"
	"gorm.io/gorm"
)

// MessageService business logic for the per-conversation message log
type MessageService interface {
	Send(ctx context.Context, senderID uint64, req *domain.SendMessageRequest) (*domain.MessageResponse, error)
	History(ctx context.Context, userID, conversationID, beforeID uint64, limit int) ([]*domain.MessageResponse, error)
	Sync(ctx context.Context, userID, conversationID, afterID uint64, limit int) ([]*domain.MessageResponse, error)
	MarkRead(ctx context.Context, readerID, conversationID uint64) (int64, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	convRepo    repository.ConversationRepository
	petRepo     repository.PetRepository
	userRepo    repository.UserRepository
	unread      UnreadService
	notifier    Notifier
	pageSize    int
	maxContent  int
}

// NewMessageService creates a new MessageService
func NewMessageService(
	messageRepo repository.MessageRepository,
	convRepo repository.ConversationRepository,
	petRepo repository.PetRepository,
	userRepo repository.UserRepository,
	unread UnreadService,
	notifier Notifier,
	pageSize int,
	maxContent int,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		convRepo:    convRepo,
		petRepo:     petRepo,
		userRepo:    userRepo,
		unread:      unread,
		notifier:    notifier,
		pageSize:    pageSize,
		maxContent:  maxContent,
	}
}

// Send validates and appends a message, implicitly materializing the
// conversation on first contact. The server assigns id and created_at;
// those are authoritative for ordering.
func (s *messageService) Send(ctx context.Context, senderID uint64, req *domain.SendMessageRequest) (*domain.MessageResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, common.ErrEmptyContent
	}
	if s.maxContent > 0 && len(content) > s.maxContent {
		return nil, common.ErrInvalidInput
	}
	if senderID == req.RecipientID {
		return nil, common.ErrSelfMessage
	}

	if _, err := s.userRepo.FindByID(req.RecipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, err
	}

	exists, err := s.petRepo.Exists(req.PetID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, common.ErrPetNotFound
	}

	conv, err := s.convRepo.GetOrCreate(senderID, req.RecipientID, req.PetID)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		RecipientID:    req.RecipientID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	if err := s.messageRepo.Append(msg); err != nil {
		return nil, err
	}

	metrics.MessageSent()
	s.unread.NoteAppend(ctx, req.RecipientID, conv.ID)

	resp := msg.ToResponse()
	resp.ClientRef = req.ClientRef

	s.notifier.MessageReceived(req.RecipientID, resp)
	if total, err := s.unread.CountForUser(ctx, req.RecipientID); err == nil {
		s.notifier.UnreadChanged(req.RecipientID, conv.ID, total)
	}

	return resp, nil
}

// History returns a page of the conversation log ending before beforeID
// (the newest page when beforeID is 0), ascending by id.
func (s *messageService) History(ctx context.Context, userID, conversationID, beforeID uint64, limit int) ([]*domain.MessageResponse, error) {
	if err := s.authorize(userID, conversationID); err != nil {
		return nil, err
	}

	if limit < 1 || limit > s.pageSize {
		limit = s.pageSize
	}
	messages, err := s.messageRepo.ListByConversation(conversationID, beforeID, limit)
	if err != nil {
		return nil, err
	}
	return toResponses(messages), nil
}

// Sync returns messages newer than afterID, ascending. This is the
// incremental fetch of the polling client.
func (s *messageService) Sync(ctx context.Context, userID, conversationID, afterID uint64, limit int) ([]*domain.MessageResponse, error) {
	if err := s.authorize(userID, conversationID); err != nil {
		return nil, err
	}

	if limit < 1 || limit > s.pageSize {
		limit = s.pageSize
	}
	messages, err := s.messageRepo.ListAfter(conversationID, afterID, limit)
	if err != nil {
		return nil, err
	}
	return toResponses(messages), nil
}

// MarkRead sets read_at on every unread message addressed to readerID in
// the conversation and returns how many were updated. Idempotent: a
// second call in a row returns 0.
func (s *messageService) MarkRead(ctx context.Context, readerID, conversationID uint64) (int64, error) {
	conv, err := s.convRepo.FindByID(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, common.ErrConversationNotFound
		}
		return 0, err
	}
	if !conv.HasParticipant(readerID) {
		return 0, common.ErrNotParticipant
	}

	updated, err := s.messageRepo.MarkRead(conversationID, readerID)
	if err != nil {
		return 0, err
	}

	metrics.ReadReceipt(updated)
	if updated > 0 {
		s.unread.NoteRead(ctx, readerID, conversationID)
		if total, err := s.unread.CountForUser(ctx, readerID); err == nil {
			s.notifier.UnreadChanged(readerID, conversationID, total)
		} else {
			logger.Warn("unread recount after read failed for user %d: %v", readerID, err)
		}
	}
	return updated, nil
}

func (s *messageService) authorize(userID, conversationID uint64) error {
	conv, err := s.convRepo.FindByID(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.ErrConversationNotFound
		}
		return err
	}
	if !conv.HasParticipant(userID) {
		return common.ErrNotParticipant
	}
	return nil
}

func toResponses(messages []*domain.Message) []*domain.MessageResponse {
	responses := make([]*domain.MessageResponse, len(messages))
	for i, m := range messages {
		responses[i] = m.ToResponse()
	}
	return responses
}
