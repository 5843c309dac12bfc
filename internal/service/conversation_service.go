package service

import (
	"context"
	"errors"

	"github.com/pawmates/pawmates-backend/internal/common"
	"github.com/pawmates/pawmates-backend/internal/domain"
	"github.com/pawmates/pawmates-backend/internal/repository"
	"github.com/pawmates/pawmates-backend/pkg/logger"
	"gorm.io/gorm"
)

// ConversationService presents the set of conversations visible to a user
type ConversationService interface {
	ListForUser(ctx context.Context, userID uint64) ([]*domain.ConversationSummary, error)
	Handle(ctx context.Context, userID, otherUserID, petID uint64) (*domain.HandleResponse, error)
}

type conversationService struct {
	convRepo repository.ConversationRepository
	petRepo  repository.PetRepository
	userRepo repository.UserRepository
	unread   UnreadService
}

// NewConversationService creates a new ConversationService
func NewConversationService(
	convRepo repository.ConversationRepository,
	petRepo repository.PetRepository,
	userRepo repository.UserRepository,
	unread UnreadService,
) ConversationService {
	return &conversationService{
		convRepo: convRepo,
		petRepo:  petRepo,
		userRepo: userRepo,
		unread:   unread,
	}
}

// ListForUser returns conversation summaries ordered by last message
// recency. Counterpart and pet data are read-through lookups; a deleted
// pet or user degrades to a placeholder instead of failing the listing.
func (s *conversationService) ListForUser(ctx context.Context, userID uint64) ([]*domain.ConversationSummary, error) {
	convs, err := s.convRepo.ListForUser(userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		summary := &domain.ConversationSummary{
			ID:        conv.ID,
			OtherUser: s.counterpartRef(conv.Counterpart(userID)),
			Pet:       s.petRef(conv.PetID),
		}

		if conv.LastMessage != nil {
			last := conv.LastMessage.ToResponse()
			last.Content = domain.Preview(last.Content)
			summary.LastMessage = last
		}

		count, err := s.unread.CountForConversation(ctx, userID, conv.ID)
		if err != nil {
			logger.Warn("unread count failed for user %d conv %d: %v", userID, conv.ID, err)
		}
		summary.UnreadCount = count

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Handle returns the deterministic conversation id for (userID,
// otherUserID, petID), creating the conversation row if absent. Calling
// with the participants swapped yields the same id.
func (s *conversationService) Handle(ctx context.Context, userID, otherUserID, petID uint64) (*domain.HandleResponse, error) {
	if userID == otherUserID {
		return nil, common.ErrSelfMessage
	}

	if _, err := s.userRepo.FindByID(otherUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, err
	}

	exists, err := s.petRepo.Exists(petID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, common.ErrPetNotFound
	}

	conv, err := s.convRepo.GetOrCreate(userID, otherUserID, petID)
	if err != nil {
		return nil, err
	}
	return &domain.HandleResponse{ConversationID: conv.ID}, nil
}

func (s *conversationService) counterpartRef(userID uint64) *domain.UserRef {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return domain.PlaceholderUser(userID)
	}
	return user.Ref()
}

func (s *conversationService) petRef(petID uint64) *domain.PetRef {
	pet, err := s.petRepo.FindByID(petID)
	if err != nil {
		return domain.PlaceholderPet(petID)
	}
	return pet.Ref()
}
