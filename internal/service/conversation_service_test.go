package service

import (
	"context"
	"testing"
	"time"

	"github.com/pawmates/pawmates-backend/internal/common"
	"github.com/pawmates/pawmates-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type conversationServiceMocks struct {
	convRepo *MockConversationRepository
	petRepo  *MockPetRepository
	userRepo *MockUserRepository
	unread   *MockUnreadService
}

func newConversationService() (ConversationService, *conversationServiceMocks) {
	m := &conversationServiceMocks{
		convRepo: new(MockConversationRepository),
		petRepo:  new(MockPetRepository),
		userRepo: new(MockUserRepository),
		unread:   new(MockUnreadService),
	}
	svc := NewConversationService(m.convRepo, m.petRepo, m.userRepo, m.unread)
	return svc, m
}

func TestListForUser_SummaryShape(t *testing.T) {
	svc, m := newConversationService()
	ctx := context.Background()

	now := time.Now()
	last := &domain.Message{
		ID:             12,
		ConversationID: 9,
		SenderID:       2,
		RecipientID:    1,
		Content:        "Yes, Max is still available!",
		CreatedAt:      now,
	}
	convs := []*domain.Conversation{
		{ID: 9, UserLowID: 1, UserHighID: 2, PetID: 42, LastMessage: last},
	}

	m.convRepo.On("ListForUser", uint64(1)).Return(convs, nil)
	m.userRepo.On("FindByID", uint64(2)).Return(&domain.User{ID: 2, Username: "sam", AvatarURL: "https://img/sam.png"}, nil)
	m.petRepo.On("FindByID", uint64(42)).Return(&domain.Pet{ID: 42, Name: "Max", PhotoURL: "https://img/max.png"}, nil)
	m.unread.On("CountForConversation", ctx, uint64(1), uint64(9)).Return(int64(3), nil)

	summaries, err := svc.ListForUser(ctx, 1)

	assert.NoError(t, err)
	assert.Len(t, summaries, 1)
	s := summaries[0]
	assert.Equal(t, uint64(9), s.ID)
	assert.Equal(t, "sam", s.OtherUser.Username)
	assert.Equal(t, "Max", s.Pet.Name)
	assert.Equal(t, int64(3), s.UnreadCount)
	assert.NotNil(t, s.LastMessage)
	assert.Equal(t, "Yes, Max is still available!", s.LastMessage.Content)
}

func TestListForUser_LongLastMessageTruncated(t *testing.T) {
	svc, m := newConversationService()
	ctx := context.Background()

	long := ""
	for i := 0; i < 30; i++ {
		long += "very long story "
	}
	convs := []*domain.Conversation{
		{ID: 9, UserLowID: 1, UserHighID: 2, PetID: 42, LastMessage: &domain.Message{ID: 5, Content: long, CreatedAt: time.Now()}},
	}

	m.convRepo.On("ListForUser", uint64(1)).Return(convs, nil)
	m.userRepo.On("FindByID", uint64(2)).Return(&domain.User{ID: 2, Username: "sam"}, nil)
	m.petRepo.On("FindByID", uint64(42)).Return(&domain.Pet{ID: 42, Name: "Max"}, nil)
	m.unread.On("CountForConversation", ctx, uint64(1), uint64(9)).Return(int64(0), nil)

	summaries, err := svc.ListForUser(ctx, 1)

	assert.NoError(t, err)
	assert.Equal(t, domain.Preview(long), summaries[0].LastMessage.Content)
	assert.Less(t, len(summaries[0].LastMessage.Content), len(long))
}

func TestListForUser_DeletedPetAndUserDegradeToPlaceholders(t *testing.T) {
	svc, m := newConversationService()
	ctx := context.Background()

	convs := []*domain.Conversation{
		{ID: 9, UserLowID: 1, UserHighID: 2, PetID: 42, LastMessage: &domain.Message{ID: 5, Content: "Hi", CreatedAt: time.Now()}},
	}

	m.convRepo.On("ListForUser", uint64(1)).Return(convs, nil)
	m.userRepo.On("FindByID", uint64(2)).Return(nil, gorm.ErrRecordNotFound)
	m.petRepo.On("FindByID", uint64(42)).Return(nil, gorm.ErrRecordNotFound)
	m.unread.On("CountForConversation", ctx, uint64(1), uint64(9)).Return(int64(0), nil)

	summaries, err := svc.ListForUser(ctx, 1)

	assert.NoError(t, err, "a deleted pet or account must not fail the listing")
	assert.Equal(t, "Deleted user", summaries[0].OtherUser.Username)
	assert.Equal(t, uint64(2), summaries[0].OtherUser.ID)
	assert.Equal(t, "Unknown pet", summaries[0].Pet.Name)
	assert.Equal(t, uint64(42), summaries[0].Pet.ID)
}

func TestListForUser_Empty(t *testing.T) {
	svc, m := newConversationService()

	m.convRepo.On("ListForUser", uint64(7)).Return([]*domain.Conversation{}, nil)

	summaries, err := svc.ListForUser(context.Background(), 7)

	assert.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestHandle_DelegatesNormalizedLookup(t *testing.T) {
	svc, m := newConversationService()

	conv := &domain.Conversation{ID: 9, UserLowID: 1, UserHighID: 2, PetID: 42}
	m.userRepo.On("FindByID", uint64(1)).Return(&domain.User{ID: 1}, nil)
	m.petRepo.On("Exists", uint64(42)).Return(true, nil)
	m.convRepo.On("GetOrCreate", uint64(2), uint64(1), uint64(42)).Return(conv, nil)

	// Caller order is (2,1); the repository normalizes the pair.
	resp, err := svc.Handle(context.Background(), 2, 1, 42)

	assert.NoError(t, err)
	assert.Equal(t, uint64(9), resp.ConversationID)
}

func TestHandle_SelfConversationRejected(t *testing.T) {
	svc, _ := newConversationService()

	_, err := svc.Handle(context.Background(), 1, 1, 42)

	assert.ErrorIs(t, err, common.ErrSelfMessage)
}

func TestHandle_OtherUserMissing(t *testing.T) {
	svc, m := newConversationService()

	m.userRepo.On("FindByID", uint64(2)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Handle(context.Background(), 1, 2, 42)

	assert.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestHandle_PetMissing(t *testing.T) {
	svc, m := newConversationService()

	m.userRepo.On("FindByID", uint64(2)).Return(&domain.User{ID: 2}, nil)
	m.petRepo.On("Exists", uint64(42)).Return(false, nil)

	_, err := svc.Handle(context.Background(), 1, 2, 42)

	assert.ErrorIs(t, err, common.ErrPetNotFound)
}
