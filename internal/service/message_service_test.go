package service

import (
	"context"
	"testing"

	"github.com/pawmates/pawmates-backend/internal/common"
	"github.com/pawmates/pawmates-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockMessageRepository is a mock implementation of MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Append(msg *domain.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockMessageRepository) ListByConversation(conversationID, beforeID uint64, limit int) ([]*domain.Message, error) {
	args := m.Called(conversationID, beforeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) ListAfter(conversationID, afterID uint64, limit int) ([]*domain.Message, error) {
	args := m.Called(conversationID, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) MarkRead(conversationID, readerID uint64) (int64, error) {
	args := m.Called(conversationID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessageRepository) CountUnread(userID, conversationID uint64) (int64, error) {
	args := m.Called(userID, conversationID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessageRepository) CountUnreadTotal(userID uint64) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockConversationRepository is a mock implementation of ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) GetOrCreate(userA, userB, petID uint64) (*domain.Conversation, error) {
	args := m.Called(userA, userB, petID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepository) FindByID(id uint64) (*domain.Conversation, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepository) ListForUser(userID uint64) ([]*domain.Conversation, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Conversation), args.Error(1)
}

// MockPetRepository is a mock implementation of PetRepository
type MockPetRepository struct {
	mock.Mock
}

func (m *MockPetRepository) FindByID(id uint64) (*domain.Pet, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Pet), args.Error(1)
}

func (m *MockPetRepository) Exists(id uint64) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(id uint64) (*domain.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Exists(id uint64) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

// MockUnreadService is a mock implementation of UnreadService
type MockUnreadService struct {
	mock.Mock
}

func (m *MockUnreadService) CountForUser(ctx context.Context, userID uint64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUnreadService) CountForConversation(ctx context.Context, userID, conversationID uint64) (int64, error) {
	args := m.Called(ctx, userID, conversationID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUnreadService) NoteAppend(ctx context.Context, recipientID, conversationID uint64) {
	m.Called(ctx, recipientID, conversationID)
}

func (m *MockUnreadService) NoteRead(ctx context.Context, readerID, conversationID uint64) {
	m.Called(ctx, readerID, conversationID)
}

func (m *MockUnreadService) Reconcile(ctx context.Context, userID, conversationID uint64) (int64, error) {
	args := m.Called(ctx, userID, conversationID)
	return args.Get(0).(int64), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) MessageReceived(userID uint64, msg *domain.MessageResponse) {
	m.Called(userID, msg)
}

func (m *MockNotifier) UnreadChanged(userID, conversationID uint64, total int64) {
	m.Called(userID, conversationID, total)
}

type messageServiceMocks struct {
	messageRepo *MockMessageRepository
	convRepo    *MockConversationRepository
	petRepo     *MockPetRepository
	userRepo    *MockUserRepository
	unread      *MockUnreadService
	notifier    *MockNotifier
}

func newMessageService() (MessageService, *messageServiceMocks) {
	m := &messageServiceMocks{
		messageRepo: new(MockMessageRepository),
		convRepo:    new(MockConversationRepository),
		petRepo:     new(MockPetRepository),
		userRepo:    new(MockUserRepository),
		unread:      new(MockUnreadService),
		notifier:    new(MockNotifier),
	}
	svc := NewMessageService(m.messageRepo, m.convRepo, m.petRepo, m.userRepo, m.unread, m.notifier, 50, 4000)
	return svc, m
}

func TestSend_Success(t *testing.T) {
	svc, m := newMessageService()
	ctx := context.Background()

	conv := &domain.Conversation{ID: 9, UserLowID: 1, UserHighID: 2, PetID: 42}

	m.userRepo.On("FindByID", uint64(2)).Return(&domain.User{ID: 2, Username: "sam"}, nil)
	m.petRepo.On("Exists", uint64(42)).Return(true, nil)
	m.convRepo.On("GetOrCreate", uint64(1), uint64(2), uint64(42)).Return(conv, nil)
	m.messageRepo.On("Append", mock.AnythingOfType("*domain.Message")).Run(func(args mock.Arguments) {
		msg := args.Get(0).(*domain.Message)
		msg.ID = 100 // server-assigned
	}).Return(nil)
	m.unread.On("NoteAppend", ctx, uint64(2), uint64(9)).Return()
	m.unread.On("CountForUser", ctx, uint64(2)).Return(int64(1), nil)
	m.notifier.On("MessageReceived", uint64(2), mock.AnythingOfType("*domain.MessageResponse")).Return()
	m.notifier.On("UnreadChanged", uint64(2), uint64(9), int64(1)).Return()

	resp, err := svc.Send(ctx, 1, &domain.SendMessageRequest{
		RecipientID: 2,
		PetID:       42,
		Content:     "  Is Max still available?  ",
		ClientRef:   "tmp-1",
	})

	assert.NoError(t, err)
	assert.Equal(t, uint64(100), resp.ID)
	assert.Equal(t, uint64(9), resp.ConversationID)
	assert.Equal(t, "Is Max still available?", resp.Content, "content should be trimmed")
	assert.Equal(t, "tmp-1", resp.ClientRef, "client correlation id should be echoed")
	m.unread.AssertCalled(t, "NoteAppend", ctx, uint64(2), uint64(9))
	m.notifier.AssertExpectations(t)
}

func TestSend_EmptyContent(t *testing.T) {
	svc, _ := newMessageService()

	_, err := svc.Send(context.Background(), 1, &domain.SendMessageRequest{
		RecipientID: 2,
		PetID:       42,
		Content:     "   ",
	})

	assert.ErrorIs(t, err, common.ErrEmptyContent)
}

func TestSend_ToSelf(t *testing.T) {
	svc, _ := newMessageService()

	_, err := svc.Send(context.Background(), 1, &domain.SendMessageRequest{
		RecipientID: 1,
		PetID:       42,
		Content:     "hello me",
	})

	assert.ErrorIs(t, err, common.ErrSelfMessage)
}

func TestSend_RecipientMissing(t *testing.T) {
	svc, m := newMessageService()

	m.userRepo.On("FindByID", uint64(2)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Send(context.Background(), 1, &domain.SendMessageRequest{
		RecipientID: 2,
		PetID:       42,
		Content:     "hi",
	})

	assert.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestSend_PetMissing(t *testing.T) {
	svc, m := newMessageService()

	m.userRepo.On("FindByID", uint64(2)).Return(&domain.User{ID: 2}, nil)
	m.petRepo.On("Exists", uint64(42)).Return(false, nil)

	_, err := svc.Send(context.Background(), 1, &domain.SendMessageRequest{
		RecipientID: 2,
		PetID:       42,
		Content:     "hi",
	})

	assert.ErrorIs(t, err, common.ErrPetNotFound)
}

func TestMarkRead_IdempotentSecondCallReturnsZero(t *testing.T) {
	svc, m := newMessageService()
	ctx := context.Background()

	conv := &domain.Conversation{ID: 9, UserLowID: 1, UserHighID: 2}
	m.convRepo.On("FindByID", uint64(9)).Return(conv, nil)

	// First receipt updates three messages, the repeat none.
	m.messageRepo.On("MarkRead", uint64(9), uint64(2)).Return(int64(3), nil).Once()
	m.messageRepo.On("MarkRead", uint64(9), uint64(2)).Return(int64(0), nil).Once()
	m.unread.On("NoteRead", ctx, uint64(2), uint64(9)).Return().Once()
	m.unread.On("CountForUser", ctx, uint64(2)).Return(int64(0), nil).Once()
	m.notifier.On("UnreadChanged", uint64(2), uint64(9), int64(0)).Return().Once()

	first, err := svc.MarkRead(ctx, 2, 9)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), first)

	second, err := svc.MarkRead(ctx, 2, 9)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), second)

	// No invalidation or event on the no-op receipt
	m.unread.AssertNumberOfCalls(t, "NoteRead", 1)
	m.notifier.AssertNumberOfCalls(t, "UnreadChanged", 1)
}

func TestMarkRead_NonParticipantForbidden(t *testing.T) {
	svc, m := newMessageService()

	conv := &domain.Conversation{ID: 9, UserLowID: 1, UserHighID: 2}
	m.convRepo.On("FindByID", uint64(9)).Return(conv, nil)

	_, err := svc.MarkRead(context.Background(), 5, 9)

	assert.ErrorIs(t, err, common.ErrNotParticipant)
	m.messageRepo.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything)
}

func TestHistory_NonParticipantForbidden(t *testing.T) {
	svc, m := newMessageService()

	conv := &domain.Conversation{ID: 9, UserLowID: 1, UserHighID: 2}
	m.convRepo.On("FindByID", uint64(9)).Return(conv, nil)

	_, err := svc.History(context.Background(), 5, 9, 0, 50)

	assert.ErrorIs(t, err, common.ErrNotParticipant)
}

func TestHistory_ConversationMissing(t *testing.T) {
	svc, m := newMessageService()

	m.convRepo.On("FindByID", uint64(77)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.History(context.Background(), 1, 77, 0, 50)

	assert.ErrorIs(t, err, common.ErrConversationNotFound)
}

func TestHistory_ReturnsAscending(t *testing.T) {
	svc, m := newMessageService()

	conv := &domain.Conversation{ID: 9, UserLowID: 1, UserHighID: 2}
	m.convRepo.On("FindByID", uint64(9)).Return(conv, nil)
	m.messageRepo.On("ListByConversation", uint64(9), uint64(0), 50).Return([]*domain.Message{
		{ID: 10, ConversationID: 9, SenderID: 1, RecipientID: 2, Content: "Hi"},
		{ID: 11, ConversationID: 9, SenderID: 1, RecipientID: 2, Content: "Are you there?"},
	}, nil)

	messages, err := svc.History(context.Background(), 1, 9, 0, 50)

	assert.NoError(t, err)
	assert.Len(t, messages, 2)
	assert.Equal(t, "Hi", messages[0].Content)
	assert.Equal(t, "Are you there?", messages[1].Content)
	assert.Less(t, messages[0].ID, messages[1].ID)
}

func TestSync_UsesAfterCursor(t *testing.T) {
	svc, m := newMessageService()

	conv := &domain.Conversation{ID: 9, UserLowID: 1, UserHighID: 2}
	m.convRepo.On("FindByID", uint64(9)).Return(conv, nil)
	m.messageRepo.On("ListAfter", uint64(9), uint64(11), 50).Return([]*domain.Message{
		{ID: 12, ConversationID: 9, SenderID: 2, RecipientID: 1, Content: "Yes!"},
	}, nil)

	messages, err := svc.Sync(context.Background(), 1, 9, 11, 50)

	assert.NoError(t, err)
	assert.Len(t, messages, 1)
	assert.Equal(t, uint64(12), messages[0].ID)
}
