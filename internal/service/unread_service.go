package service

import (
	"context"

	"github.com/pawmates/pawmates-backend/internal/metrics"
	"github.com/pawmates/pawmates-backend/internal/repository"
	"github.com/pawmates/pawmates-backend/pkg/cache"
	"github.com/pawmates/pawmates-backend/pkg/logger"
)

// UnreadService tracks per-user unread counts without rescanning the
// message log on every request. The Redis counters are an optimization:
// every value is reconcilable by recomputation from the message store,
// and the store wins on any discrepancy. A cache miss simply recomputes.
type UnreadService interface {
	CountForUser(ctx context.Context, userID uint64) (int64, error)
	CountForConversation(ctx context.Context, userID, conversationID uint64) (int64, error)

	// NoteAppend bumps the recipient's counters after a message append.
	NoteAppend(ctx context.Context, recipientID, conversationID uint64)
	// NoteRead drops the reader's counters after a read receipt; the
	// next read recomputes them from the store.
	NoteRead(ctx context.Context, readerID, conversationID uint64)

	// Reconcile recomputes both counters from the message store and
	// overwrites whatever the cache held.
	Reconcile(ctx context.Context, userID, conversationID uint64) (int64, error)
}

type unreadService struct {
	cache       cache.Service
	messageRepo repository.MessageRepository
}

// NewUnreadService creates a new UnreadService
func NewUnreadService(cacheService cache.Service, messageRepo repository.MessageRepository) UnreadService {
	return &unreadService{
		cache:       cacheService,
		messageRepo: messageRepo,
	}
}

// CountForUser returns the user's global unread badge count
func (s *unreadService) CountForUser(ctx context.Context, userID uint64) (int64, error) {
	key := cache.UnreadTotalKey(userID)
	if value, hit, err := s.cache.GetCount(ctx, key); err == nil && hit {
		return value, nil
	}

	total, err := s.messageRepo.CountUnreadTotal(userID)
	if err != nil {
		return 0, err
	}
	metrics.UnreadReconciled()
	if err := s.cache.SetCount(ctx, key, total, cache.TTLUnread); err != nil {
		logger.Warn("unread total cache write failed for user %d: %v", userID, err)
	}
	return total, nil
}

// CountForConversation returns the unread count for one conversation
func (s *unreadService) CountForConversation(ctx context.Context, userID, conversationID uint64) (int64, error) {
	key := cache.UnreadConvKey(userID, conversationID)
	if value, hit, err := s.cache.GetCount(ctx, key); err == nil && hit {
		return value, nil
	}

	count, err := s.messageRepo.CountUnread(userID, conversationID)
	if err != nil {
		return 0, err
	}
	metrics.UnreadReconciled()
	if err := s.cache.SetCount(ctx, key, count, cache.TTLUnread); err != nil {
		logger.Warn("unread conv cache write failed for user %d conv %d: %v", userID, conversationID, err)
	}
	return count, nil
}

// NoteAppend increments populated counters. Counters that are not in the
// cache stay absent: incrementing from scratch would undercount, so the
// next read recomputes instead.
func (s *unreadService) NoteAppend(ctx context.Context, recipientID, conversationID uint64) {
	if err := s.cache.IncrExisting(ctx, cache.UnreadTotalKey(recipientID), 1); err != nil {
		logger.Warn("unread total incr failed for user %d: %v", recipientID, err)
	}
	if err := s.cache.IncrExisting(ctx, cache.UnreadConvKey(recipientID, conversationID), 1); err != nil {
		logger.Warn("unread conv incr failed for user %d conv %d: %v", recipientID, conversationID, err)
	}
}

// NoteRead invalidates both counters. Deleting instead of decrementing
// sidesteps the lost-update race between a read receipt and a concurrent
// append; recomputation resolves it in favor of the store.
func (s *unreadService) NoteRead(ctx context.Context, readerID, conversationID uint64) {
	err := s.cache.Delete(ctx,
		cache.UnreadTotalKey(readerID),
		cache.UnreadConvKey(readerID, conversationID),
	)
	if err != nil {
		logger.Warn("unread invalidation failed for user %d conv %d: %v", readerID, conversationID, err)
	}
}

// Reconcile forces a recomputation of both counters
func (s *unreadService) Reconcile(ctx context.Context, userID, conversationID uint64) (int64, error) {
	count, err := s.messageRepo.CountUnread(userID, conversationID)
	if err != nil {
		return 0, err
	}
	total, err := s.messageRepo.CountUnreadTotal(userID)
	if err != nil {
		return 0, err
	}

	metrics.UnreadReconciled()
	if err := s.cache.SetCount(ctx, cache.UnreadConvKey(userID, conversationID), count, cache.TTLUnread); err != nil {
		logger.Warn("unread conv reconcile write failed: %v", err)
	}
	if err := s.cache.SetCount(ctx, cache.UnreadTotalKey(userID), total, cache.TTLUnread); err != nil {
		logger.Warn("unread total reconcile write failed: %v", err)
	}
	return count, nil
}
