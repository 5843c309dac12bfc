package service

import (
	"context"
	"testing"
	"time"

	"github.com/pawmates/pawmates-backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

// fakeCounterCache is an in-memory stand-in for the Redis counter cache.
type fakeCounterCache struct {
	counts map[string]int64
}

func newFakeCounterCache() *fakeCounterCache {
	return &fakeCounterCache{counts: make(map[string]int64)}
}

func (f *fakeCounterCache) Get(ctx context.Context, key string, dest interface{}) error {
	return nil
}

func (f *fakeCounterCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (f *fakeCounterCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.counts, key)
	}
	return nil
}

func (f *fakeCounterCache) GetCount(ctx context.Context, key string) (int64, bool, error) {
	value, ok := f.counts[key]
	return value, ok, nil
}

func (f *fakeCounterCache) SetCount(ctx context.Context, key string, value int64, ttl time.Duration) error {
	f.counts[key] = value
	return nil
}

func (f *fakeCounterCache) IncrExisting(ctx context.Context, key string, delta int64) error {
	if _, ok := f.counts[key]; ok {
		f.counts[key] += delta
	}
	return nil
}

func (f *fakeCounterCache) IsAvailable() bool              { return true }
func (f *fakeCounterCache) Ping(ctx context.Context) error { return nil }

// fakeMessageStore implements MessageRepository over an in-memory log, so
// the tracker can be checked against real recomputation.
type fakeMessageStore struct {
	messages []*domain.Message
	nextID   uint64
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{nextID: 1}
}

func (f *fakeMessageStore) Append(msg *domain.Message) error {
	msg.ID = f.nextID
	f.nextID++
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeMessageStore) ListByConversation(conversationID, beforeID uint64, limit int) ([]*domain.Message, error) {
	var out []*domain.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID && (beforeID == 0 || m.ID < beforeID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) ListAfter(conversationID, afterID uint64, limit int) ([]*domain.Message, error) {
	var out []*domain.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID && m.ID > afterID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) MarkRead(conversationID, readerID uint64) (int64, error) {
	now := time.Now()
	var updated int64
	for _, m := range f.messages {
		if m.ConversationID == conversationID && m.RecipientID == readerID && m.ReadAt == nil {
			m.ReadAt = &now
			updated++
		}
	}
	return updated, nil
}

func (f *fakeMessageStore) CountUnread(userID, conversationID uint64) (int64, error) {
	var count int64
	for _, m := range f.messages {
		if m.ConversationID == conversationID && m.RecipientID == userID && m.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeMessageStore) CountUnreadTotal(userID uint64) (int64, error) {
	var count int64
	for _, m := range f.messages {
		if m.RecipientID == userID && m.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

// assertReconciled checks the tracker against recomputation from the
// store; the tracker must never drift.
func assertReconciled(t *testing.T, svc UnreadService, store *fakeMessageStore, userID, convID uint64) {
	t.Helper()
	ctx := context.Background()

	tracked, err := svc.CountForConversation(ctx, userID, convID)
	assert.NoError(t, err)
	recomputed, err := store.CountUnread(userID, convID)
	assert.NoError(t, err)
	assert.Equal(t, recomputed, tracked, "per-conversation count drifted from the store")

	trackedTotal, err := svc.CountForUser(ctx, userID)
	assert.NoError(t, err)
	recomputedTotal, err := store.CountUnreadTotal(userID)
	assert.NoError(t, err)
	assert.Equal(t, recomputedTotal, trackedTotal, "total count drifted from the store")
}

func TestUnread_TrackerMatchesRecomputation(t *testing.T) {
	store := newFakeMessageStore()
	cacheFake := newFakeCounterCache()
	svc := NewUnreadService(cacheFake, store)
	ctx := context.Background()

	const (
		alice uint64 = 1
		bob   uint64 = 2
		conv  uint64 = 9
	)

	deliver := func(sender, recipient uint64) {
		msg := &domain.Message{ConversationID: conv, SenderID: sender, RecipientID: recipient, Content: "x", CreatedAt: time.Now()}
		assert.NoError(t, store.Append(msg))
		svc.NoteAppend(ctx, recipient, conv)
	}

	// Cold cache: first read recomputes zero.
	assertReconciled(t, svc, store, bob, conv)

	// Appends increment the now-populated counters.
	deliver(alice, bob)
	deliver(alice, bob)
	assertReconciled(t, svc, store, bob, conv)

	// Read receipt drops the counters; next read recomputes.
	updated, err := store.MarkRead(conv, bob)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), updated)
	svc.NoteRead(ctx, bob, conv)
	assertReconciled(t, svc, store, bob, conv)

	// Interleave more appends and a second receipt.
	deliver(alice, bob)
	assertReconciled(t, svc, store, bob, conv)
	_, err = store.MarkRead(conv, bob)
	assert.NoError(t, err)
	svc.NoteRead(ctx, bob, conv)
	assertReconciled(t, svc, store, bob, conv)
}

func TestUnread_IncrementOnColdCacheDoesNotUndercount(t *testing.T) {
	store := newFakeMessageStore()
	cacheFake := newFakeCounterCache()
	svc := NewUnreadService(cacheFake, store)
	ctx := context.Background()

	// Two messages land before anything is cached.
	for i := 0; i < 2; i++ {
		msg := &domain.Message{ConversationID: 9, SenderID: 1, RecipientID: 2, Content: "x", CreatedAt: time.Now()}
		assert.NoError(t, store.Append(msg))
		svc.NoteAppend(ctx, 2, 9)
	}

	// The increments hit absent keys and are skipped; the read must
	// recompute 2 from the store, not report the increments' 0.
	count, err := svc.CountForConversation(ctx, 2, 9)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestUnread_ReconcileOverwritesDriftedCounter(t *testing.T) {
	store := newFakeMessageStore()
	cacheFake := newFakeCounterCache()
	svc := NewUnreadService(cacheFake, store)
	ctx := context.Background()

	msg := &domain.Message{ConversationID: 9, SenderID: 1, RecipientID: 2, Content: "x", CreatedAt: time.Now()}
	assert.NoError(t, store.Append(msg))

	// Poison the cache with a wrong value.
	assert.NoError(t, cacheFake.SetCount(ctx, "unread:conv:2:9", 99, time.Minute))

	count, err := svc.Reconcile(ctx, 2, 9)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// The store's value won.
	cached, hit, err := cacheFake.GetCount(ctx, "unread:conv:2:9")
	assert.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int64(1), cached)
}
