package pawchat

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Thread lifecycle errors
var (
	ErrThreadClosed  = errors.New("pawchat: thread is closed")
	ErrAlreadyOpen   = errors.New("pawchat: thread is already open")
	ErrUnknownTempID = errors.New("pawchat: no entry with that temp id")
)

// State of an open conversation thread.
type State int32

const (
	StateIdle State = iota
	StateLoading
	StateLive
	StateSending
	StateClosed
)

// EntryKind tags the optimistic-update variant of a thread entry.
type EntryKind int

const (
	// EntryConfirmed is a server-acknowledged message.
	EntryConfirmed EntryKind = iota
	// EntryPending is an optimistic local message awaiting the server.
	EntryPending
	// EntryFailed is a send that errored; it stays visible for retry.
	EntryFailed
)

// Entry is one row of the thread view. Confirmed entries carry the
// server message; pending and failed entries carry the local content and
// a client-generated correlation id. Reconciliation matches on the temp
// id, never on content equality.
type Entry struct {
	Kind    EntryKind
	TempID  string
	Content string
	Err     error
	Message *Message
}

// ThreadOptions tune the polling behavior of a thread. Intervals are
// configuration, not contract.
type ThreadOptions struct {
	PollInterval time.Duration
	PageSize     int

	// OnUpdate is called with a copy of the entries after every change.
	OnUpdate func(entries []Entry)
	// OnSendFailed is called when a send errors; the entry stays in the
	// thread tagged failed.
	OnSendFailed func(tempID string, err error)
}

func (o *ThreadOptions) withDefaults() ThreadOptions {
	opts := ThreadOptions{}
	if o != nil {
		opts = *o
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	return opts
}

// Thread keeps one open conversation synchronized with the server:
// initial history fetch, read receipt, periodic incremental sync, and
// optimistic sends. Closing the thread stops the poller; results of
// calls still in flight at that point are discarded.
type Thread struct {
	client         *Client
	conversationID uint64
	recipientID    uint64
	petID          uint64
	opts           ThreadOptions

	mu      sync.Mutex
	state   State
	entries []Entry
	known   map[uint64]bool
	lastID  uint64
	cancel  context.CancelFunc
}

// NewThread creates an idle thread for one conversation. recipientID and
// petID address sends; conversationID scopes fetches and read receipts.
func NewThread(client *Client, conversationID, recipientID, petID uint64, opts *ThreadOptions) *Thread {
	return &Thread{
		client:         client,
		conversationID: conversationID,
		recipientID:    recipientID,
		petID:          petID,
		opts:           opts.withDefaults(),
		state:          StateIdle,
		known:          make(map[uint64]bool),
	}
}

// State returns the current thread state.
func (t *Thread) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Entries returns a copy of the current thread view.
func (t *Thread) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Thread) snapshotLocked() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Open fetches the latest history page, transitions the thread to Live,
// issues a best-effort read receipt, and starts the sync poller.
func (t *Thread) Open(ctx context.Context) error {
	t.mu.Lock()
	if t.state == StateClosed {
		t.mu.Unlock()
		return ErrThreadClosed
	}
	if t.state != StateIdle {
		t.mu.Unlock()
		return ErrAlreadyOpen
	}
	t.state = StateLoading
	t.mu.Unlock()

	messages, err := t.client.Messages(ctx, t.conversationID, 0, t.opts.PageSize)
	if err != nil {
		t.mu.Lock()
		if t.state == StateLoading {
			t.state = StateIdle
		}
		t.mu.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	if t.state == StateClosed {
		t.mu.Unlock()
		cancel()
		return ErrThreadClosed
	}
	t.mergeLocked(messages)
	t.state = StateLive
	t.cancel = cancel
	t.mu.Unlock()

	// Read receipt is fire-and-forget: a failure never blocks the view.
	go func() {
		_, _ = t.client.MarkRead(runCtx, t.conversationID)
	}()
	go t.pollLoop(runCtx)

	t.notify()
	return nil
}

// Close terminates the thread and stops its poller. Terminal.
func (t *Thread) Close() {
	t.mu.Lock()
	if t.state == StateClosed {
		t.mu.Unlock()
		return
	}
	t.state = StateClosed
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Send appends an optimistic pending entry and submits the message.
// Returns the correlation id of the pending entry.
func (t *Thread) Send(ctx context.Context, content string) (string, error) {
	t.mu.Lock()
	if t.state == StateClosed || t.state == StateIdle || t.state == StateLoading {
		t.mu.Unlock()
		return "", ErrThreadClosed
	}
	tempID := uuid.New().String()
	t.entries = append(t.entries, Entry{Kind: EntryPending, TempID: tempID, Content: content})
	t.state = StateSending
	t.mu.Unlock()

	t.notify()
	go t.submit(ctx, tempID, content)
	return tempID, nil
}

// Retry resubmits a failed entry with the same content and correlation
// id. On success the failed entry is replaced by the confirmed message.
func (t *Thread) Retry(ctx context.Context, tempID string) error {
	t.mu.Lock()
	if t.state == StateClosed {
		t.mu.Unlock()
		return ErrThreadClosed
	}
	idx := t.indexOfTempLocked(tempID)
	if idx < 0 || t.entries[idx].Kind != EntryFailed {
		t.mu.Unlock()
		return ErrUnknownTempID
	}
	content := t.entries[idx].Content
	t.entries[idx] = Entry{Kind: EntryPending, TempID: tempID, Content: content}
	t.state = StateSending
	t.mu.Unlock()

	t.notify()
	go t.submit(ctx, tempID, content)
	return nil
}

// Discard removes a failed entry the user chose not to retry.
func (t *Thread) Discard(tempID string) error {
	t.mu.Lock()
	idx := t.indexOfTempLocked(tempID)
	if idx < 0 || t.entries[idx].Kind != EntryFailed {
		t.mu.Unlock()
		return ErrUnknownTempID
	}
	t.entries = append(t.entries[:idx], t.entries[idx+1:]...)
	t.mu.Unlock()

	t.notify()
	return nil
}

func (t *Thread) submit(ctx context.Context, tempID, content string) {
	msg, err := t.client.SendMessage(ctx, SendRequest{
		RecipientID: t.recipientID,
		PetID:       t.petID,
		Content:     content,
		ClientRef:   tempID,
	})

	t.mu.Lock()
	if t.state == StateClosed {
		// Thread was closed mid-flight; drop the result.
		t.mu.Unlock()
		return
	}

	if err != nil {
		if idx := t.indexOfTempLocked(tempID); idx >= 0 {
			t.entries[idx] = Entry{Kind: EntryFailed, TempID: tempID, Content: content, Err: err}
		}
		t.state = StateLive
		t.mu.Unlock()

		if t.opts.OnSendFailed != nil {
			t.opts.OnSendFailed(tempID, err)
		}
		t.notify()
		return
	}

	// The server's copy replaces the optimistic one; if a concurrent
	// sync already delivered it, only the pending entry goes away.
	if idx := t.indexOfTempLocked(tempID); idx >= 0 {
		t.entries = append(t.entries[:idx], t.entries[idx+1:]...)
	}
	t.mergeLocked([]Message{*msg})
	t.state = StateLive
	t.mu.Unlock()

	t.notify()
}

func (t *Thread) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(t.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.syncOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// syncOnce fetches messages newer than the last known id and merges
// them. Errors are transient by definition here: the next tick retries.
func (t *Thread) syncOnce(ctx context.Context) {
	t.mu.Lock()
	if t.state != StateLive && t.state != StateSending {
		t.mu.Unlock()
		return
	}
	after := t.lastID
	t.mu.Unlock()

	messages, err := t.client.MessagesAfter(ctx, t.conversationID, after, t.opts.PageSize)
	if err != nil || len(messages) == 0 {
		return
	}

	t.mu.Lock()
	if t.state == StateClosed {
		t.mu.Unlock()
		return
	}
	changed := t.mergeLocked(messages)
	t.mu.Unlock()

	if changed {
		t.notify()
	}
}

// mergeLocked folds confirmed messages into the view, deduplicating by
// server id and keeping confirmed entries in total id order. Pending and
// failed entries stay after the confirmed block. Server order always
// wins over optimistic order.
func (t *Thread) mergeLocked(messages []Message) bool {
	changed := false
	for i := range messages {
		msg := messages[i]
		if t.known[msg.ID] {
			continue
		}
		t.known[msg.ID] = true
		t.entries = append(t.entries, Entry{Kind: EntryConfirmed, Message: &msg})
		if msg.ID > t.lastID {
			t.lastID = msg.ID
		}
		changed = true
	}
	if !changed {
		return false
	}

	sort.SliceStable(t.entries, func(i, j int) bool {
		a, b := t.entries[i], t.entries[j]
		if a.Kind == EntryConfirmed && b.Kind == EntryConfirmed {
			return a.Message.ID < b.Message.ID
		}
		// Confirmed entries sort before local pending/failed ones.
		return a.Kind == EntryConfirmed && b.Kind != EntryConfirmed
	})
	return true
}

func (t *Thread) indexOfTempLocked(tempID string) int {
	for i := range t.entries {
		if t.entries[i].Kind != EntryConfirmed && t.entries[i].TempID == tempID {
			return i
		}
	}
	return -1
}

func (t *Thread) notify() {
	if t.opts.OnUpdate == nil {
		return
	}
	t.mu.Lock()
	if t.state == StateClosed {
		t.mu.Unlock()
		return
	}
	snapshot := t.snapshotLocked()
	t.mu.Unlock()
	t.opts.OnUpdate(snapshot)
}
