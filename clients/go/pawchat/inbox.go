package pawchat

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrInboxStarted is returned when Start is called twice.
var ErrInboxStarted = errors.New("pawchat: inbox already started")

// InboxSnapshot is one refresh of the conversation-list view.
type InboxSnapshot struct {
	Conversations []ConversationSummary
	UnreadTotal   int64
}

// InboxOptions tune the conversation-list poller.
type InboxOptions struct {
	PollInterval time.Duration

	// OnSnapshot is called after every successful refresh.
	OnSnapshot func(InboxSnapshot)
}

func (o *InboxOptions) withDefaults() InboxOptions {
	opts := InboxOptions{}
	if o != nil {
		opts = *o
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	return opts
}

// Inbox polls the conversation list and global unread badge on a fixed
// interval, independent of any open thread. Refresh failures are
// transient: the next tick retries and the previous snapshot stands.
type Inbox struct {
	client *Client
	opts   InboxOptions

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	last    InboxSnapshot
}

// NewInbox creates a stopped inbox poller.
func NewInbox(client *Client, opts *InboxOptions) *Inbox {
	return &Inbox{
		client: client,
		opts:   opts.withDefaults(),
	}
}

// Start performs an initial refresh and begins polling. The initial
// refresh error is returned so the UI can show a load failure.
func (i *Inbox) Start(ctx context.Context) error {
	i.mu.Lock()
	if i.started {
		i.mu.Unlock()
		return ErrInboxStarted
	}
	i.started = true
	runCtx, cancel := context.WithCancel(ctx)
	i.cancel = cancel
	i.mu.Unlock()

	if err := i.refresh(runCtx); err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(i.opts.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = i.refresh(runCtx) // transient; retried next tick
			case <-runCtx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop halts polling. In-flight refreshes are discarded on completion.
func (i *Inbox) Stop() {
	i.mu.Lock()
	cancel := i.cancel
	i.started = false
	i.cancel = nil
	i.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Last returns the most recent snapshot.
func (i *Inbox) Last() InboxSnapshot {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.last
}

func (i *Inbox) refresh(ctx context.Context) error {
	conversations, err := i.client.Conversations(ctx)
	if err != nil {
		return err
	}
	total, err := i.client.UnreadCount(ctx)
	if err != nil {
		return err
	}

	snapshot := InboxSnapshot{Conversations: conversations, UnreadTotal: total}

	i.mu.Lock()
	if ctx.Err() != nil {
		// Stopped while the fetch was in flight; discard the result.
		i.mu.Unlock()
		return ctx.Err()
	}
	i.last = snapshot
	i.mu.Unlock()

	if i.opts.OnSnapshot != nil {
		i.opts.OnSnapshot(snapshot)
	}
	return nil
}
