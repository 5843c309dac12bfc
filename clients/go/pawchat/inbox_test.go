package pawchat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestInboxStartRefreshesAndPolls(t *testing.T) {
	var mu sync.Mutex
	unread := int64(2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/conversations":
			writeData(w, []ConversationSummary{
				{ID: 9, OtherUser: &UserRef{ID: 2, Username: "sam"}, Pet: &PetRef{ID: 42, Name: "Max"}, UnreadCount: 2},
			})
		case "/api/v1/messages/unread-count":
			mu.Lock()
			total := unread
			mu.Unlock()
			writeData(w, map[string]int64{"total": total})
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route")
		}
	}))
	defer srv.Close()

	snapshots := make(chan InboxSnapshot, 16)
	inbox := NewInbox(NewClient(srv.URL, "token"), &InboxOptions{
		PollInterval: 15 * time.Millisecond,
		OnSnapshot:   func(s InboxSnapshot) { snapshots <- s },
	})
	defer inbox.Stop()

	if err := inbox.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	first := <-snapshots
	if first.UnreadTotal != 2 {
		t.Fatalf("expected unread total 2, got %d", first.UnreadTotal)
	}
	if len(first.Conversations) != 1 || first.Conversations[0].OtherUser.Username != "sam" {
		t.Fatalf("unexpected conversations %+v", first.Conversations)
	}

	// The badge count changes server-side; a later poll picks it up.
	mu.Lock()
	unread = 0
	mu.Unlock()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-snapshots:
			if s.UnreadTotal == 0 {
				if last := inbox.Last(); last.UnreadTotal != 0 {
					t.Fatalf("expected Last to track the poll, got %d", last.UnreadTotal)
				}
				return
			}
		case <-deadline:
			t.Fatal("poller never observed the updated badge count")
		}
	}
}

func TestInboxStartFailureIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "down")
	}))
	defer srv.Close()

	inbox := NewInbox(NewClient(srv.URL, "token"), nil)
	if err := inbox.Start(context.Background()); err == nil {
		t.Fatal("expected the initial refresh error")
	}
}

func TestInboxStartTwice(t *testing.T) {
	f := newFakeServer(t)
	inbox := NewInbox(f.client(), &InboxOptions{PollInterval: time.Hour})
	defer inbox.Stop()

	if err := inbox.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := inbox.Start(context.Background()); err != ErrInboxStarted {
		t.Fatalf("expected ErrInboxStarted, got %v", err)
	}
}

func TestInboxStopHaltsPolling(t *testing.T) {
	f := newFakeServer(t)
	inbox := NewInbox(f.client(), &InboxOptions{PollInterval: 10 * time.Millisecond})

	if err := inbox.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, time.Second, func() bool { return f.requestCount() > 4 })
	inbox.Stop()

	time.Sleep(50 * time.Millisecond)
	before := f.requestCount()
	time.Sleep(100 * time.Millisecond)
	if after := f.requestCount(); after != before {
		t.Fatalf("expected polling to stop, requests went %d -> %d", before, after)
	}
}
