// Package pawchat provides a client for the Pawmates messaging API:
// plain request/response calls plus a polling synchronization layer
// (Thread, Inbox) for UI consumers.
package pawchat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a Pawmates messaging API client.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a new messaging client authenticated with token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pawchat: %s (%d): %s", e.Code, e.Status, e.Message)
}

// IsForbidden reports whether the server rejected the caller as a
// non-participant.
func (e *APIError) IsForbidden() bool { return e.Status == http.StatusForbidden }

// envelope mirrors the server's APIResponse wrapper.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Message is a confirmed server-side message.
type Message struct {
	ID             uint64     `json:"id"`
	ConversationID uint64     `json:"conversation_id"`
	SenderID       uint64     `json:"sender_id"`
	RecipientID    uint64     `json:"recipient_id"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	IsRead         bool       `json:"is_read"`
	ClientRef      string     `json:"client_ref,omitempty"`
}

// UserRef is the counterpart shown on a conversation summary.
type UserRef struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// PetRef is the pet a conversation is about.
type PetRef struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url,omitempty"`
}

// ConversationSummary is one row of the conversation list.
type ConversationSummary struct {
	ID          uint64   `json:"id"`
	OtherUser   *UserRef `json:"other_user"`
	Pet         *PetRef  `json:"pet"`
	LastMessage *Message `json:"latest_message,omitempty"`
	UnreadCount int64    `json:"unread_count"`
}

// SendRequest is the body of a send call.
type SendRequest struct {
	RecipientID uint64 `json:"recipient_id"`
	PetID       uint64 `json:"pet_id"`
	Content     string `json:"content"`
	ClientRef   string `json:"client_ref,omitempty"`
}

// doRequest performs an HTTP request and unwraps the response envelope.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &APIError{Status: resp.StatusCode, Code: "ERROR", Message: string(respBody)}
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Code: "ERROR"}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return nil, apiErr
	}

	return env.Data, nil
}

// SendMessage appends a message to the conversation identified by
// (recipient, pet). The returned message carries the server-assigned id
// and timestamp, which are authoritative for ordering.
func (c *Client) SendMessage(ctx context.Context, req SendRequest) (*Message, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/api/v1/messages", req)
	if err != nil {
		return nil, err
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Messages retrieves a history page ascending by id, ending just before
// the cursor (the newest page when before is 0).
func (c *Client) Messages(ctx context.Context, conversationID, before uint64, limit int) ([]Message, error) {
	path := fmt.Sprintf("/api/v1/conversations/%d/messages?limit=%d", conversationID, limit)
	if before > 0 {
		path += fmt.Sprintf("&before=%d", before)
	}
	return c.fetchMessages(ctx, path)
}

// MessagesAfter retrieves messages newer than the cursor, ascending.
func (c *Client) MessagesAfter(ctx context.Context, conversationID, after uint64, limit int) ([]Message, error) {
	path := fmt.Sprintf("/api/v1/conversations/%d/messages?after=%d&limit=%d", conversationID, after, limit)
	return c.fetchMessages(ctx, path)
}

func (c *Client) fetchMessages(ctx context.Context, path string) ([]Message, error) {
	data, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead issues a read receipt for every unread message addressed to
// the caller in the conversation. Returns how many were updated; a
// repeat call returns 0.
func (c *Client) MarkRead(ctx context.Context, conversationID uint64) (int64, error) {
	data, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/v1/conversations/%d/read", conversationID), nil)
	if err != nil {
		return 0, err
	}
	var resp struct {
		Updated int64 `json:"updated"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

// Conversations lists the caller's conversations, newest activity first.
func (c *Client) Conversations(ctx context.Context) ([]ConversationSummary, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/api/v1/conversations", nil)
	if err != nil {
		return nil, err
	}
	var summaries []ConversationSummary
	if err := json.Unmarshal(data, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// UnreadCount returns the caller's global unread badge count.
func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/api/v1/messages/unread-count", nil)
	if err != nil {
		return 0, err
	}
	var resp struct {
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, err
	}
	return resp.Total, nil
}

// Handle resolves the deterministic conversation id for (caller,
// otherUser, pet) before the first message is sent. Participant order is
// irrelevant.
func (c *Client) Handle(ctx context.Context, otherUserID, petID uint64) (uint64, error) {
	body := map[string]uint64{"user_id": otherUserID, "pet_id": petID}
	data, err := c.doRequest(ctx, http.MethodPost, "/api/v1/conversations/handle", body)
	if err != nil {
		return 0, err
	}
	var resp struct {
		ConversationID uint64 `json:"conversation_id"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, err
	}
	return resp.ConversationID, nil
}
