// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/gather/lib/ref"
	"github.com/bureau-foundation/gather/lib/secret"
)

// Session is the slice of Matrix operations the message pump consumes.
// *DirectSession implements it against a real homeserver; pump tests
// implement it in-process.
type Session interface {
	// UserID returns the fully-qualified Matrix user ID of the
	// session's account.
	UserID() ref.UserID

	// Close releases resources held by the session. Idempotent.
	Close() error

	// WhoAmI validates the access token and returns the user ID.
	WhoAmI(ctx context.Context) (ref.UserID, error)

	// Sync performs an incremental sync. Leave options.Since empty for
	// the initial sync; set options.Timeout for long-polling.
	Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error)

	// SendMessage sends an m.room.message event. Returns the event ID.
	SendMessage(ctx context.Context, roomID ref.RoomID, content MessageContent) (ref.EventID, error)

	// ResolveAlias resolves a room alias ("#events:example.org") to a
	// room ID.
	ResolveAlias(ctx context.Context, alias string) (ref.RoomID, error)

	// JoinRoom joins a room by ID.
	JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error)

	// CreateRoom creates a room; the daemon uses it for direct-message
	// rooms.
	CreateRoom(ctx context.Context, request CreateRoomRequest) (*CreateRoomResponse, error)

	// GetEvent fetches a single event, used to recover a thread root's
	// text.
	GetEvent(ctx context.Context, roomID ref.RoomID, eventID ref.EventID) (*Event, error)

	// RoomName fetches a room's m.room.name, or "" when unset.
	RoomName(ctx context.Context, roomID ref.RoomID) (string, error)

	// DisplayName fetches a user's profile display name, or "" when
	// unset.
	DisplayName(ctx context.Context, userID ref.UserID) (string, error)
}

// DirectSession is an authenticated session against a real homeserver.
// The access token lives in a secret.Buffer (mmap-backed, locked
// against swap); Close releases it. DirectSessions are lightweight and
// safe for concurrent use.
type DirectSession struct {
	client      *Client
	accessToken *secret.Buffer
	userID      ref.UserID

	// transactionCounter feeds idempotent event-send transaction IDs.
	transactionCounter atomic.Int64
}

var _ Session = (*DirectSession)(nil)

// UserID returns the fully-qualified Matrix user ID.
func (s *DirectSession) UserID() ref.UserID { return s.userID }

// CloseIdleConnections drops the transport's pooled connections. Call
// after a sync error to force a fresh TCP connection.
func (s *DirectSession) CloseIdleConnections() {
	s.client.CloseIdleConnections()
}

// Close releases the access token memory (zeros, unlocks, unmaps).
// Idempotent.
func (s *DirectSession) Close() error {
	if s.accessToken != nil {
		return s.accessToken.Close()
	}
	return nil
}

// WhoAmI validates the access token and returns the user ID.
func (s *DirectSession) WhoAmI(ctx context.Context) (ref.UserID, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/account/whoami", s.accessToken, nil)
	if err != nil {
		return ref.UserID{}, fmt.Errorf("messaging: whoami: %w", err)
	}

	var response WhoAmIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.UserID{}, fmt.Errorf("messaging: parsing whoami response: %w", err)
	}
	return response.UserID, nil
}

// Sync performs an incremental sync with the homeserver.
func (s *DirectSession) Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error) {
	query := url.Values{}
	if options.Since != "" {
		query.Set("since", options.Since)
	}
	if options.SetTimeout {
		query.Set("timeout", strconv.Itoa(options.Timeout))
	}
	if options.Filter != "" {
		query.Set("filter", options.Filter)
	}

	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/sync", s.accessToken, nil, query)
	if err != nil {
		return nil, fmt.Errorf("messaging: sync: %w", err)
	}

	var response SyncResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: parsing sync response: %w", err)
	}
	return &response, nil
}

// SendMessage sends an m.room.message event using Matrix's idempotent
// PUT with a transaction ID.
func (s *DirectSession) SendMessage(ctx context.Context, roomID ref.RoomID, content MessageContent) (ref.EventID, error) {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/send/m.room.message/%s",
		url.PathEscape(roomID.String()),
		url.PathEscape(s.nextTransactionID()),
	)

	body, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, content)
	if err != nil {
		return "", fmt.Errorf("messaging: send to %q: %w", roomID, err)
	}

	var response SendEventResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("messaging: parsing send response: %w", err)
	}
	return response.EventID, nil
}

// ResolveAlias resolves a room alias to a room ID.
func (s *DirectSession) ResolveAlias(ctx context.Context, alias string) (ref.RoomID, error) {
	path := "/_matrix/client/v3/directory/room/" + url.PathEscape(alias)
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil)
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: resolve alias %q: %w", alias, err)
	}

	var response ResolveAliasResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: parsing resolve alias response: %w", err)
	}
	return response.RoomID, nil
}

// JoinRoom joins a room by ID. Returns the room ID.
func (s *DirectSession) JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error) {
	path := "/_matrix/client/v3/join/" + url.PathEscape(roomID.String())
	body, err := s.client.doRequest(ctx, http.MethodPost, path, s.accessToken, struct{}{})
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: join room %s: %w", roomID, err)
	}

	var response struct {
		RoomID ref.RoomID `json:"room_id"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: parsing join response: %w", err)
	}
	return response.RoomID, nil
}

// CreateRoom creates a new Matrix room.
func (s *DirectSession) CreateRoom(ctx context.Context, request CreateRoomRequest) (*CreateRoomResponse, error) {
	body, err := s.client.doRequest(ctx, http.MethodPost, "/_matrix/client/v3/createRoom", s.accessToken, request)
	if err != nil {
		return nil, fmt.Errorf("messaging: create room: %w", err)
	}

	var response CreateRoomResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: parsing createRoom response: %w", err)
	}

	s.client.logger.Info("created matrix room",
		"room_id", response.RoomID,
		"name", request.Name,
	)
	return &response, nil
}

// GetEvent fetches a single event by ID.
func (s *DirectSession) GetEvent(ctx context.Context, roomID ref.RoomID, eventID ref.EventID) (*Event, error) {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/event/%s",
		url.PathEscape(roomID.String()),
		url.PathEscape(eventID.String()),
	)
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get event %s in %q: %w", eventID, roomID, err)
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("messaging: parsing event response: %w", err)
	}
	return &event, nil
}

// RoomName fetches the room's m.room.name state. A room with no name
// event yields "" rather than an error.
func (s *DirectSession) RoomName(ctx context.Context, roomID ref.RoomID) (string, error) {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/state/m.room.name/", url.PathEscape(roomID.String()))
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil)
	if err != nil {
		if IsMatrixError(err, ErrCodeNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("messaging: get room name for %q: %w", roomID, err)
	}

	var content RoomNameContent
	if err := json.Unmarshal(body, &content); err != nil {
		return "", fmt.Errorf("messaging: parsing room name response: %w", err)
	}
	return content.Name, nil
}

// DisplayName fetches a user's profile display name. A user with no
// display name yields "" rather than an error.
func (s *DirectSession) DisplayName(ctx context.Context, userID ref.UserID) (string, error) {
	path := "/_matrix/client/v3/profile/" + url.PathEscape(userID.String()) + "/displayname"
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil)
	if err != nil {
		if IsMatrixError(err, ErrCodeNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("messaging: get display name for %q: %w", userID, err)
	}

	var response DisplayNameResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("messaging: parsing display name response: %w", err)
	}
	return response.DisplayName, nil
}

// nextTransactionID generates a unique transaction ID for idempotent
// event sending. The timestamp keeps IDs unique across restarts.
func (s *DirectSession) nextTransactionID() string {
	counter := s.transactionCounter.Add(1)
	return fmt.Sprintf("gather-%d-%d", time.Now().UnixMilli(), counter)
}

// MessageSyncFilter is the inline /sync filter the daemon uses: only
// m.room.message timeline events, no state, presence, or account data.
func MessageSyncFilter() string {
	top := map[string]any{
		"room": map[string]any{
			"timeline": map[string]any{
				"types": []string{"m.room.message"},
			},
			"state": map[string]any{
				"types": []string{},
			},
		},
		"presence":     map[string]any{"types": []string{}},
		"account_data": map[string]any{"types": []string{}},
	}
	data, _ := json.Marshal(top)
	return string(data)
}
