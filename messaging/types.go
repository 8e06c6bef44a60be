// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"github.com/bureau-foundation/gather/lib/ref"
)

// MessageContent is the content body of an m.room.message event.
// Threads are first-class: set RelatesTo to place the message inside a
// thread.
type MessageContent struct {
	MsgType   string     `json:"msgtype"`
	Body      string     `json:"body"`
	RelatesTo *RelatesTo `json:"m.relates_to,omitempty"`
}

// RelatesTo expresses relationships between events. For threads,
// RelType is "m.thread" and EventID is the thread root.
type RelatesTo struct {
	RelType       string      `json:"rel_type"`
	EventID       ref.EventID `json:"event_id"`
	IsFallingBack bool        `json:"is_falling_back,omitempty"`
	InReplyTo     *InReplyTo  `json:"m.in_reply_to,omitempty"`
}

// InReplyTo references the event being replied to within a thread.
type InReplyTo struct {
	EventID ref.EventID `json:"event_id"`
}

// NewTextMessage creates a plain text message with no thread context.
func NewTextMessage(body string) MessageContent {
	return MessageContent{
		MsgType: "m.text",
		Body:    body,
	}
}

// NewThreadReply creates a message that replies within an existing
// thread. threadRootID is the event ID of the thread's root message.
func NewThreadReply(threadRootID ref.EventID, body string) MessageContent {
	return MessageContent{
		MsgType: "m.text",
		Body:    body,
		RelatesTo: &RelatesTo{
			RelType:       "m.thread",
			EventID:       threadRootID,
			IsFallingBack: true,
			InReplyTo: &InReplyTo{
				EventID: threadRootID,
			},
		},
	}
}

// Event is a Matrix event as delivered by the server.
type Event struct {
	EventID        ref.EventID    `json:"event_id"`
	Type           string         `json:"type"`
	Sender         ref.UserID     `json:"sender"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        map[string]any `json:"content"`
	RoomID         ref.RoomID     `json:"room_id,omitempty"`
	Unsigned       *EventUnsigned `json:"unsigned,omitempty"`
}

// EventUnsigned holds optional unsigned data attached to events.
type EventUnsigned struct {
	Age           int64  `json:"age,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// ThreadRoot returns the thread-root event ID when the event carries an
// m.thread relation, or "" for a main-timeline event.
func (e Event) ThreadRoot() ref.EventID {
	relates, ok := e.Content["m.relates_to"].(map[string]any)
	if !ok {
		return ""
	}
	if relType, _ := relates["rel_type"].(string); relType != "m.thread" {
		return ""
	}
	root, _ := relates["event_id"].(string)
	return ref.EventID(root)
}

// TextBody returns the event's message body when it is an m.text
// message, or "" otherwise.
func (e Event) TextBody() string {
	if msgtype, _ := e.Content["msgtype"].(string); msgtype != "m.text" {
		return ""
	}
	body, _ := e.Content["body"].(string)
	return body
}

// SyncOptions controls the /sync endpoint.
type SyncOptions struct {
	// Since is the next_batch token from the previous sync; empty for
	// an initial sync.
	Since string
	// Timeout is the server-side long-poll hold in milliseconds.
	// SetTimeout distinguishes "not set" from an explicit zero.
	Timeout    int
	SetTimeout bool
	// Filter is a filter ID or inline JSON filter.
	Filter string
}

// SyncResponse is the top-level /sync response.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection groups per-room sync data by membership state. Map keys
// use ref.RoomID's TextUnmarshaler for validation at decode time.
type RoomsSection struct {
	Join   map[ref.RoomID]JoinedRoom  `json:"join,omitempty"`
	Invite map[ref.RoomID]InvitedRoom `json:"invite,omitempty"`
}

// JoinedRoom is sync data for a joined room.
type JoinedRoom struct {
	Timeline TimelineSection `json:"timeline"`
}

// InvitedRoom is sync data for a room the user was invited to.
type InvitedRoom struct {
	InviteState StateSection `json:"invite_state"`
}

// TimelineSection holds timeline events from a sync response.
type TimelineSection struct {
	Events    []Event `json:"events"`
	PrevBatch string  `json:"prev_batch"`
	Limited   bool    `json:"limited"`
}

// StateSection holds state events from a sync response.
type StateSection struct {
	Events []Event `json:"events"`
}

// CreateRoomRequest holds the parameters the daemon uses when opening a
// direct-message room for private replies.
type CreateRoomRequest struct {
	Name       string   `json:"name,omitempty"`
	Preset     string   `json:"preset,omitempty"` // "private_chat", "trusted_private_chat"
	Invite     []string `json:"invite,omitempty"`
	IsDirect   bool     `json:"is_direct,omitempty"`
	Visibility string   `json:"visibility,omitempty"`
}

// CreateRoomResponse is returned by CreateRoom.
type CreateRoomResponse struct {
	RoomID ref.RoomID `json:"room_id"`
}

// SendEventResponse is returned by SendMessage.
type SendEventResponse struct {
	EventID ref.EventID `json:"event_id"`
}

// WhoAmIResponse is returned by WhoAmI.
type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id,omitempty"`
}

// ResolveAliasResponse is returned by ResolveAlias.
type ResolveAliasResponse struct {
	RoomID  ref.RoomID `json:"room_id"`
	Servers []string   `json:"servers"`
}

// DisplayNameResponse is returned by the profile displayname endpoint.
type DisplayNameResponse struct {
	DisplayName string `json:"displayname"`
}

// RoomNameContent is the content of an m.room.name state event.
type RoomNameContent struct {
	Name string `json:"name"`
}
