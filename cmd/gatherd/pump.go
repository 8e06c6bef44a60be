// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/gather/lib/clock"
	"github.com/bureau-foundation/gather/lib/event"
	"github.com/bureau-foundation/gather/lib/ref"
	"github.com/bureau-foundation/gather/lib/rsvp"
	"github.com/bureau-foundation/gather/messaging"
)

// longPollTimeout is the server-side /sync hold in milliseconds. The
// server returns immediately when new events arrive; 30 seconds matches
// the client-server spec recommendation.
const longPollTimeout = 30000

// syncRetryDelay is the pause after a failed /sync before the next
// attempt.
const syncRetryDelay = 5 * time.Second

type pumpOptions struct {
	Prefix string
	Clock  clock.Clock
	Logger *slog.Logger
}

// pump is the bridge between the Matrix sync stream and the dispatch
// engine: it turns timeline events into command requests and delivers
// the replies back to the right rooms and threads.
type pump struct {
	session    messaging.Session
	dispatcher *rsvp.Dispatcher
	prefix     string
	clock      clock.Clock
	logger     *slog.Logger

	// dmRooms caches the direct-message room per user for private
	// replies.
	dmMu    sync.Mutex
	dmRooms map[ref.UserID]ref.RoomID
}

func newPump(session messaging.Session, dispatcher *rsvp.Dispatcher, opts pumpOptions) *pump {
	p := &pump{
		session:    session,
		dispatcher: dispatcher,
		prefix:     opts.Prefix,
		clock:      opts.Clock,
		logger:     opts.Logger,
		dmRooms:    make(map[ref.UserID]ref.RoomID),
	}
	if p.prefix == "" {
		p.prefix = "rsvp"
	}
	if p.clock == nil {
		p.clock = clock.Real()
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p
}

// run drives the sync loop until ctx is cancelled. The initial sync
// establishes the stream position; its backlog is discarded so the bot
// never replays commands from before it started.
func (p *pump) run(ctx context.Context) error {
	filter := messaging.MessageSyncFilter()

	initial, err := p.session.Sync(ctx, messaging.SyncOptions{
		SetTimeout: true,
		Timeout:    0,
		Filter:     filter,
	})
	if err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}
	since := initial.NextBatch
	p.logger.Info("message pump started", "prefix", p.prefix)

	for {
		response, err := p.session.Sync(ctx, messaging.SyncOptions{
			Since:      since,
			SetTimeout: true,
			Timeout:    longPollTimeout,
			Filter:     filter,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Warn("sync failed, retrying", "error", err)
			// A TCP-level failure often leaves a poisoned pooled
			// connection; drop idle connections so the retry opens a
			// fresh socket.
			if closer, ok := p.session.(interface{ CloseIdleConnections() }); ok {
				closer.CloseIdleConnections()
			}
			select {
			case <-ctx.Done():
				return nil
			case <-p.clock.After(syncRetryDelay):
			}
			continue
		}
		since = response.NextBatch

		for roomID := range response.Rooms.Invite {
			if _, err := p.session.JoinRoom(ctx, roomID); err != nil {
				p.logger.Warn("joining invited room failed", "room_id", roomID, "error", err)
				continue
			}
			p.logger.Info("joined room on invite", "room_id", roomID)
		}

		for roomID, room := range response.Rooms.Join {
			for _, timelineEvent := range room.Timeline.Events {
				p.handleEvent(ctx, roomID, timelineEvent)
			}
		}
	}
}

// handleEvent dispatches one timeline event and delivers the replies.
func (p *pump) handleEvent(ctx context.Context, roomID ref.RoomID, timelineEvent messaging.Event) {
	if timelineEvent.Sender == p.session.UserID() {
		return
	}
	body := timelineEvent.TextBody()
	if body == "" {
		return
	}
	// Cheap pre-filter: the grammar only matches text starting with
	// the prefix word, so skip everything else before doing room
	// metadata lookups.
	if !strings.HasPrefix(strings.ToLower(body), strings.ToLower(p.prefix)+" ") {
		return
	}

	thread := event.ThreadID{
		Container: roomID.String(),
		Thread:    timelineEvent.ThreadRoot().String(),
	}
	request := rsvp.Request{
		Sender:  timelineEvent.Sender.String(),
		Thread:  thread,
		Subject: p.subject(ctx, roomID, timelineEvent.ThreadRoot()),
		Text:    body,
	}

	for _, message := range p.dispatcher.Dispatch(ctx, request) {
		if err := p.deliver(ctx, request, thread, message); err != nil {
			p.logger.Error("delivering reply failed",
				"room_id", roomID,
				"thread", thread.Key(),
				"error", err,
			)
		}
	}
}

// subject resolves the display title of a conversation: the first line
// of the thread root's text for threads, the room name otherwise. A
// thread root that cannot be read falls back to the room name; a
// nameless room falls back to its ID.
func (p *pump) subject(ctx context.Context, roomID ref.RoomID, threadRoot ref.EventID) string {
	if threadRoot != "" {
		root, err := p.session.GetEvent(ctx, roomID, threadRoot)
		if err != nil {
			p.logger.Warn("reading thread root failed", "event_id", threadRoot, "error", err)
		} else if text := root.TextBody(); text != "" {
			subject, _, _ := strings.Cut(text, "\n")
			return subject
		}
	}

	name, err := p.session.RoomName(ctx, roomID)
	if err != nil {
		p.logger.Warn("reading room name failed", "room_id", roomID, "error", err)
	}
	if name != "" {
		return name
	}
	return roomID.String()
}

// deliver sends one reply. Stream replies go to the thread the command
// came from, unless the message carries a destination override (the
// announcement in a relocated event's new home). Private replies go to
// a direct-message room with the sender.
func (p *pump) deliver(ctx context.Context, request rsvp.Request, origin event.ThreadID, message rsvp.Message) error {
	if message.Kind == rsvp.Private {
		return p.deliverPrivate(ctx, request.Sender, message.Body)
	}

	target := origin
	if !message.To.IsZero() {
		target = message.To
	}
	roomID, err := ref.ParseRoomID(target.Container)
	if err != nil {
		return fmt.Errorf("reply destination: %w", err)
	}

	content := messaging.NewTextMessage(message.Body)
	if target.Thread != "" {
		content = messaging.NewThreadReply(ref.EventID(target.Thread), message.Body)
	}
	_, err = p.session.SendMessage(ctx, roomID, content)
	return err
}

// deliverPrivate sends a reply to a direct-message room with the user,
// creating and caching the room on first use.
func (p *pump) deliverPrivate(ctx context.Context, sender, body string) error {
	userID, err := ref.ParseUserID(sender)
	if err != nil {
		return fmt.Errorf("private reply recipient: %w", err)
	}

	p.dmMu.Lock()
	roomID, ok := p.dmRooms[userID]
	p.dmMu.Unlock()

	if !ok {
		response, err := p.session.CreateRoom(ctx, messaging.CreateRoomRequest{
			Preset:   "trusted_private_chat",
			Invite:   []string{userID.String()},
			IsDirect: true,
		})
		if err != nil {
			return fmt.Errorf("creating direct-message room: %w", err)
		}
		roomID = response.RoomID
		p.dmMu.Lock()
		p.dmRooms[userID] = roomID
		p.dmMu.Unlock()
	}

	_, err = p.session.SendMessage(ctx, roomID, messaging.NewTextMessage(body))
	return err
}

// sessionDirectory resolves Matrix user IDs to display names through
// the profile API, with a cache. Unknown users and lookup failures
// resolve to the raw identity, matching the dispatch engine's default.
type sessionDirectory struct {
	session messaging.Session
	logger  *slog.Logger

	mu    sync.Mutex
	names map[string]string
}

func newSessionDirectory(session messaging.Session, logger *slog.Logger) *sessionDirectory {
	return &sessionDirectory{
		session: session,
		logger:  logger,
		names:   make(map[string]string),
	}
}

func (d *sessionDirectory) Resolve(ctx context.Context, identity string) string {
	d.mu.Lock()
	cached, ok := d.names[identity]
	d.mu.Unlock()
	if ok {
		return cached
	}

	name := identity
	if userID, err := ref.ParseUserID(identity); err == nil {
		displayName, err := d.session.DisplayName(ctx, userID)
		if err != nil {
			d.logger.Warn("display name lookup failed", "user_id", identity, "error", err)
		} else if displayName != "" {
			name = displayName
		}
	}

	d.mu.Lock()
	d.names[identity] = name
	d.mu.Unlock()
	return name
}

// sessionRouter resolves move destinations. An address may be a room
// alias ("#offsite:example.org") or a raw room ID; either way the
// destination is the room's main timeline, titled with the room name.
type sessionRouter struct {
	session messaging.Session
}

func (r *sessionRouter) Resolve(ctx context.Context, address string) (event.ThreadID, string, error) {
	var roomID ref.RoomID
	var err error
	switch {
	case strings.HasPrefix(address, "#"):
		roomID, err = r.session.ResolveAlias(ctx, address)
	case strings.HasPrefix(address, "!"):
		roomID, err = ref.ParseRoomID(address)
	default:
		err = fmt.Errorf("address %q is neither a room alias nor a room ID", address)
	}
	if err != nil {
		return event.ThreadID{}, "", err
	}

	// The bot must be in the destination room to announce there.
	if _, err := r.session.JoinRoom(ctx, roomID); err != nil {
		return event.ThreadID{}, "", fmt.Errorf("joining destination %s: %w", roomID, err)
	}

	title, err := r.session.RoomName(ctx, roomID)
	if err != nil {
		return event.ThreadID{}, "", err
	}
	if title == "" {
		title = address
	}
	return event.ThreadID{Container: roomID.String()}, title, nil
}
