// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rsvp

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/bureau-foundation/gather/lib/event"
)

// handlerFunc runs a matched command. A returned *CommandError is a
// clean rejection (reply, no mutation); any other error is an
// unexpected collaborator failure.
type handlerFunc func(ctx context.Context, inv *invocation) ([]Message, error)

// command is one entry in the grammar: a pattern, an existence
// precondition, and a handler.
type command struct {
	name       string
	pattern    *regexp.Regexp
	needsEvent bool
	run        handlerFunc
}

// invocation is the resolved context a handler runs with.
type invocation struct {
	req  Request
	args map[string]string

	// id is the thread key the command addresses.
	id event.ThreadID

	// ev is the loaded event for needsEvent commands. Handlers
	// mutate it (it is a private copy per Store.Get) and commit with
	// Store.Put.
	ev *event.Event
}

// arg returns a named capture group's text, "" when the group did not
// participate in the match.
func (inv *invocation) arg(name string) string { return inv.args[name] }

// buildCommands compiles the grammar. THE ORDER IS LOAD-BEARING:
// patterns are tried first to last and dispatch commits to the first
// match. The confirm matcher accepts any text containing a standalone
// yes/no/maybe anywhere — every more specific command sits above it so
// it cannot shadow them ("set description maybe pizza?" must hit set
// description, not confirm).
func (d *Dispatcher) buildCommands() []command {
	compile := func(body string) *regexp.Regexp {
		return regexp.MustCompile(`(?is)^` + regexp.QuoteMeta(d.prefix) + ` ` + body)
	}
	return []command{
		{name: "init", pattern: compile(`init$`), run: d.handleInit},
		{name: "quickinit", pattern: compile(`quickinit (?P<date>[^|]*)\|(?P<time>[^|]*)\|(?P<duration>[^|]*)\|(?P<place>[^|]*)\|(?P<description>.*)$`), run: d.handleQuickInit},
		{name: "set duration", pattern: compile(`set duration (?P<duration>.+)$`), needsEvent: true, run: d.handleSetDuration},
		{name: "add to calendar", pattern: compile(`add to calendar$`), needsEvent: true, run: d.handleAddToCalendar},
		{name: "set limit", pattern: compile(`set limit (?P<limit>\d+)$`), needsEvent: true, run: d.handleSetLimit},
		{name: "set date", pattern: compile(`set date (?P<month>\d{1,2})/(?P<day>\d{1,2})/(?P<year>\d{4})$`), needsEvent: true, run: d.handleSetDate},
		{name: "set time", pattern: compile(`set time (?P<hours>\d{1,2}):(?P<minutes>\d{1,2})$`), needsEvent: true, run: d.handleSetTime},
		{name: "set time allday", pattern: compile(`set time allday$`), needsEvent: true, run: d.handleSetTimeAllDay},
		{name: "set attribute", pattern: compile(`set (?P<attribute>place|description) (?P<value>.+)$`), needsEvent: true, run: d.handleSetStringAttribute},
		{name: "cancel", pattern: compile(`cancel$`), needsEvent: true, run: d.handleCancel},
		{name: "move", pattern: compile(`move (?P<destination>.+)$`), needsEvent: true, run: d.handleMove},
		{name: "ping", pattern: compile(`ping(?: (?P<message>.+))?$`), needsEvent: true, run: d.handlePing},
		{name: "credits", pattern: compile(`credits$`), run: d.handleCredits},
		{name: "summary", pattern: compile(`(?:summary|status)$`), needsEvent: true, run: d.handleSummary},
		{name: "help", pattern: compile(`help$`), run: d.handleHelp},
		{name: "confirm", pattern: compile(`.*?\b(?P<decision>yes|no|maybe)\b`), needsEvent: true, run: d.handleConfirm},
	}
}

// Dispatch interprets one command. It returns the ordered replies to
// deliver; an empty slice means the text matched nothing and is
// silently ignored. Dispatch never panics on user input and never
// returns an error — failures become reply text, per the command
// protocol.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) []Message {
	for i := range d.commands {
		cmd := &d.commands[i]
		match := cmd.pattern.FindStringSubmatch(req.Text)
		if match == nil {
			continue
		}
		args := make(map[string]string)
		for groupIndex, name := range cmd.pattern.SubexpNames() {
			if name != "" && match[groupIndex] != "" {
				args[name] = match[groupIndex]
			}
		}
		return d.invoke(ctx, cmd, req, args)
	}
	return nil
}

// invoke runs a matched command under the per-key lock and translates
// its outcome into reply messages.
//
// The move command is the exception to the locking scheme: it touches
// two keys and acquires its own pair lock after resolving the
// destination, so it is NOT run under the single-key lock here.
func (d *Dispatcher) invoke(ctx context.Context, cmd *command, req Request, args map[string]string) []Message {
	inv := &invocation{req: req, args: args, id: req.Thread}

	if cmd.name != "move" {
		unlock := d.store.Lock(inv.id)
		defer unlock()
	}

	if cmd.needsEvent {
		ev, err := d.store.Get(ctx, inv.id)
		if err != nil {
			return d.collaboratorFailure(cmd, inv, err)
		}
		if ev == nil {
			return []Message{{Kind: Stream, Body: d.replyNotAnEvent()}}
		}
		inv.ev = ev
	}

	messages, err := cmd.run(ctx, inv)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			return []Message{{Kind: Stream, Body: cmdErr.Reply}}
		}
		return d.collaboratorFailure(cmd, inv, err)
	}
	return messages
}

// collaboratorFailure reports an unexpected failure to the user
// without crashing the dispatcher. Any store commit made before the
// failure stands; there is no rollback path.
func (d *Dispatcher) collaboratorFailure(cmd *command, inv *invocation, err error) []Message {
	d.logger.Error("command failed",
		"command", cmd.name,
		"thread", inv.id.Key(),
		"sender", inv.req.Sender,
		"error", err,
	)
	return []Message{{
		Kind: Stream,
		Body: fmt.Sprintf("Oops! Something went wrong handling `%s`: %v", cmd.name, err),
	}}
}
