// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rsvp

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bureau-foundation/gather/lib/calendar"
	"github.com/bureau-foundation/gather/lib/duration"
	"github.com/bureau-foundation/gather/lib/event"
)

// stream wraps a single broadcast reply.
func stream(body string) []Message {
	return []Message{{Kind: Stream, Body: body}}
}

// today returns the injected clock's date at midnight, the reference
// point for "no events in the past".
func (d *Dispatcher) today() time.Time {
	now := d.clock.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// syncAfterMutation pushes an already-committed change to the calendar
// bridge when the event is linked to a calendar entry. Missing
// configuration is swallowed — the feature is optional and the user
// did not ask for a sync. Any other failure is reported as a warning
// message; the local commit is never rolled back.
func (d *Dispatcher) syncAfterMutation(ctx context.Context, inv *invocation) *Message {
	if inv.ev.Calendar == nil {
		return nil
	}
	err := d.bridge.Update(ctx, inv.ev, inv.id)
	if err == nil || errors.Is(err, calendar.ErrConfigMissing) {
		return nil
	}
	d.logger.Warn("calendar update failed",
		"thread", inv.id.Key(),
		"error", err,
	)
	return &Message{Kind: Stream, Body: replyCalendarUpdateFailed(err)}
}

// commit writes the mutated event back and assembles the reply plus
// any sync warning.
func (d *Dispatcher) commit(ctx context.Context, inv *invocation, reply string) ([]Message, error) {
	if err := d.store.Put(ctx, inv.id, inv.ev); err != nil {
		return nil, err
	}
	messages := stream(reply)
	if warning := d.syncAfterMutation(ctx, inv); warning != nil {
		messages = append(messages, *warning)
	}
	return messages, nil
}

func (d *Dispatcher) handleInit(ctx context.Context, inv *invocation) ([]Message, error) {
	existing, err := d.store.Get(ctx, inv.id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, stateConflict(replyAlreadyAnEvent)
	}
	ev := event.New(inv.req.Subject, inv.req.Sender, d.clock.Now())
	if err := d.store.Put(ctx, inv.id, ev); err != nil {
		return nil, err
	}
	return stream(d.replyInitSuccessful()), nil
}

// quickInitDate and quickInitTime parse the optional date and time
// fields of a quickinit argument string with the same validation as
// the corresponding set commands.
var quickInitDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
var quickInitTime = regexp.MustCompile(`^(\d{1,2}):(\d{1,2})$`)

func (d *Dispatcher) handleQuickInit(ctx context.Context, inv *invocation) ([]Message, error) {
	existing, err := d.store.Get(ctx, inv.id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, stateConflict(replyAlreadyAnEvent)
	}

	ev := event.New(inv.req.Subject, inv.req.Sender, d.clock.Now())
	ev.Place = strings.TrimSpace(inv.arg("place"))
	ev.Description = strings.TrimSpace(inv.arg("description"))

	if text := strings.TrimSpace(inv.arg("date")); text != "" {
		groups := quickInitDate.FindStringSubmatch(text)
		if groups == nil {
			return nil, invalidInput(fmt.Sprintf("Oops! **%s** is not a valid date (use mm/dd/yyyy)!", text))
		}
		month, _ := strconv.Atoi(groups[1])
		day, _ := strconv.Atoi(groups[2])
		year, _ := strconv.Atoi(groups[3])
		date, err := event.ParseDate(month, day, year)
		if err != nil {
			return nil, invalidInput(replyDateNotValid(month, day, year))
		}
		ev.Date = date
	}
	if text := strings.TrimSpace(inv.arg("time")); text != "" {
		groups := quickInitTime.FindStringSubmatch(text)
		if groups == nil {
			return nil, invalidInput(fmt.Sprintf("Oops! **%s** is not a valid time (use HH:MM)!", text))
		}
		hours, _ := strconv.Atoi(groups[1])
		minutes, _ := strconv.Atoi(groups[2])
		clock, err := event.ParseTime(hours, minutes)
		if err != nil {
			return nil, invalidInput(replyTimeNotValid(hours, minutes))
		}
		ev.Time = clock
	}
	if text := strings.TrimSpace(inv.arg("duration")); text != "" {
		seconds, err := duration.Parse(text)
		if err != nil {
			return nil, invalidInput(replyDurationNotValid(text))
		}
		ev.Duration = seconds
	}

	if err := d.store.Put(ctx, inv.id, ev); err != nil {
		return nil, err
	}
	return stream(d.replyInitSuccessful()), nil
}

func (d *Dispatcher) handleSetDuration(ctx context.Context, inv *invocation) ([]Message, error) {
	text := strings.TrimSpace(inv.arg("duration"))
	seconds, err := duration.Parse(text)
	if err != nil {
		return nil, invalidInput(replyDurationNotValid(text))
	}
	inv.ev.Duration = seconds
	return d.commit(ctx, inv, replyDurationSet(seconds))
}

func (d *Dispatcher) handleSetDate(ctx context.Context, inv *invocation) ([]Message, error) {
	month, _ := strconv.Atoi(inv.arg("month"))
	day, _ := strconv.Atoi(inv.arg("day"))
	year, _ := strconv.Atoi(inv.arg("year"))

	date, err := event.ParseDate(month, day, year)
	if err != nil {
		return nil, invalidInput(replyDateNotValid(month, day, year))
	}
	value, err := event.DateValue(date)
	if err != nil {
		return nil, err
	}
	if value.Before(d.today()) {
		return nil, invalidInput(replyDateNotValid(month, day, year))
	}
	inv.ev.Date = date
	return d.commit(ctx, inv, replyDateSet(date))
}

func (d *Dispatcher) handleSetTime(ctx context.Context, inv *invocation) ([]Message, error) {
	hours, _ := strconv.Atoi(inv.arg("hours"))
	minutes, _ := strconv.Atoi(inv.arg("minutes"))

	clock, err := event.ParseTime(hours, minutes)
	if err != nil {
		return nil, invalidInput(replyTimeNotValid(hours, minutes))
	}
	inv.ev.Time = clock
	return d.commit(ctx, inv, replyTimeSet(clock))
}

func (d *Dispatcher) handleSetTimeAllDay(ctx context.Context, inv *invocation) ([]Message, error) {
	inv.ev.Time = ""
	return d.commit(ctx, inv, replyTimeSetAllDay)
}

func (d *Dispatcher) handleSetLimit(ctx context.Context, inv *invocation) ([]Message, error) {
	limit, err := strconv.Atoi(inv.arg("limit"))
	if err != nil {
		// The pattern only matches digits; overflow is the one way
		// to get here.
		return nil, invalidInput(fmt.Sprintf("Oops! **%s** is not a usable limit!", inv.arg("limit")))
	}
	inv.ev.Limit = limit
	// Capacity is calendar-irrelevant, so no sync.
	if err := d.store.Put(ctx, inv.id, inv.ev); err != nil {
		return nil, err
	}
	return stream(replyLimitSet(limit)), nil
}

func (d *Dispatcher) handleSetStringAttribute(ctx context.Context, inv *invocation) ([]Message, error) {
	attribute := strings.ToLower(inv.arg("attribute"))
	value := strings.TrimSpace(inv.arg("value"))
	switch attribute {
	case "place":
		inv.ev.Place = value
	case "description":
		inv.ev.Description = value
	}
	return d.commit(ctx, inv, replyStringAttrSet(attribute, value))
}

func (d *Dispatcher) handleAddToCalendar(ctx context.Context, inv *invocation) ([]Message, error) {
	ref, err := d.bridge.Create(ctx, inv.ev, inv.id)
	switch {
	case errors.Is(err, calendar.ErrConfigMissing):
		return stream(replyCalendarNotConfigured), nil
	case errors.Is(err, calendar.ErrDateTimeMissing):
		return stream(replyCalendarNeedsDateTime), nil
	case errors.Is(err, calendar.ErrDurationMissing):
		return stream(replyCalendarNeedsDuration), nil
	case err != nil:
		return nil, err
	}
	inv.ev.Calendar = &ref
	if err := d.store.Put(ctx, inv.id, inv.ev); err != nil {
		return nil, err
	}
	return stream(replyAddedToCalendar(ref.Link)), nil
}

func (d *Dispatcher) handleConfirm(ctx context.Context, inv *invocation) ([]Message, error) {
	decision := event.Decision(strings.ToLower(inv.arg("decision")))
	if err := inv.ev.Confirm(inv.req.Sender, decision); err != nil {
		if errors.Is(err, event.ErrCapacityExceeded) {
			return nil, &CommandError{Kind: CapacityExceeded, Reply: replyLimitReached}
		}
		return nil, err
	}

	displayName := d.directory.Resolve(ctx, inv.req.Sender)
	body := confirmReply(string(decision), displayName)
	if d.vips[displayName] {
		switch {
		case decision == event.Yes && len(d.vipYesPrefixes) > 0:
			body = d.vipYesPrefixes[d.pick(len(d.vipYesPrefixes))] + body
		case decision == event.No && len(d.vipNoSuffixes) > 0:
			body = body + d.vipNoSuffixes[d.pick(len(d.vipNoSuffixes))]
		}
	}
	return d.commit(ctx, inv, body)
}

func (d *Dispatcher) handleCancel(ctx context.Context, inv *invocation) ([]Message, error) {
	if inv.req.Sender != inv.ev.Creator {
		return nil, unauthorized(replyNotCreator)
	}
	if err := d.store.Delete(ctx, inv.id); err != nil {
		return nil, err
	}
	return stream(replyEventCanceled), nil
}

// handleMove relocates the event under a new key. It runs WITHOUT the
// dispatcher's single-key lock (see invoke): the destination is only
// known after resolving the address, so the handler takes the pair
// lock itself and re-validates both keys under it.
func (d *Dispatcher) handleMove(ctx context.Context, inv *invocation) ([]Message, error) {
	destination := strings.TrimSpace(inv.arg("destination"))
	if destination == "" {
		return nil, invalidInput(replyMissingMoveDestination)
	}
	if inv.req.Sender != inv.ev.Creator {
		return nil, unauthorized(replyNotCreator)
	}

	dest, title, err := d.router.Resolve(ctx, destination)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			return nil, cmdErr
		}
		d.logger.Warn("move destination did not resolve",
			"destination", destination,
			"error", err,
		)
		return nil, invalidInput(replyBadMoveDestination(destination))
	}
	if dest == inv.id {
		// Moving onto itself; also keeps LockPair's keys distinct.
		return nil, stateConflict(replyMoveAlreadyAnEvent(dest.Key()))
	}

	unlock := d.store.LockPair(inv.id, dest)
	defer unlock()

	// Re-read both keys under the lock: the precondition check in
	// invoke ran before we held it.
	ev, err := d.store.Get(ctx, inv.id)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, stateConflict(d.replyNotAnEvent())
	}
	occupant, err := d.store.Get(ctx, dest)
	if err != nil {
		return nil, err
	}
	if occupant != nil {
		return nil, stateConflict(replyMoveAlreadyAnEvent(dest.Key()))
	}

	ev.Name = title
	if err := d.store.Put(ctx, dest, ev); err != nil {
		return nil, err
	}
	if err := d.store.Delete(ctx, inv.id); err != nil {
		return nil, err
	}

	return []Message{
		{Kind: Stream, Body: replyEventMoved(dest.Key(), destination)},
		{Kind: Stream, Body: d.replyInitSuccessful(), To: dest},
	}, nil
}
