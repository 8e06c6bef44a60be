// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package calendar pushes event records to an external calendar. The
// push is best effort: command handlers commit the local mutation
// first and treat a missing-configuration failure from the bridge as
// "the feature is off", never as a command failure.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bureau-foundation/gather/lib/event"
)

// Sentinel failures for Create. Each produces a distinct user-visible
// reply, so they must stay distinguishable with errors.Is.
var (
	// ErrConfigMissing means no calendar backend is configured.
	// Callers swallow this on Update (the feature is optional).
	ErrConfigMissing = errors.New("calendar: not configured")

	// ErrDateTimeMissing means the event has no time of day, so no
	// calendar entry can be placed.
	ErrDateTimeMissing = errors.New("calendar: event has no date and time")

	// ErrDurationMissing means the event has no duration, so the
	// entry's end time cannot be computed.
	ErrDurationMissing = errors.New("calendar: event has no duration")
)

// Bridge is the calendar sync boundary consumed by command handlers.
type Bridge interface {
	// Create places a new calendar entry for the event and returns
	// the reference to store on it. Fails with ErrConfigMissing,
	// ErrDateTimeMissing, or ErrDurationMissing.
	Create(ctx context.Context, ev *event.Event, id event.ThreadID) (event.CalendarRef, error)

	// Update pushes the event's current state to its existing
	// calendar entry. Fails with ErrConfigMissing when no backend is
	// configured; other failures are backend-specific.
	Update(ctx context.Context, ev *event.Event, id event.ThreadID) error
}

// Disabled returns a Bridge that reports ErrConfigMissing for every
// operation. Used when the configuration has no calendar section.
func Disabled() Bridge { return disabledBridge{} }

type disabledBridge struct{}

func (disabledBridge) Create(context.Context, *event.Event, event.ThreadID) (event.CalendarRef, error) {
	return event.CalendarRef{}, ErrConfigMissing
}

func (disabledBridge) Update(context.Context, *event.Event, event.ThreadID) error {
	return ErrConfigMissing
}

// eventTimes computes the entry's start and end instants from the
// event's date, time, and duration in the given location.
func eventTimes(ev *event.Event, loc *time.Location) (start, end time.Time, err error) {
	if ev.Date == "" || ev.Time == "" {
		return time.Time{}, time.Time{}, ErrDateTimeMissing
	}
	if ev.Duration <= 0 {
		return time.Time{}, time.Time{}, ErrDurationMissing
	}
	start, err = time.ParseInLocation(event.DateLayout+" "+event.TimeLayout, ev.Date+" "+ev.Time, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("calendar: event date/time %q %q: %w", ev.Date, ev.Time, err)
	}
	end = start.Add(time.Duration(ev.Duration) * time.Second)
	return start, end, nil
}
