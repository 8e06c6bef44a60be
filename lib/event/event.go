// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package event defines the persistent record of one scheduled
// gathering and the attendance-confirmation algorithm. The package is
// transport-agnostic: attendee identities are opaque strings (Matrix
// user IDs in production, short names in tests) and the composite key
// type carries no Matrix semantics.
package event

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// DateLayout is the canonical storage and display form of an event
// date: mm/dd/yyyy, the format users type after "set date".
const DateLayout = "01/02/2006"

// TimeLayout is the canonical storage and display form of an event
// time-of-day. An empty Time field means "all day".
const TimeLayout = "15:04"

// ThreadID is the composite identifier an event is keyed by: the
// conversation container (a room) and the thread within it. Thread may
// be empty, addressing the container's main timeline.
type ThreadID struct {
	Container string
	Thread    string
}

// Key returns the store key form, "container/thread".
func (t ThreadID) Key() string { return t.Container + "/" + t.Thread }

func (t ThreadID) String() string { return t.Key() }

// IsZero reports whether the ThreadID is entirely empty.
func (t ThreadID) IsZero() bool { return t.Container == "" && t.Thread == "" }

// CalendarRef is the opaque handle to a synced external calendar
// entry. It is only ever set from a successful bridge create call.
type CalendarRef struct {
	ID   string `cbor:"id"`
	Link string `cbor:"link"`
}

// Decision is a participant's attendance choice.
type Decision string

const (
	Yes   Decision = "yes"
	No    Decision = "no"
	Maybe Decision = "maybe"
)

// ErrCapacityExceeded is returned by Confirm when a yes decision would
// push the yes list past a nonzero limit. The event is untouched when
// this is returned.
var ErrCapacityExceeded = errors.New("event: attendance limit reached")

// Event is one scheduled gathering tied to a conversation thread.
//
// The three attendance lists are set-like with preserved insertion
// order: an identity appears in at most one of them, and Confirm is
// the only mutation path that touches them.
type Event struct {
	// Name is the display title, set at creation from the thread's
	// subject and renamed when the event moves.
	Name string `cbor:"name"`

	// Description and Place are optional free text.
	Description string `cbor:"description,omitempty"`
	Place       string `cbor:"place,omitempty"`

	// Creator is the identity that initialized the event. Immutable;
	// the sole authority for cancel and move.
	Creator string `cbor:"creator"`

	// Date is the event's calendar date in DateLayout form. Defaults
	// to the creation date.
	Date string `cbor:"date"`

	// Time is the optional time-of-day in TimeLayout form. Empty
	// means all day.
	Time string `cbor:"time,omitempty"`

	// Duration is the optional event length in whole seconds.
	Duration int `cbor:"duration,omitempty"`

	// Limit caps the yes list. Zero means unlimited.
	Limit int `cbor:"limit,omitempty"`

	// Calendar is set only after a successful sync to the external
	// calendar.
	Calendar *CalendarRef `cbor:"calendar,omitempty"`

	// Attendance lists, insertion-ordered.
	Yes   []string `cbor:"yes"`
	No    []string `cbor:"no"`
	Maybe []string `cbor:"maybe"`
}

// New creates an event at its initial state: named after the thread
// subject, dated today, everything else unset.
func New(name, creator string, today time.Time) *Event {
	return &Event{
		Name:    name,
		Creator: creator,
		Date:    today.Format(DateLayout),
		Yes:     []string{},
		No:      []string{},
		Maybe:   []string{},
	}
}

// Clone returns a deep copy. Handlers mutate a clone so that a
// rejected command leaves the stored event untouched.
func (e *Event) Clone() *Event {
	clone := *e
	clone.Yes = slices.Clone(e.Yes)
	clone.No = slices.Clone(e.No)
	clone.Maybe = slices.Clone(e.Maybe)
	if e.Calendar != nil {
		ref := *e.Calendar
		clone.Calendar = &ref
	}
	return &clone
}

// list returns the attendance list for a decision.
func (e *Event) list(d Decision) *[]string {
	switch d {
	case Yes:
		return &e.Yes
	case No:
		return &e.No
	case Maybe:
		return &e.Maybe
	}
	panic(fmt.Sprintf("event: unknown decision %q", d))
}

// Attending reports which list, if any, currently holds the identity.
func (e *Event) Attending(identity string) (Decision, bool) {
	for _, d := range []Decision{Yes, No, Maybe} {
		if slices.Contains(*e.list(d), identity) {
			return d, true
		}
	}
	return "", false
}

// SpotsLeft returns the remaining yes capacity. Meaningless when
// Limit is zero (unlimited); callers check Limit first.
func (e *Event) SpotsLeft() int { return e.Limit - len(e.Yes) }

// Confirm applies an attendance decision. The identity is moved out of
// the other two lists and appended to the decision's list if not
// already there (re-confirming is a no-op). A yes decision against a
// full nonzero limit returns ErrCapacityExceeded with the event
// completely unmutated — the capacity check runs before anything else
// so rejection is atomic.
func (e *Event) Confirm(identity string, d Decision) error {
	target := e.list(d)
	if d == Yes && e.Limit > 0 && !slices.Contains(e.Yes, identity) && e.SpotsLeft() < 1 {
		return ErrCapacityExceeded
	}
	for _, other := range []Decision{Yes, No, Maybe} {
		if other == d {
			continue
		}
		list := e.list(other)
		*list = slices.DeleteFunc(*list, func(member string) bool {
			return member == identity
		})
	}
	if !slices.Contains(*target, identity) {
		*target = append(*target, identity)
	}
	return nil
}

// ParseDate validates a month/day/year triple as a real calendar date
// and returns the canonical DateLayout string.
func ParseDate(month, day, year int) (string, error) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return "", fmt.Errorf("event: %02d/%02d/%04d is not a real date", month, day, year)
	}
	return t.Format(DateLayout), nil
}

// DateValue parses a stored DateLayout string back into a time.Time
// at midnight UTC.
func DateValue(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("event: stored date %q: %w", date, err)
	}
	return t, nil
}

// ParseTime validates an hour/minute pair and returns the canonical
// TimeLayout string.
func ParseTime(hours, minutes int) (string, error) {
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return "", fmt.Errorf("event: %02d:%02d is not a valid time of day", hours, minutes)
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes), nil
}
