// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/gather/lib/event"
)

func TestEventTimes(t *testing.T) {
	ev := event.New("ev", "@a:x", time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))
	ev.Time = "14:30"
	ev.Duration = 5400

	start, end, err := eventTimes(ev, time.UTC)
	if err != nil {
		t.Fatalf("eventTimes: %v", err)
	}
	wantStart := time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantStart.Add(90 * time.Minute)) {
		t.Errorf("end = %v", end)
	}
}

func TestEventTimesMissingTime(t *testing.T) {
	ev := event.New("ev", "@a:x", time.Now())
	ev.Duration = 3600
	if _, _, err := eventTimes(ev, time.UTC); !errors.Is(err, ErrDateTimeMissing) {
		t.Errorf("err = %v, want ErrDateTimeMissing", err)
	}
}

func TestEventTimesMissingDuration(t *testing.T) {
	ev := event.New("ev", "@a:x", time.Now())
	ev.Time = "14:30"
	if _, _, err := eventTimes(ev, time.UTC); !errors.Is(err, ErrDurationMissing) {
		t.Errorf("err = %v, want ErrDurationMissing", err)
	}
}

func TestEventTimesRespectsLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("zone database unavailable: %v", err)
	}
	ev := event.New("ev", "@a:x", time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))
	ev.Time = "14:30"
	ev.Duration = 3600

	start, _, err := eventTimes(ev, loc)
	if err != nil {
		t.Fatalf("eventTimes: %v", err)
	}
	if start.Location() != loc {
		t.Errorf("start location = %v, want %v", start.Location(), loc)
	}
}

func TestDisabledBridge(t *testing.T) {
	bridge := Disabled()
	ev := event.New("ev", "@a:x", time.Now())
	id := event.ThreadID{Container: "!r:x"}

	if _, err := bridge.Create(context.Background(), ev, id); !errors.Is(err, ErrConfigMissing) {
		t.Errorf("Create err = %v, want ErrConfigMissing", err)
	}
	if err := bridge.Update(context.Background(), ev, id); !errors.Is(err, ErrConfigMissing) {
		t.Errorf("Update err = %v, want ErrConfigMissing", err)
	}
}

func TestNewGoogleIncompleteConfig(t *testing.T) {
	_, err := NewGoogle(context.Background(), nil, GoogleConfig{CalendarID: "primary"})
	if !errors.Is(err, ErrConfigMissing) {
		t.Errorf("err = %v, want ErrConfigMissing", err)
	}
}
