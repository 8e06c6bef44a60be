// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"reflect"
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	today := time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC)
	e := New("All Hands", "@a:x", today)
	if e.Name != "All Hands" {
		t.Errorf("Name = %q", e.Name)
	}
	if e.Creator != "@a:x" {
		t.Errorf("Creator = %q", e.Creator)
	}
	if e.Date != "08/31/2026" {
		t.Errorf("Date = %q, want 08/31/2026", e.Date)
	}
	if e.Time != "" || e.Duration != 0 || e.Limit != 0 || e.Calendar != nil {
		t.Errorf("optional fields should start unset: %+v", e)
	}
	if len(e.Yes)+len(e.No)+len(e.Maybe) != 0 {
		t.Error("attendance lists should start empty")
	}
}

func TestConfirmMovesBetweenLists(t *testing.T) {
	e := New("ev", "@a:x", time.Now())
	if err := e.Confirm("@b:x", Yes); err != nil {
		t.Fatalf("Confirm yes: %v", err)
	}
	if err := e.Confirm("@b:x", Maybe); err != nil {
		t.Fatalf("Confirm maybe: %v", err)
	}
	if err := e.Confirm("@b:x", No); err != nil {
		t.Fatalf("Confirm no: %v", err)
	}
	if len(e.Yes) != 0 || len(e.Maybe) != 0 {
		t.Errorf("identity left behind: yes=%v maybe=%v", e.Yes, e.Maybe)
	}
	if !reflect.DeepEqual(e.No, []string{"@b:x"}) {
		t.Errorf("No = %v", e.No)
	}
}

// Property from the dispatch contract: over any decision sequence, an
// identity is a member of at most one list at every step.
func TestConfirmExclusivityOverSequence(t *testing.T) {
	e := New("ev", "@a:x", time.Now())
	sequence := []Decision{Yes, Yes, Maybe, No, Yes, No, Maybe, Maybe, Yes}
	for i, d := range sequence {
		if err := e.Confirm("@b:x", d); err != nil {
			t.Fatalf("step %d (%s): %v", i, d, err)
		}
		memberships := 0
		for _, list := range [][]string{e.Yes, e.No, e.Maybe} {
			for _, member := range list {
				if member == "@b:x" {
					memberships++
				}
			}
		}
		if memberships != 1 {
			t.Fatalf("step %d (%s): identity in %d lists", i, d, memberships)
		}
		if got, ok := e.Attending("@b:x"); !ok || got != d {
			t.Fatalf("step %d: Attending = %v %v, want %s", i, got, ok, d)
		}
	}
}

func TestConfirmReconfirmIsNoOp(t *testing.T) {
	e := New("ev", "@a:x", time.Now())
	for range 3 {
		if err := e.Confirm("@b:x", Yes); err != nil {
			t.Fatalf("Confirm: %v", err)
		}
	}
	if !reflect.DeepEqual(e.Yes, []string{"@b:x"}) {
		t.Errorf("Yes = %v, want single entry", e.Yes)
	}
}

func TestConfirmCapacity(t *testing.T) {
	e := New("ev", "@a:x", time.Now())
	e.Limit = 2
	attendees := []string{"@b:x", "@c:x", "@d:x"}
	for i, id := range attendees[:2] {
		if err := e.Confirm(id, Yes); err != nil {
			t.Fatalf("attendee %d: %v", i, err)
		}
	}
	if err := e.Confirm("@d:x", Yes); err != ErrCapacityExceeded {
		t.Fatalf("third yes against limit 2: err = %v, want ErrCapacityExceeded", err)
	}
	if !reflect.DeepEqual(e.Yes, []string{"@b:x", "@c:x"}) {
		t.Errorf("Yes = %v after rejection", e.Yes)
	}
}

// A rejected yes must not commit the removal from the other lists
// either — rejection is all-or-nothing.
func TestConfirmCapacityRejectionIsAtomic(t *testing.T) {
	e := New("ev", "@a:x", time.Now())
	e.Limit = 1
	if err := e.Confirm("@b:x", Yes); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := e.Confirm("@c:x", No); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := e.Confirm("@c:x", Yes); err != ErrCapacityExceeded {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
	if !reflect.DeepEqual(e.No, []string{"@c:x"}) {
		t.Errorf("rejected confirm removed identity from no list: %v", e.No)
	}
}

func TestConfirmReconfirmYesAtCapacity(t *testing.T) {
	e := New("ev", "@a:x", time.Now())
	e.Limit = 1
	if err := e.Confirm("@b:x", Yes); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	// The member already holds a spot; re-confirming must not count
	// against the remaining capacity.
	if err := e.Confirm("@b:x", Yes); err != nil {
		t.Fatalf("re-confirm at capacity: %v", err)
	}
	if !reflect.DeepEqual(e.Yes, []string{"@b:x"}) {
		t.Errorf("Yes = %v", e.Yes)
	}
}

func TestConfirmLimitCappedSequence(t *testing.T) {
	e := New("ev", "@a:x", time.Now())
	e.Limit = 3
	var rejected int
	for _, id := range []string{"@p1:x", "@p2:x", "@p3:x", "@p4:x", "@p5:x"} {
		if err := e.Confirm(id, Yes); err == ErrCapacityExceeded {
			rejected++
		} else if err != nil {
			t.Fatalf("Confirm: %v", err)
		}
	}
	if len(e.Yes) != 3 {
		t.Errorf("len(Yes) = %d, want 3", len(e.Yes))
	}
	if rejected != 2 {
		t.Errorf("rejected = %d, want 2", rejected)
	}
}

func TestConfirmPreservesArrivalOrder(t *testing.T) {
	e := New("ev", "@a:x", time.Now())
	for _, id := range []string{"@z:x", "@m:x", "@a:x"} {
		if err := e.Confirm(id, Yes); err != nil {
			t.Fatalf("Confirm: %v", err)
		}
	}
	if !reflect.DeepEqual(e.Yes, []string{"@z:x", "@m:x", "@a:x"}) {
		t.Errorf("Yes = %v, want arrival order", e.Yes)
	}
}

func TestClone(t *testing.T) {
	e := New("ev", "@a:x", time.Now())
	e.Calendar = &CalendarRef{ID: "cal1", Link: "https://cal"}
	if err := e.Confirm("@b:x", Yes); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	clone := e.Clone()
	if err := clone.Confirm("@c:x", Yes); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	clone.Calendar.ID = "cal2"
	if len(e.Yes) != 1 {
		t.Error("mutating the clone leaked into the original list")
	}
	if e.Calendar.ID != "cal1" {
		t.Error("mutating the clone leaked into the original calendar ref")
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate(1, 1, 2999)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if got != "01/01/2999" {
		t.Errorf("ParseDate = %q", got)
	}
	if _, err := ParseDate(2, 30, 2026); err == nil {
		t.Error("Feb 30 should not parse")
	}
	if _, err := ParseDate(13, 1, 2026); err == nil {
		t.Error("month 13 should not parse")
	}
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime(9, 5)
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	if got != "09:05" {
		t.Errorf("ParseTime = %q", got)
	}
	for _, tc := range [][2]int{{24, 0}, {-1, 0}, {12, 60}, {12, -1}} {
		if _, err := ParseTime(tc[0], tc[1]); err == nil {
			t.Errorf("ParseTime(%d, %d) should fail", tc[0], tc[1])
		}
	}
}

func TestThreadIDKey(t *testing.T) {
	id := ThreadID{Container: "!room:x", Thread: "$root"}
	if id.Key() != "!room:x/$root" {
		t.Errorf("Key() = %q", id.Key())
	}
	bare := ThreadID{Container: "!room:x"}
	if bare.Key() != "!room:x/" {
		t.Errorf("Key() = %q", bare.Key())
	}
}
