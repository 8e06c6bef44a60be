// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeNowStandsStill(t *testing.T) {
	start := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	c := Fake(start)
	if !c.Now().Equal(start) {
		t.Errorf("Now() = %v, want %v", c.Now(), start)
	}
	if !c.Now().Equal(start) {
		t.Error("Now() should not move on its own")
	}
}

func TestFakeAdvanceFiresAfter(t *testing.T) {
	c := Fake(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	ch := c.After(time.Minute)

	select {
	case <-ch:
		t.Fatal("After fired before Advance")
	default:
	}

	c.Advance(30 * time.Second)
	select {
	case <-ch:
		t.Fatal("After fired before its deadline")
	default:
	}

	c.Advance(30 * time.Second)
	select {
	case fired := <-ch:
		want := time.Date(2026, 8, 31, 12, 1, 0, 0, time.UTC)
		if !fired.Equal(want) {
			t.Errorf("fired at %v, want %v", fired, want)
		}
	default:
		t.Fatal("After did not fire at its deadline")
	}
}

func TestFakeAfterNonPositiveFiresImmediately(t *testing.T) {
	c := Fake(time.Now())
	select {
	case <-c.After(0):
	default:
		t.Fatal("After(0) should fire immediately")
	}
}

func TestFakeSet(t *testing.T) {
	c := Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ch := c.After(24 * time.Hour)
	c.Set(time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC))
	select {
	case <-ch:
	default:
		t.Fatal("Set past the deadline should fire the waiter")
	}
}
