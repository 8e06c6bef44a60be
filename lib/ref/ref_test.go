// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "testing"

func TestParseUserID(t *testing.T) {
	id, err := ParseUserID("@carlos:example.org")
	if err != nil {
		t.Fatalf("ParseUserID: %v", err)
	}
	if id.String() != "@carlos:example.org" {
		t.Errorf("String() = %q", id.String())
	}
	if id.Localpart() != "carlos" {
		t.Errorf("Localpart() = %q, want %q", id.Localpart(), "carlos")
	}
	if id.IsZero() {
		t.Error("parsed UserID should not be zero")
	}
}

func TestParseUserIDRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "carlos:example.org", "@carlos", "@:example.org", "@carlos:"} {
		if _, err := ParseUserID(raw); err == nil {
			t.Errorf("ParseUserID(%q) should fail", raw)
		}
	}
}

func TestUserIDZeroValue(t *testing.T) {
	var id UserID
	if !id.IsZero() {
		t.Error("zero UserID should report IsZero")
	}
	if id.String() != "" {
		t.Errorf("zero UserID String() = %q", id.String())
	}
}

func TestUserIDTextRoundTrip(t *testing.T) {
	id := MustParseUserID("@b:example.org")
	text, err := id.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	var decoded UserID
	if err := decoded.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if decoded != id {
		t.Errorf("round trip: got %v, want %v", decoded, id)
	}

	var zero UserID
	if err := zero.UnmarshalText(nil); err != nil {
		t.Fatalf("UnmarshalText(empty): %v", err)
	}
	if !zero.IsZero() {
		t.Error("empty text should decode to zero value")
	}
}

func TestParseRoomID(t *testing.T) {
	id, err := ParseRoomID("!abc123:example.org")
	if err != nil {
		t.Fatalf("ParseRoomID: %v", err)
	}
	if id.String() != "!abc123:example.org" {
		t.Errorf("String() = %q", id.String())
	}
	if _, err := ParseRoomID("#alias:example.org"); err == nil {
		t.Error("room alias should not parse as a room ID")
	}
}

func TestParseEventID(t *testing.T) {
	id, err := ParseEventID("$sGh2gVC9ab")
	if err != nil {
		t.Fatalf("ParseEventID: %v", err)
	}
	if id.String() != "$sGh2gVC9ab" {
		t.Errorf("String() = %q", id.String())
	}
	if _, err := ParseEventID("sGh2gVC9ab"); err == nil {
		t.Error("event ID without '$' sigil should fail")
	}
	if _, err := ParseEventID(""); err == nil {
		t.Error("empty event ID should fail")
	}
}
