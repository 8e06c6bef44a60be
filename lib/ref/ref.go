// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// parseSigilID validates a Matrix identifier of the form
// "<sigil>localpart:server". Returns the localpart and server.
func parseSigilID(raw string, sigil byte, kind string) (localpart, server string, err error) {
	if raw == "" {
		return "", "", fmt.Errorf("empty %s", kind)
	}
	if raw[0] != sigil {
		return "", "", fmt.Errorf("%s %q must start with '%c'", kind, raw, sigil)
	}
	rest := raw[1:]
	localpart, server, found := strings.Cut(rest, ":")
	if !found || server == "" {
		return "", "", fmt.Errorf("%s %q is missing the ':server' suffix", kind, raw)
	}
	if localpart == "" {
		return "", "", fmt.Errorf("%s %q has an empty localpart", kind, raw)
	}
	return localpart, server, nil
}

// UserID is a validated Matrix user ID (e.g., "@carlos:example.org").
// An immutable value type; the zero value is not valid.
type UserID struct {
	id string
}

// ParseUserID validates and wraps a raw Matrix user ID string.
func ParseUserID(raw string) (UserID, error) {
	if _, _, err := parseSigilID(raw, '@', "user ID"); err != nil {
		return UserID{}, err
	}
	return UserID{id: raw}, nil
}

// MustParseUserID wraps ParseUserID and panics on error. For tests and
// compile-time-constant IDs only.
func MustParseUserID(raw string) UserID {
	id, err := ParseUserID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the full user ID string.
func (u UserID) String() string { return u.id }

// IsZero reports whether the UserID is the zero value.
func (u UserID) IsZero() bool { return u.id == "" }

// Localpart returns the portion between the '@' sigil and the
// ':server' suffix. Panics on a zero-value UserID.
func (u UserID) Localpart() string {
	localpart, _, err := parseSigilID(u.id, '@', "user ID")
	if err != nil {
		panic(fmt.Sprintf("UserID.Localpart on invalid ID %q: %v", u.id, err))
	}
	return localpart
}

// MarshalText implements encoding.TextMarshaler.
func (u UserID) MarshalText() ([]byte, error) { return []byte(u.id), nil }

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value rather than an error so that optional JSON
// fields round-trip.
func (u *UserID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*u = UserID{}
		return nil
	}
	parsed, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// RoomID is a validated Matrix room ID (e.g., "!abc123:example.org").
// Room IDs are opaque server-assigned identifiers; aliases
// ("#event-planning:example.org") must be resolved to a RoomID before
// use.
type RoomID struct {
	id string
}

// ParseRoomID validates and wraps a raw Matrix room ID string.
func ParseRoomID(raw string) (RoomID, error) {
	if _, _, err := parseSigilID(raw, '!', "room ID"); err != nil {
		return RoomID{}, err
	}
	return RoomID{id: raw}, nil
}

// MustParseRoomID wraps ParseRoomID and panics on error.
func MustParseRoomID(raw string) RoomID {
	id, err := ParseRoomID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the full room ID string.
func (r RoomID) String() string { return r.id }

// IsZero reports whether the RoomID is the zero value.
func (r RoomID) IsZero() bool { return r.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (r RoomID) MarshalText() ([]byte, error) { return []byte(r.id), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RoomID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*r = RoomID{}
		return nil
	}
	parsed, err := ParseRoomID(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// EventID is a Matrix event ID (e.g., "$sGh2gVC9..."). Event IDs in
// modern room versions are opaque hashes with no ':server' part, so
// only the sigil is validated.
type EventID string

// ParseEventID validates a raw Matrix event ID string.
func ParseEventID(raw string) (EventID, error) {
	if raw == "" {
		return "", fmt.Errorf("empty event ID")
	}
	if raw[0] != '$' {
		return "", fmt.Errorf("event ID %q must start with '$'", raw)
	}
	return EventID(raw), nil
}

// String returns the event ID string.
func (e EventID) String() string { return string(e) }
