// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rsvp

// ErrorKind classifies command failures. Every kind maps to a
// user-visible reply with no store mutation; the kinds exist so tests
// and callers can tell rejection reasons apart without string
// matching.
type ErrorKind int

const (
	// InvalidInput covers unparseable dates, times, durations,
	// limits, and addresses.
	InvalidInput ErrorKind = iota

	// StateConflict covers "already an event", "not an event", and
	// "destination is already an event".
	StateConflict

	// Unauthorized covers non-creators attempting cancel or move.
	Unauthorized

	// CapacityExceeded is the confirmation engine's limit rejection.
	CapacityExceeded
)

// CommandError is a rejected command: the handler performed no
// mutation, and Reply is the text the user sees. It is the only error
// type handlers return deliberately; anything else reaching the
// dispatcher is an unexpected collaborator failure.
type CommandError struct {
	Kind  ErrorKind
	Reply string
}

func (e *CommandError) Error() string { return e.Reply }

func invalidInput(reply string) *CommandError {
	return &CommandError{Kind: InvalidInput, Reply: reply}
}

func stateConflict(reply string) *CommandError {
	return &CommandError{Kind: StateConflict, Reply: reply}
}

func unauthorized(reply string) *CommandError {
	return &CommandError{Kind: Unauthorized, Reply: reply}
}
