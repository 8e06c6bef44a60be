// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rsvp is the command-dispatch engine: the fixed command
// grammar, the per-thread dispatch protocol, and the handlers that
// mutate event records. The package is pure coordination logic — the
// chat transport, calendar backend, directory, and persistence are all
// injected collaborators, so the whole engine runs in tests against
// fakes and an in-temp-dir store.
package rsvp

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/bureau-foundation/gather/lib/calendar"
	"github.com/bureau-foundation/gather/lib/clock"
	"github.com/bureau-foundation/gather/lib/event"
)

// Kind says where a reply message goes.
type Kind int

const (
	// Stream broadcasts to the conversation thread.
	Stream Kind = iota
	// Private goes directly to the command's sender.
	Private
)

// Message is one outbound reply produced by a command.
type Message struct {
	Kind Kind
	Body string

	// To overrides the destination thread. Set only on the
	// announcement sent to a relocated event's new home; zero means
	// "the thread the command came from".
	To event.ThreadID
}

// Request is one inbound command with its resolved context.
type Request struct {
	// Sender is the opaque identity of the user who typed the
	// command.
	Sender string

	// Thread identifies the conversation the command arrived in.
	Thread event.ThreadID

	// Subject is the thread's title, used as the event name by init.
	Subject string

	// Text is the full command text, including the invocation
	// prefix.
	Text string
}

// Store is the persistence boundary the dispatcher drives. Satisfied
// by *store.Store.
type Store interface {
	// Get returns the event under id, or (nil, nil) when absent.
	Get(ctx context.Context, id event.ThreadID) (*event.Event, error)
	Put(ctx context.Context, id event.ThreadID, ev *event.Event) error
	Delete(ctx context.Context, id event.ThreadID) error

	// Lock serializes a read-modify-write cycle on one key.
	Lock(id event.ThreadID) (unlock func())
	// LockPair locks two distinct keys without deadlocking against
	// a concurrent LockPair with the arguments swapped.
	LockPair(a, b event.ThreadID) (unlock func())
}

// Directory resolves an opaque identity to a human display name. An
// unknown identity resolves to itself.
type Directory interface {
	Resolve(ctx context.Context, identity string) string
}

// Router resolves a user-supplied destination address to a thread and
// that thread's title.
type Router interface {
	Resolve(ctx context.Context, address string) (event.ThreadID, string, error)
}

// Options configures a Dispatcher. Store is required; every other
// collaborator has a safe default.
type Options struct {
	Store  Store
	Bridge calendar.Bridge // default calendar.Disabled()

	Directory Directory // default: identities resolve to themselves
	Router    Router    // default: every address is unresolvable

	Clock  clock.Clock     // default clock.Real()
	Picker func(n int) int // random index source, default math/rand/v2
	Logger *slog.Logger    // default discard

	// Prefix is the invocation word, e.g. "rsvp".
	Prefix string

	// VIPs are display names whose confirmations get decorated.
	VIPs           []string
	VIPYesPrefixes []string
	VIPNoSuffixes  []string

	// Contributors and Testers feed the credits reply.
	Contributors []string
	Testers      []string
}

// Dispatcher matches command text against the grammar and runs the
// matched handler under the store's per-key lock. Safe for concurrent
// use; commands on distinct threads proceed in parallel.
type Dispatcher struct {
	store     Store
	bridge    calendar.Bridge
	directory Directory
	router    Router
	clock     clock.Clock
	pick      func(n int) int
	logger    *slog.Logger

	prefix         string
	vips           map[string]bool
	vipYesPrefixes []string
	vipNoSuffixes  []string
	contributors   []string
	testers        []string

	commands []command
}

// New builds a Dispatcher. The command registry is compiled once here;
// its order is part of the dispatch contract (see commands.go).
func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		store:          opts.Store,
		bridge:         opts.Bridge,
		directory:      opts.Directory,
		router:         opts.Router,
		clock:          opts.Clock,
		pick:           opts.Picker,
		logger:         opts.Logger,
		prefix:         opts.Prefix,
		vips:           make(map[string]bool, len(opts.VIPs)),
		vipYesPrefixes: opts.VIPYesPrefixes,
		vipNoSuffixes:  opts.VIPNoSuffixes,
		contributors:   opts.Contributors,
		testers:        opts.Testers,
	}
	if d.store == nil {
		panic("rsvp: Options.Store is required")
	}
	if d.bridge == nil {
		d.bridge = calendar.Disabled()
	}
	if d.directory == nil {
		d.directory = identityDirectory{}
	}
	if d.router == nil {
		d.router = noRouter{}
	}
	if d.clock == nil {
		d.clock = clock.Real()
	}
	if d.pick == nil {
		d.pick = rand.IntN
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	if d.prefix == "" {
		d.prefix = "rsvp"
	}
	for _, vip := range opts.VIPs {
		d.vips[vip] = true
	}
	d.commands = d.buildCommands()
	return d
}

// identityDirectory is the no-directory default: every identity is its
// own display name.
type identityDirectory struct{}

func (identityDirectory) Resolve(_ context.Context, identity string) string { return identity }

// noRouter is the no-router default: no address resolves.
type noRouter struct{}

func (noRouter) Resolve(_ context.Context, address string) (event.ThreadID, string, error) {
	return event.ThreadID{}, "", &CommandError{
		Kind:  InvalidInput,
		Reply: replyBadMoveDestination(address),
	}
}
