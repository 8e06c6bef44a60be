// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rsvp

import (
	"context"
	"fmt"
	"strings"
)

// handleSummary renders the event card: an attribute table followed by
// the three-column attendance table.
func (d *Dispatcher) handleSummary(ctx context.Context, inv *invocation) ([]Message, error) {
	ev := inv.ev

	orNA := func(value string) string {
		if value == "" {
			return "N/A"
		}
		return value
	}
	when := orNA(ev.Date)
	if ev.Time != "" {
		when += " @ " + ev.Time
	} else {
		when += " @ (All day)"
	}
	limit := "No Limit!"
	if ev.Limit > 0 {
		limit = fmt.Sprintf("%d/%d spots left", ev.SpotsLeft(), ev.Limit)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\t|\t\n:---:|:---:\n", ev.Name)
	fmt.Fprintf(&b, "**What**|%s\n", orNA(ev.Description))
	fmt.Fprintf(&b, "**When**|%s\n", when)
	fmt.Fprintf(&b, "**Where**|%s\n", orNA(ev.Place))
	fmt.Fprintf(&b, "**Limit**|%s\n", limit)
	b.WriteString("\n")
	fmt.Fprintf(&b, "YES (%d) |NO (%d) |MAYBE (%d) \n", len(ev.Yes), len(ev.No), len(ev.Maybe))
	b.WriteString(":---:|:---:|:---:\n")

	rows := max(len(ev.Yes), len(ev.No), len(ev.Maybe))
	cell := func(list []string, i int) string {
		if i >= len(list) {
			return ""
		}
		return d.directory.Resolve(ctx, list[i])
	}
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%s|%s|%s\n", cell(ev.Yes, i), cell(ev.No, i), cell(ev.Maybe, i))
	}
	b.WriteString("\t|\t")

	return stream(b.String()), nil
}

// handlePing mentions everyone who answered yes or maybe, with an
// optional trailing message.
func (d *Dispatcher) handlePing(ctx context.Context, inv *invocation) ([]Message, error) {
	var b strings.Builder
	b.WriteString("**Pinging all participants who RSVP'd!!**\n")
	for _, identity := range inv.ev.Yes {
		fmt.Fprintf(&b, "@**%s** ", d.directory.Resolve(ctx, identity))
	}
	for _, identity := range inv.ev.Maybe {
		fmt.Fprintf(&b, "@**%s** ", d.directory.Resolve(ctx, identity))
	}
	if message := strings.TrimSpace(inv.arg("message")); message != "" {
		b.WriteString("\n" + message)
	}
	return stream(b.String()), nil
}

// handleHelp replies privately so the command table does not flood the
// thread.
func (d *Dispatcher) handleHelp(_ context.Context, _ *invocation) ([]Message, error) {
	p := d.prefix
	var b strings.Builder
	b.WriteString("**Command**|**Description**\n")
	b.WriteString("--- | ---\n")
	rows := [][2]string{
		{p + " init", "Turn the current thread into an event."},
		{p + " quickinit date|time|duration|place|description", "Create an event with attributes in one line. Leave a field empty to skip it."},
		{"yes / no / maybe", "Register your attendance. Any message containing one of these words counts."},
		{p + " set date mm/dd/yyyy", "Set the date. Must not be in the past."},
		{p + " set time HH:MM", "Set the time (24-hour clock)."},
		{p + " set time allday", "Make this an all-day event."},
		{p + " set duration HH:MM or 30m", "Set how long the event lasts."},
		{p + " set place PLACE", "Set where the event happens."},
		{p + " set description DESCRIPTION", "Set what the event is about."},
		{p + " set limit LIMIT", "Cap the number of **yes** attendees."},
		{p + " add to calendar", "Create a linked calendar entry. Needs date, time and duration."},
		{p + " summary", "Show the event card and who's coming."},
		{p + " ping MESSAGE", "Mention everyone who answered yes or maybe."},
		{p + " move DESTINATION", "Relocate the event to another thread (creator only)."},
		{p + " cancel", "Cancel the event (creator only)."},
		{p + " credits", "Who built this."},
		{p + " help", "This table."},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "`%s`|%s\n", row[0], row[1])
	}
	return []Message{{Kind: Private, Body: b.String()}}, nil
}

func (d *Dispatcher) handleCredits(_ context.Context, _ *invocation) ([]Message, error) {
	var b strings.Builder
	b.WriteString("I was brought to you by:\n")
	if len(d.contributors) > 0 {
		b.WriteString("\n**Contributors**\n")
		for _, name := range d.contributors {
			fmt.Fprintf(&b, "%s\n", name)
		}
	}
	if len(d.testers) > 0 {
		b.WriteString("\n**Testers**\n")
		for _, name := range d.testers {
			fmt.Fprintf(&b, "%s\n", name)
		}
	}
	return stream(b.String()), nil
}
