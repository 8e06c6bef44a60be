// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rsvp

import (
	"fmt"

	"github.com/bureau-foundation/gather/lib/duration"
)

// Reply text lives here, away from the handler logic, so the bot's
// voice can be reviewed in one place. Replies that embed the
// invocation prefix are methods on the Dispatcher; the rest are plain
// functions.

func (d *Dispatcher) replyInitSuccessful() string {
	return fmt.Sprintf("This thread is now an event! Type `%s help` for more options.", d.prefix)
}

func (d *Dispatcher) replyNotAnEvent() string {
	return fmt.Sprintf("This thread is not an event. Type `%s init` to make it into one.", d.prefix)
}

const replyAlreadyAnEvent = "Oops! This thread is already an event!"

const replyLimitReached = "Oh no! The attendance limit for this event has been reached. Sorry!"

const replyEventCanceled = "The event has been canceled!"

const replyNotCreator = "Oops! You are not this event's creator! Only they can cancel or move it."

const replyTimeSetAllDay = "This event is now an all-day event."

const replyMissingMoveDestination = "Oops! `move` requires a destination address!"

const replyCalendarNotConfigured = "Oops! The calendar integration is not configured for this bot."

const replyCalendarNeedsDateTime = "Oops! You need to set a date and a time before adding this event to the calendar!"

const replyCalendarNeedsDuration = "Oops! You need to set a duration before adding this event to the calendar!"

func replyBadMoveDestination(address string) string {
	return fmt.Sprintf("Oops! **%s** is not a valid destination.", address)
}

func replyMoveAlreadyAnEvent(key string) string {
	return fmt.Sprintf("Oops! **%s** is already an event!", key)
}

func replyEventMoved(key, address string) string {
	return fmt.Sprintf("This event has been moved to **[%s](%s)**!", key, address)
}

func replyDateSet(date string) string {
	return fmt.Sprintf("The date for this event has been set to **%s**!", date)
}

func replyDateNotValid(month, day, year int) string {
	return fmt.Sprintf("Oops! **%02d/%02d/%04d** is not a valid future date!", month, day, year)
}

func replyTimeSet(clock string) string {
	return fmt.Sprintf("The time for this event has been set to **%s**!", clock)
}

func replyTimeNotValid(hours, minutes int) string {
	return fmt.Sprintf("Oops! **%02d:%02d** is not a valid time!", hours, minutes)
}

func replyDurationSet(seconds int) string {
	return fmt.Sprintf("The duration for this event has been set to **%s**!", duration.Format(seconds))
}

func replyDurationNotValid(text string) string {
	return fmt.Sprintf("Oops! I don't know what **%s** means as a duration!", text)
}

func replyLimitSet(limit int) string {
	return fmt.Sprintf("The attendance limit for this event has been set to **%d**!", limit)
}

func replyStringAttrSet(attribute, value string) string {
	return fmt.Sprintf("The %s for this event has been set to **%s**!", attribute, value)
}

func replyAddedToCalendar(link string) string {
	return fmt.Sprintf("This event has been added to the calendar: %s", link)
}

// replyCalendarUpdateFailed is the non-fatal warning when a sync push
// fails for a reason other than missing configuration. The local
// change is already committed at that point and stays committed.
func replyCalendarUpdateFailed(err error) string {
	return fmt.Sprintf("Heads up: your change was saved, but updating the calendar entry failed: %v", err)
}

// confirmReply renders the attendance announcement for a decision.
func confirmReply(decision, displayName string) string {
	switch decision {
	case "yes":
		return fmt.Sprintf("@**%s** is attending!", displayName)
	case "no":
		return fmt.Sprintf("@**%s** is **not** attending!", displayName)
	default:
		return fmt.Sprintf("@**%s** might be attending. It's complicated.", displayName)
	}
}
