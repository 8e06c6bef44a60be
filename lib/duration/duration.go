// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package duration parses the free-form duration text users type after
// "set duration". Accepted forms:
//
//   - Go duration syntax: "30m", "1h30m", "2h"
//   - clock syntax: "1:30" (hours:minutes)
//   - a bare number: "45" (minutes)
//
// The result is whole seconds. Parsing is minute-granular in spirit —
// users schedule meetings, not rocket burns — but second components in
// Go syntax ("90s") are accepted and kept.
package duration

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse converts duration text into a non-negative number of seconds.
func Parse(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if hours, minutes, ok := strings.Cut(text, ":"); ok {
		return parseClock(text, hours, minutes)
	}

	if minutes, err := strconv.Atoi(text); err == nil {
		if minutes < 0 {
			return 0, fmt.Errorf("duration %q is negative", text)
		}
		return minutes * 60, nil
	}

	d, err := time.ParseDuration(text)
	if err != nil {
		return 0, fmt.Errorf("cannot parse duration %q", text)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q is negative", text)
	}
	return int(d / time.Second), nil
}

// parseClock handles the "H:MM" form.
func parseClock(text, hourPart, minutePart string) (int, error) {
	hours, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, fmt.Errorf("cannot parse duration %q", text)
	}
	minutes, err := strconv.Atoi(minutePart)
	if err != nil {
		return 0, fmt.Errorf("cannot parse duration %q", text)
	}
	if hours < 0 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("cannot parse duration %q", text)
	}
	return hours*3600 + minutes*60, nil
}

// Format renders a second count the way replies display it, matching
// time.Duration's notation ("1h30m0s" becomes "1h30m").
func Format(seconds int) string {
	d := time.Duration(seconds) * time.Second
	s := d.String()
	if seconds != 0 && seconds%60 == 0 {
		s = strings.TrimSuffix(s, "0s")
	}
	return s
}
