// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package duration

import "testing"

func TestParseGoSyntax(t *testing.T) {
	got, err := Parse("1h30m")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != 5400 {
		t.Errorf("Parse(1h30m) = %d, want 5400", got)
	}

	got, err = Parse("30m")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != 1800 {
		t.Errorf("Parse(30m) = %d, want 1800", got)
	}
}

func TestParseClockSyntax(t *testing.T) {
	got, err := Parse("1:30")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != 5400 {
		t.Errorf("Parse(1:30) = %d, want 5400", got)
	}

	if _, err := Parse("1:75"); err == nil {
		t.Error("minutes above 59 in clock syntax should fail")
	}
}

func TestParseBareNumberIsMinutes(t *testing.T) {
	got, err := Parse("45")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != 2700 {
		t.Errorf("Parse(45) = %d, want 2700", got)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, text := range []string{"", "soon", "-30m", "-5", "h30"} {
		if _, err := Parse(text); err == nil {
			t.Errorf("Parse(%q) should fail", text)
		}
	}
}

func TestFormat(t *testing.T) {
	for _, tc := range []struct {
		seconds int
		want    string
	}{
		{5400, "1h30m"},
		{1800, "30m"},
		{90, "1m30s"},
		{0, "0s"},
	} {
		if got := Format(tc.seconds); got != tc.want {
			t.Errorf("Format(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
