// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"strings"
	"testing"
)

func TestReadResponse(t *testing.T) {
	data, err := ReadResponse(strings.NewReader(`{"ok":true}`))
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("data = %q", data)
	}
}

func TestDecodeResponse(t *testing.T) {
	var parsed struct {
		EventID string `json:"event_id"`
	}
	if err := DecodeResponse(strings.NewReader(`{"event_id":"$abc"}`), &parsed); err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if parsed.EventID != "$abc" {
		t.Errorf("event_id = %q", parsed.EventID)
	}
}

func TestDecodeResponseBadJSON(t *testing.T) {
	var v map[string]any
	if err := DecodeResponse(strings.NewReader("not json"), &v); err == nil {
		t.Fatal("no error for malformed body")
	}
}
