// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bureau-foundation/gather/lib/ref"
	"github.com/bureau-foundation/gather/lib/secret"
)

// newTestSession builds a DirectSession against an httptest server.
func newTestSession(t *testing.T, handler http.Handler) *DirectSession {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	token, err := secret.NewFromBytes([]byte("syt_test_token"))
	if err != nil {
		t.Fatalf("token buffer: %v", err)
	}
	session := client.SessionFromToken(ref.MustParseUserID("@gather:example.org"), token)
	t.Cleanup(func() { session.Close() })
	return session
}

func TestSendMessageThreadReply(t *testing.T) {
	var captured struct {
		path string
		auth string
		body MessageContent
	}
	session := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured.body); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		json.NewEncoder(w).Encode(SendEventResponse{EventID: "$sent1"})
	}))

	content := NewThreadReply("$root1", "This thread is now an event!")
	eventID, err := session.SendMessage(t.Context(), ref.MustParseRoomID("!lunch:example.org"), content)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if eventID != "$sent1" {
		t.Errorf("event ID = %q", eventID)
	}
	if !strings.HasPrefix(captured.path, "/_matrix/client/v3/rooms/") ||
		!strings.Contains(captured.path, "/send/m.room.message/") {
		t.Errorf("path = %q", captured.path)
	}
	if captured.auth != "Bearer syt_test_token" {
		t.Errorf("authorization = %q", captured.auth)
	}
	if captured.body.RelatesTo == nil || captured.body.RelatesTo.RelType != "m.thread" {
		t.Errorf("relates_to = %+v, want m.thread relation", captured.body.RelatesTo)
	}
	if captured.body.RelatesTo.EventID != "$root1" {
		t.Errorf("thread root = %q", captured.body.RelatesTo.EventID)
	}
}

func TestSendMessageTransactionIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	session := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		transactionID := parts[len(parts)-1]
		if seen[transactionID] {
			t.Errorf("transaction ID %q reused", transactionID)
		}
		seen[transactionID] = true
		json.NewEncoder(w).Encode(SendEventResponse{EventID: "$x"})
	}))

	room := ref.MustParseRoomID("!lunch:example.org")
	for range 5 {
		if _, err := session.SendMessage(t.Context(), room, NewTextMessage("hi")); err != nil {
			t.Fatalf("SendMessage: %v", err)
		}
	}
}

func TestSyncPassesQueryParameters(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if got := query.Get("since"); got != "batch-41" {
			t.Errorf("since = %q", got)
		}
		if got := query.Get("timeout"); got != "30000" {
			t.Errorf("timeout = %q", got)
		}
		if !strings.Contains(query.Get("filter"), "m.room.message") {
			t.Errorf("filter = %q", query.Get("filter"))
		}
		json.NewEncoder(w).Encode(SyncResponse{NextBatch: "batch-42"})
	}))

	response, err := session.Sync(t.Context(), SyncOptions{
		Since:      "batch-41",
		Timeout:    30000,
		SetTimeout: true,
		Filter:     MessageSyncFilter(),
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if response.NextBatch != "batch-42" {
		t.Errorf("next batch = %q", response.NextBatch)
	}
}

func TestSyncDecodesThreadedTimeline(t *testing.T) {
	const payload = `{
		"next_batch": "b2",
		"rooms": {"join": {"!lunch:example.org": {"timeline": {"events": [
			{
				"event_id": "$m1",
				"type": "m.room.message",
				"sender": "@ana:example.org",
				"content": {
					"msgtype": "m.text",
					"body": "rsvp init",
					"m.relates_to": {"rel_type": "m.thread", "event_id": "$root1"}
				}
			},
			{
				"event_id": "$m2",
				"type": "m.room.message",
				"sender": "@bo:example.org",
				"content": {"msgtype": "m.text", "body": "hello"}
			}
		]}}}}
	}`
	session := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))

	response, err := session.Sync(t.Context(), SyncOptions{})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	room := response.Rooms.Join[ref.MustParseRoomID("!lunch:example.org")]
	if len(room.Timeline.Events) != 2 {
		t.Fatalf("timeline events = %d", len(room.Timeline.Events))
	}

	threaded := room.Timeline.Events[0]
	if threaded.ThreadRoot() != "$root1" {
		t.Errorf("thread root = %q", threaded.ThreadRoot())
	}
	if threaded.TextBody() != "rsvp init" {
		t.Errorf("body = %q", threaded.TextBody())
	}

	main := room.Timeline.Events[1]
	if main.ThreadRoot() != "" {
		t.Errorf("main-timeline event reported thread root %q", main.ThreadRoot())
	}
}

func TestMatrixErrorDecoding(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errcode":"M_FORBIDDEN","error":"not in room"}`))
	}))

	_, err := session.SendMessage(t.Context(), ref.MustParseRoomID("!x:example.org"), NewTextMessage("hi"))
	if err == nil {
		t.Fatal("no error for 403 response")
	}
	if !IsMatrixError(err, ErrCodeForbidden) {
		t.Errorf("error = %v, want M_FORBIDDEN", err)
	}
}

func TestRoomNameMissingIsEmpty(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errcode":"M_NOT_FOUND","error":"no name event"}`))
	}))

	name, err := session.RoomName(t.Context(), ref.MustParseRoomID("!bare:example.org"))
	if err != nil {
		t.Fatalf("RoomName: %v", err)
	}
	if name != "" {
		t.Errorf("name = %q, want empty", name)
	}
}

func TestResolveAlias(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/_matrix/client/v3/directory/room/") {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ResolveAliasResponse{
			RoomID: ref.MustParseRoomID("!offsite:example.org"),
		})
	}))

	roomID, err := session.ResolveAlias(t.Context(), "#offsite:example.org")
	if err != nil {
		t.Fatalf("ResolveAlias: %v", err)
	}
	if roomID.String() != "!offsite:example.org" {
		t.Errorf("room ID = %q", roomID)
	}
}

func TestWhoAmI(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(WhoAmIResponse{UserID: ref.MustParseUserID("@gather:example.org")})
	}))

	userID, err := session.WhoAmI(t.Context())
	if err != nil {
		t.Fatalf("WhoAmI: %v", err)
	}
	if userID.String() != "@gather:example.org" {
		t.Errorf("user ID = %q", userID)
	}
}
