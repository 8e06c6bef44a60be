// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewFromBytesZerosSource(t *testing.T) {
	source := []byte("syt_access_token_value")
	buffer, err := NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	defer buffer.Close()

	for i, b := range source {
		if b != 0 {
			t.Fatalf("source byte %d not zeroed: %q", i, source)
		}
	}
	if got := buffer.String(); got != "syt_access_token_value" {
		t.Errorf("buffer content = %q", got)
	}
	if buffer.Len() != len("syt_access_token_value") {
		t.Errorf("len = %d", buffer.Len())
	}
}

func TestNewFromBytesRejectsEmpty(t *testing.T) {
	if _, err := NewFromBytes(nil); err == nil {
		t.Fatal("no error for empty source")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	buffer, err := NewFromBytes([]byte("tok"))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestReadAfterClosePanics(t *testing.T) {
	buffer, err := NewFromBytes([]byte("tok"))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	buffer.Close()

	defer func() {
		if recover() == nil {
			t.Fatal("Bytes on closed buffer did not panic")
		}
	}()
	buffer.Bytes()
}

func TestReadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("  syt_abc123\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	buffer, err := ReadFromPath(path)
	if err != nil {
		t.Fatalf("ReadFromPath: %v", err)
	}
	defer buffer.Close()

	if got := buffer.String(); got != "syt_abc123" {
		t.Errorf("content = %q, want whitespace trimmed", got)
	}
}

func TestReadFromPathEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadFromPath(path); err == nil {
		t.Fatal("no error for whitespace-only file")
	}
}
