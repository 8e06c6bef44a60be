// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the slice of the Matrix client-server API the
// bot daemon needs: incremental /sync with long-polling, sending
// threaded room messages, alias resolution, profile lookups, and the
// room metadata reads that turn a raw timeline event into a command
// request.
//
// [Client] is the unauthenticated half: homeserver URL plus HTTP
// transport. [DirectSession] wraps a Client with an access token held
// in mmap-backed secret.Buffer memory (locked against swap, excluded
// from core dumps); callers must Close the session to release it. The
// [Session] interface covers the operations the daemon's message pump
// consumes, so pump tests run against an in-process fake.
//
// API errors come back as [*MatrixError] carrying the standard Matrix
// error code (M_FORBIDDEN, M_NOT_FOUND, ...) and HTTP status; test for
// a specific code with [IsMatrixError]. Request URLs are built by
// string concatenation rather than url.URL to avoid double-encoding of
// path segments that already contain escaped characters.
package messaging
