// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated wrapper types for Matrix identifiers.
//
// Raw identifier strings are easy to mix up: a room ID, a user ID, and
// an event ID are all strings with different sigils. Wrapping them in
// distinct types moves the confusion from runtime to compile time.
// Each type validates its structural format at construction; the zero
// value is invalid and detectable with IsZero.
package ref
