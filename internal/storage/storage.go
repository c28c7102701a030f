// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package storage provides the durable key/value store that holds the
// dashboard's session keys across restarts.
package storage

import "context"

// Storage is a string key/value store. Implementations must be safe for
// concurrent use.
type Storage interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// Error represents an error type for storage operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrNotFound indicates the key has no stored value.
	ErrNotFound Error = "storage: key not found"

	// ErrClosed indicates the store has been closed.
	ErrClosed Error = "storage: closed"
)
