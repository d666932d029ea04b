// Copyright (C) 2026 Photon Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package binding holds the association from a wallet address to the
// external notebook document provisioned for it.
//
// A binding is a one-to-one pair: wallet address -> document id. The
// store contract is deliberately small (Get/Put/Close) so the backing
// can be swapped without touching callers:
//
//	Hot (RAM)  -> MemoryStore (default, forgets on restart)
//	Warm (disk) -> BadgerStore (survives restarts)
//
// Put is last-write-wins. There is no eviction, no expiry, and no
// size bound; a tenant keeps its binding for the life of the store.
package binding

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when no binding exists for the wallet.
var ErrNotFound = errors.New("no binding for wallet")

// Store maps wallet addresses to document ids.
//
// Implementations must be safe for concurrent use. Keys are opaque
// non-empty strings; no address checksum or format validation happens
// at this layer.
type Store interface {
	// Get returns the document id bound to wallet, or ErrNotFound.
	Get(ctx context.Context, wallet string) (string, error)

	// Put binds wallet to docID, overwriting any existing binding.
	Put(ctx context.Context, wallet string, docID string) error

	// Close releases backend resources. Safe to call once.
	Close() error
}

// MemoryStore is the in-process Store backend. All bindings are lost
// when the process exits.
type MemoryStore struct {
	mu       sync.RWMutex
	bindings map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bindings: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, wallet string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docID, ok := s.bindings[wallet]
	if !ok {
		return "", ErrNotFound
	}
	return docID, nil
}

func (s *MemoryStore) Put(_ context.Context, wallet string, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bindings[wallet] = docID
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// Len reports the number of bindings currently held. Used by tests and
// the health endpoint.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bindings)
}
