// Copyright (C) 2026 Photon Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package notebook implements notebook provisioning and note relay for
// wallet-identified tenants.
//
// A tenant is a wallet address. Each tenant gets at most one notebook:
// EnsureNotebook returns the existing binding when one exists and only
// provisions a fresh document on first use. AppendNote forwards a note
// to the tenant's notebook and never provisions implicitly — a missing
// binding is the caller's problem to fix by provisioning first.
//
// Failures from the platform are wrapped with sentinel errors
// (ErrProvisioningFailed, ErrRelayFailed) so HTTP handlers can map them
// without string matching, while the platform's own message stays on
// the chain for operators.
package notebook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/photonlabs/photon/pkg/binding"
)

var (
	// ErrMissingWallet means the caller supplied no wallet address.
	// Detected before any platform call.
	ErrMissingWallet = errors.New("missing wallet address")

	// ErrNoBinding means a note was relayed for a wallet that has no
	// provisioned notebook.
	ErrNoBinding = errors.New("no notebook for wallet")

	// ErrProvisioningFailed wraps platform failures during notebook
	// creation. No binding is stored when it occurs.
	ErrProvisioningFailed = errors.New("notebook provisioning failed")

	// ErrRelayFailed wraps platform failures while appending a note.
	ErrRelayFailed = errors.New("note relay failed")
)

// titlePrefix plus the first titleKeyLen characters of the wallet make
// the notebook title. Deterministic: same wallet, same title.
const (
	titlePrefix = "Physics Notes - "
	titleKeyLen = 8
)

// Platform is the slice of the document-platform client the service
// needs. pkg/notion satisfies it; tests inject mocks.
type Platform interface {
	CreatePage(ctx context.Context, title string, walletAddress string) (string, error)
	AppendParagraph(ctx context.Context, blockID string, content string) error
}

// Service owns provisioning and relay semantics over an injected
// binding store and platform client.
type Service struct {
	store    binding.Store
	platform Platform

	// provisionMu serializes EnsureNotebook per wallet so two
	// concurrent first-use calls cannot both create a document.
	mu          sync.Mutex
	provisionMu map[string]*sync.Mutex
}

// NewService wires a Service. Both dependencies are required.
func NewService(store binding.Store, platform Platform) *Service {
	return &Service{
		store:       store,
		platform:    platform,
		provisionMu: make(map[string]*sync.Mutex),
	}
}

// PageTitle derives the notebook title for a wallet. Exposed so the
// relay's handlers and tests can assert determinism.
func PageTitle(wallet string) string {
	short := wallet
	if len(short) > titleKeyLen {
		short = short[:titleKeyLen]
	}
	return titlePrefix + short
}

// EnsureNotebook returns the notebook id bound to wallet, provisioning
// a new document when none exists. The created flag reports whether a
// platform call was made.
//
// Get-or-create is atomic per wallet: the store lookup and the create
// call happen under a per-key lock, so a burst of concurrent calls for
// one wallet yields exactly one document.
func (s *Service) EnsureNotebook(ctx context.Context, wallet string) (pageID string, created bool, err error) {
	if wallet == "" {
		return "", false, ErrMissingWallet
	}

	lock := s.walletLock(wallet)
	lock.Lock()
	defer lock.Unlock()

	pageID, err = s.store.Get(ctx, wallet)
	if err == nil {
		slog.Debug("Existing notebook binding", "wallet", shortWallet(wallet), "page_id", pageID)
		return pageID, false, nil
	}
	if !errors.Is(err, binding.ErrNotFound) {
		return "", false, fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
	}

	slog.Info("Provisioning notebook", "wallet", shortWallet(wallet))
	pageID, err = s.platform.CreatePage(ctx, PageTitle(wallet), wallet)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
	}

	if err := s.store.Put(ctx, wallet, pageID); err != nil {
		// The document exists remotely but the binding was lost; the
		// next call will provision again. Surface the failure rather
		// than hand out an id the store cannot resolve later.
		return "", false, fmt.Errorf("%w: store binding: %v", ErrProvisioningFailed, err)
	}

	slog.Info("Notebook provisioned", "wallet", shortWallet(wallet), "page_id", pageID)
	return pageID, true, nil
}

// AppendNote relays one note to the notebook bound to wallet. The note
// text is passed through verbatim; emptiness is the UI layer's concern.
func (s *Service) AppendNote(ctx context.Context, wallet string, content string) error {
	if wallet == "" {
		return ErrMissingWallet
	}

	pageID, err := s.store.Get(ctx, wallet)
	if errors.Is(err, binding.ErrNotFound) {
		return ErrNoBinding
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRelayFailed, err)
	}

	if err := s.platform.AppendParagraph(ctx, pageID, content); err != nil {
		return fmt.Errorf("%w: %v", ErrRelayFailed, err)
	}

	slog.Info("Note relayed", "wallet", shortWallet(wallet), "page_id", pageID)
	return nil
}

func (s *Service) walletLock(wallet string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.provisionMu[wallet]
	if !ok {
		lock = &sync.Mutex{}
		s.provisionMu[wallet] = lock
	}
	return lock
}

// shortWallet truncates an address for logs. Full addresses stay out
// of log lines; the store and the platform carry the real key.
func shortWallet(wallet string) string {
	if len(wallet) <= 8 {
		return wallet
	}
	return wallet[:8] + "..."
}
