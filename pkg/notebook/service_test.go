// Copyright (C) 2026 Photon Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package notebook

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photonlabs/photon/pkg/binding"
)

// --- Mock platform client ---

type MockPlatform struct {
	mu          sync.Mutex
	CreateFunc  func(ctx context.Context, title, wallet string) (string, error)
	AppendFunc  func(ctx context.Context, blockID, content string) error
	CreateCalls int32
	AppendCalls int32
	Titles      []string
	Appends     []string
}

func (m *MockPlatform) CreatePage(ctx context.Context, title, wallet string) (string, error) {
	atomic.AddInt32(&m.CreateCalls, 1)
	m.mu.Lock()
	m.Titles = append(m.Titles, title)
	m.mu.Unlock()
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, title, wallet)
	}
	return "doc-1", nil
}

func (m *MockPlatform) AppendParagraph(ctx context.Context, blockID, content string) error {
	atomic.AddInt32(&m.AppendCalls, 1)
	m.mu.Lock()
	m.Appends = append(m.Appends, blockID+":"+content)
	m.mu.Unlock()
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, blockID, content)
	}
	return nil
}

func newTestService() (*Service, *MockPlatform, *binding.MemoryStore) {
	platform := &MockPlatform{}
	store := binding.NewMemoryStore()
	return NewService(store, platform), platform, store
}

// --- EnsureNotebook ---

func TestEnsureNotebookRejectsEmptyWallet(t *testing.T) {
	svc, platform, _ := newTestService()

	_, _, err := svc.EnsureNotebook(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingWallet)
	assert.EqualValues(t, 0, platform.CreateCalls, "no platform call on invalid input")
}

func TestEnsureNotebookProvisionsOnFirstUse(t *testing.T) {
	svc, platform, store := newTestService()

	pageID, created, err := svc.EnsureNotebook(context.Background(), "0xABC123456789")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "doc-1", pageID)
	assert.EqualValues(t, 1, platform.CreateCalls)

	bound, err := store.Get(context.Background(), "0xABC123456789")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", bound)
}

func TestEnsureNotebookIsIdempotentPerWallet(t *testing.T) {
	svc, platform, _ := newTestService()
	ctx := context.Background()

	first, created, err := svc.EnsureNotebook(ctx, "0xABC123")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.EnsureNotebook(ctx, "0xABC123")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, platform.CreateCalls, "repeat call must not hit the platform")
}

func TestEnsureNotebookTitleIsDeterministic(t *testing.T) {
	assert.Equal(t, "Physics Notes - 0xABC123", PageTitle("0xABC123456789"))
	assert.Equal(t, PageTitle("0xABC123456789"), PageTitle("0xABC123456789"))
	// Short wallets are used whole, not padded.
	assert.Equal(t, "Physics Notes - 0xAB", PageTitle("0xAB"))

	svc, platform, _ := newTestService()
	_, _, err := svc.EnsureNotebook(context.Background(), "0xABC123456789")
	require.NoError(t, err)
	require.Len(t, platform.Titles, 1)
	assert.Equal(t, "Physics Notes - 0xABC123", platform.Titles[0])
}

func TestEnsureNotebookPlatformFailureStoresNothing(t *testing.T) {
	svc, platform, store := newTestService()
	platform.CreateFunc = func(ctx context.Context, title, wallet string) (string, error) {
		return "", errors.New("rate limited")
	}

	_, _, err := svc.EnsureNotebook(context.Background(), "0xABC123")
	assert.ErrorIs(t, err, ErrProvisioningFailed)
	assert.Contains(t, err.Error(), "rate limited")

	_, err = store.Get(context.Background(), "0xABC123")
	assert.ErrorIs(t, err, binding.ErrNotFound)
}

func TestEnsureNotebookConcurrentFirstUseCreatesOneDocument(t *testing.T) {
	svc, platform, _ := newTestService()
	var next int32
	platform.CreateFunc = func(ctx context.Context, title, wallet string) (string, error) {
		return fmt.Sprintf("doc-%d", atomic.AddInt32(&next, 1)), nil
	}

	const callers = 16
	results := make(chan string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pageID, _, err := svc.EnsureNotebook(context.Background(), "0xRACE")
			assert.NoError(t, err)
			results <- pageID
		}()
	}
	wg.Wait()
	close(results)

	assert.EqualValues(t, 1, platform.CreateCalls)
	for pageID := range results {
		assert.Equal(t, "doc-1", pageID)
	}
}

func TestEnsureNotebookTenantsAreIndependent(t *testing.T) {
	svc, platform, _ := newTestService()
	var next int32
	platform.CreateFunc = func(ctx context.Context, title, wallet string) (string, error) {
		return fmt.Sprintf("doc-%d", atomic.AddInt32(&next, 1)), nil
	}
	ctx := context.Background()

	pageA, _, err := svc.EnsureNotebook(ctx, "wallet-a")
	require.NoError(t, err)
	pageB, _, err := svc.EnsureNotebook(ctx, "wallet-b")
	require.NoError(t, err)

	assert.NotEqual(t, pageA, pageB)

	// Re-resolving either wallet returns its own document.
	again, _, err := svc.EnsureNotebook(ctx, "wallet-a")
	require.NoError(t, err)
	assert.Equal(t, pageA, again)
}

// --- AppendNote ---

func TestAppendNoteWithoutBindingFails(t *testing.T) {
	svc, platform, _ := newTestService()

	err := svc.AppendNote(context.Background(), "0xDEF456", "hello")
	assert.ErrorIs(t, err, ErrNoBinding)
	assert.EqualValues(t, 0, platform.AppendCalls, "no platform call without a binding")
}

func TestAppendNoteRejectsEmptyWallet(t *testing.T) {
	svc, platform, _ := newTestService()

	err := svc.AppendNote(context.Background(), "", "hello")
	assert.ErrorIs(t, err, ErrMissingWallet)
	assert.EqualValues(t, 0, platform.AppendCalls)
}

func TestAppendNoteTargetsBoundDocument(t *testing.T) {
	svc, platform, _ := newTestService()
	ctx := context.Background()

	_, _, err := svc.EnsureNotebook(ctx, "0xABC123")
	require.NoError(t, err)

	require.NoError(t, svc.AppendNote(ctx, "0xABC123", "note text"))
	require.Len(t, platform.Appends, 1)
	assert.Equal(t, "doc-1:note text", platform.Appends[0])
}

func TestAppendNotePlatformFailureIsRelayFailed(t *testing.T) {
	svc, platform, _ := newTestService()
	platform.AppendFunc = func(ctx context.Context, blockID, content string) error {
		return errors.New("service unavailable")
	}
	ctx := context.Background()

	_, _, err := svc.EnsureNotebook(ctx, "0xABC123")
	require.NoError(t, err)

	err = svc.AppendNote(ctx, "0xABC123", "note")
	assert.ErrorIs(t, err, ErrRelayFailed)
	assert.Contains(t, err.Error(), "service unavailable")
}

func TestAppendNotesInSequenceKeepOrder(t *testing.T) {
	svc, platform, _ := newTestService()
	ctx := context.Background()

	_, _, err := svc.EnsureNotebook(ctx, "0xABC123")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.AppendNote(ctx, "0xABC123", fmt.Sprintf("note-%d", i)))
	}
	assert.Equal(t, []string{"doc-1:note-0", "doc-1:note-1", "doc-1:note-2"}, platform.Appends)
}
