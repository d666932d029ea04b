// Copyright (C) 2026 Photon Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package relayclient is the Go client for the photon relay service.
//
// It mirrors the web client's behavior: remember the notebook id for a
// wallet once fetched, so saving several notes in one session costs one
// provisioning round-trip, not one per note. The cache is keyed by
// wallet address — switching wallets mid-session can never reuse the
// previous tenant's notebook.
package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Client talks to the relay's HTTP surface.
type Client struct {
	baseURL string
	http    *http.Client

	mu      sync.Mutex
	pageIDs map[string]string // wallet -> notebook id
}

// New builds a Client for the relay at baseURL (e.g.
// "http://localhost:5001"). A nil httpClient gets a 30s-timeout default.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		pageIDs: make(map[string]string),
	}
}

type createPageRequest struct {
	WalletAddress string `json:"walletAddress"`
}

type createPageResponse struct {
	PageID string `json:"pageId"`
}

type appendNoteRequest struct {
	WalletAddress string `json:"walletAddress"`
	Content       string `json:"content"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// EnsureNotebook returns the notebook id for wallet, asking the relay
// to provision one when this client hasn't seen a binding yet.
func (c *Client) EnsureNotebook(ctx context.Context, wallet string) (string, error) {
	if wallet == "" {
		return "", fmt.Errorf("wallet address is empty")
	}

	c.mu.Lock()
	pageID, ok := c.pageIDs[wallet]
	c.mu.Unlock()
	if ok {
		return pageID, nil
	}

	var resp createPageResponse
	err := c.post(ctx, "/api/create-notion-page", createPageRequest{WalletAddress: wallet}, &resp)
	if err != nil {
		return "", err
	}
	if resp.PageID == "" {
		return "", fmt.Errorf("relay returned no pageId")
	}

	c.mu.Lock()
	c.pageIDs[wallet] = resp.PageID
	c.mu.Unlock()
	return resp.PageID, nil
}

// SaveNote relays one note for wallet, provisioning a notebook first
// when needed.
func (c *Client) SaveNote(ctx context.Context, wallet string, content string) error {
	if _, err := c.EnsureNotebook(ctx, wallet); err != nil {
		return err
	}
	return c.post(ctx, "/api/append-note",
		appendNoteRequest{WalletAddress: wallet, Content: content}, nil)
}

// CachedNotebook reports the cached notebook id for wallet, if any.
func (c *Client) CachedNotebook(wallet string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pageID, ok := c.pageIDs[wallet]
	return pageID, ok
}

// Reset drops the cached binding for wallet, forcing the next
// EnsureNotebook to ask the relay again.
func (c *Client) Reset(wallet string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pageIDs, wallet)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("relay request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errBody errorResponse
		if json.Unmarshal(body, &errBody) == nil && errBody.Error != "" {
			if errBody.Details != "" {
				return fmt.Errorf("relay: %s: %s", errBody.Error, errBody.Details)
			}
			return fmt.Errorf("relay: %s", errBody.Error)
		}
		return fmt.Errorf("relay: unexpected status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
