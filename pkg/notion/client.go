// Copyright (C) 2026 Photon Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package notion is a minimal client for the Notion REST API, covering
// the three calls the relay needs: create a page under the configured
// database, append a paragraph block to a page, and retrieve the
// database (startup connectivity probe).
//
// The client deliberately does not model the full Notion object graph;
// request and response structs carry only the fields the relay reads.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.notion.com"

	// apiVersion is the Notion-Version header value. Bump deliberately:
	// payload shapes below are tied to this version.
	apiVersion = "2022-06-28"
)

// HTTPClient interface allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds client construction parameters.
type Config struct {
	// APIKey is the integration secret. Required for real calls.
	APIKey string

	// DatabaseID is the parent database new pages are created under.
	DatabaseID string

	// BaseURL overrides the Notion endpoint. Tests point this at a
	// local server; empty means the public API.
	BaseURL string

	// HTTPClient overrides the transport. Nil gets a 30s-timeout
	// default client.
	HTTPClient HTTPClient
}

// Client issues requests against the Notion API.
type Client struct {
	apiKey     string
	databaseID string
	baseURL    string
	http       HTTPClient
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	c := &Client{
		apiKey:     cfg.APIKey,
		databaseID: cfg.DatabaseID,
		baseURL:    cfg.BaseURL,
		http:       cfg.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	return c
}

// APIError is a non-2xx response from the platform, preserving the
// platform's own message for the caller to surface.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion: %d %s", e.StatusCode, e.Message)
}

// apiErrorBody is Notion's standard error envelope.
type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type richText struct {
	Type string   `json:"type,omitempty"`
	Text textBody `json:"text"`
}

type textBody struct {
	Content string `json:"content"`
}

type createPageRequest struct {
	Parent     pageParent          `json:"parent"`
	Properties map[string]property `json:"properties"`
}

type pageParent struct {
	DatabaseID string `json:"database_id"`
}

type property struct {
	Title    []richText `json:"title,omitempty"`
	RichText []richText `json:"rich_text,omitempty"`
}

type createPageResponse struct {
	ID string `json:"id"`
}

type appendBlocksRequest struct {
	Children []block `json:"children"`
}

type block struct {
	Object    string     `json:"object"`
	Type      string     `json:"type"`
	Paragraph *paragraph `json:"paragraph,omitempty"`
}

type paragraph struct {
	RichText []richText `json:"rich_text"`
}

// CreatePage creates a page under the configured database with the
// given title and a "Wallet Address" property holding the full wallet
// string. Returns the platform-issued page id.
func (c *Client) CreatePage(ctx context.Context, title string, walletAddress string) (string, error) {
	body := createPageRequest{
		Parent: pageParent{DatabaseID: c.databaseID},
		Properties: map[string]property{
			"Name": {
				Title: []richText{{Text: textBody{Content: title}}},
			},
			"Wallet Address": {
				RichText: []richText{{Text: textBody{Content: walletAddress}}},
			},
		},
	}

	var resp createPageResponse
	if err := c.do(ctx, http.MethodPost, "/v1/pages", body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// AppendParagraph appends one paragraph block holding content to the
// page (or block) identified by blockID.
func (c *Client) AppendParagraph(ctx context.Context, blockID string, content string) error {
	body := appendBlocksRequest{
		Children: []block{
			{
				Object: "block",
				Type:   "paragraph",
				Paragraph: &paragraph{
					RichText: []richText{{Type: "text", Text: textBody{Content: content}}},
				},
			},
		},
	}
	return c.do(ctx, http.MethodPatch, "/v1/blocks/"+blockID+"/children", body, nil)
}

// RetrieveDatabase fetches the configured database. The relay uses it
// only as a startup connectivity probe; the response body is discarded.
func (c *Client) RetrieveDatabase(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/v1/databases/"+c.databaseID, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", apiVersion)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("notion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody apiErrorBody
		msg := resp.Status
		if raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); readErr == nil {
			if json.Unmarshal(raw, &errBody) == nil && errBody.Message != "" {
				msg = errBody.Message
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
