// Copyright (C) 2026 Photon Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package notion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock HTTP Client ---

type MockHTTPClient struct {
	DoFunc   func(req *http.Request) (*http.Response, error)
	Requests []*http.Request
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.Requests = append(m.Requests, req)
	return m.DoFunc(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(mock *MockHTTPClient) *Client {
	return New(Config{
		APIKey:     "secret_test",
		DatabaseID: "db-123",
		HTTPClient: mock,
	})
}

func TestCreatePageSendsExpectedPayload(t *testing.T) {
	mock := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"id":"page-1"}`), nil
		},
	}
	client := newTestClient(mock)

	pageID, err := client.CreatePage(context.Background(), "Physics Notes - 0xABC123", "0xABC123456789")
	require.NoError(t, err)
	assert.Equal(t, "page-1", pageID)

	require.Len(t, mock.Requests, 1)
	req := mock.Requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "https://api.notion.com/v1/pages", req.URL.String())
	assert.Equal(t, "Bearer secret_test", req.Header.Get("Authorization"))
	assert.Equal(t, "2022-06-28", req.Header.Get("Notion-Version"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	raw, err := io.ReadAll(req.Body)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))

	parent := payload["parent"].(map[string]any)
	assert.Equal(t, "db-123", parent["database_id"])

	props := payload["properties"].(map[string]any)
	name := props["Name"].(map[string]any)
	title := name["title"].([]any)[0].(map[string]any)
	assert.Equal(t, "Physics Notes - 0xABC123",
		title["text"].(map[string]any)["content"])

	wallet := props["Wallet Address"].(map[string]any)
	rich := wallet["rich_text"].([]any)[0].(map[string]any)
	assert.Equal(t, "0xABC123456789",
		rich["text"].(map[string]any)["content"])
}

func TestAppendParagraphTargetsBlockChildren(t *testing.T) {
	mock := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{}`), nil
		},
	}
	client := newTestClient(mock)

	err := client.AppendParagraph(context.Background(), "page-1", "hello world")
	require.NoError(t, err)

	require.Len(t, mock.Requests, 1)
	req := mock.Requests[0]
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "https://api.notion.com/v1/blocks/page-1/children", req.URL.String())

	raw, err := io.ReadAll(req.Body)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))

	children := payload["children"].([]any)
	require.Len(t, children, 1)
	blk := children[0].(map[string]any)
	assert.Equal(t, "block", blk["object"])
	assert.Equal(t, "paragraph", blk["type"])

	rich := blk["paragraph"].(map[string]any)["rich_text"].([]any)[0].(map[string]any)
	assert.Equal(t, "text", rich["type"])
	assert.Equal(t, "hello world", rich["text"].(map[string]any)["content"])
}

func TestRetrieveDatabaseProbesConfiguredDatabase(t *testing.T) {
	mock := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"id":"db-123"}`), nil
		},
	}
	client := newTestClient(mock)

	require.NoError(t, client.RetrieveDatabase(context.Background()))
	require.Len(t, mock.Requests, 1)
	assert.Equal(t, http.MethodGet, mock.Requests[0].Method)
	assert.Equal(t, "https://api.notion.com/v1/databases/db-123", mock.Requests[0].URL.String())
}

func TestNon2xxSurfacesPlatformMessage(t *testing.T) {
	mock := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusBadRequest,
				`{"code":"validation_error","message":"parent database not found"}`), nil
		},
	}
	client := newTestClient(mock)

	_, err := client.CreatePage(context.Background(), "title", "0xABC")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "parent database not found", apiErr.Message)
}

func TestTransportErrorIsWrapped(t *testing.T) {
	transportErr := errors.New("connection refused")
	mock := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return nil, transportErr
		},
	}
	client := newTestClient(mock)

	err := client.AppendParagraph(context.Background(), "page-1", "note")
	assert.ErrorIs(t, err, transportErr)
}
