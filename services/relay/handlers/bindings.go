// Copyright (C) 2026 Photon Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the relay's HTTP surface.
//
// The wire contract (paths, status codes, and error strings) matches
// what the Photon web client already ships against, so the literal
// messages here are load-bearing.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/photonlabs/photon/pkg/notebook"
	"github.com/photonlabs/photon/services/relay/observability"
)

type CreateBindingRequest struct {
	WalletAddress string `json:"walletAddress"`
}

type CreateBindingResponse struct {
	PageID string `json:"pageId"`
}

type AppendNoteRequest struct {
	WalletAddress string `json:"walletAddress"`
	Content       string `json:"content"`
}

// CreateBinding returns the notebook id for the caller's wallet,
// provisioning a new document on first use.
func CreateBinding(svc *notebook.Service, metrics *observability.RelayMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateBindingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			metrics.RecordError("create_binding", "invalid_request")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing walletAddress"})
			return
		}

		pageID, created, err := svc.EnsureNotebook(c.Request.Context(), req.WalletAddress)
		if errors.Is(err, notebook.ErrMissingWallet) {
			metrics.RecordError("create_binding", "invalid_request")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing walletAddress"})
			return
		}
		if err != nil {
			slog.Error("Notebook provisioning failed", "error", err)
			metrics.RecordError("create_binding", "provisioning_failed")
			metrics.RecordRequest("create_binding", "error")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to create Notion page",
				"details": err.Error(),
			})
			return
		}

		if created {
			metrics.RecordProvisioned()
		}
		metrics.RecordRequest("create_binding", "success")
		c.JSON(http.StatusOK, CreateBindingResponse{PageID: pageID})
	}
}

// AppendNote forwards one note to the notebook bound to the caller's
// wallet. No implicit provisioning: an unbound wallet is a 400.
func AppendNote(svc *notebook.Service, metrics *observability.RelayMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AppendNoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			metrics.RecordError("append_note", "invalid_request")
			c.JSON(http.StatusBadRequest, gin.H{"error": "No Notion page for this wallet"})
			return
		}

		err := svc.AppendNote(c.Request.Context(), req.WalletAddress, req.Content)
		switch {
		case errors.Is(err, notebook.ErrMissingWallet), errors.Is(err, notebook.ErrNoBinding):
			// An absent wallet resolves to no binding, same as the
			// original backend.
			metrics.RecordError("append_note", "no_binding")
			c.JSON(http.StatusBadRequest, gin.H{"error": "No Notion page for this wallet"})
		case err != nil:
			slog.Error("Note relay failed", "error", err)
			metrics.RecordError("append_note", "relay_failed")
			metrics.RecordRequest("append_note", "error")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to append note",
				"details": err.Error(),
			})
		default:
			metrics.RecordRequest("append_note", "success")
			c.JSON(http.StatusOK, gin.H{"success": true})
		}
	}
}
