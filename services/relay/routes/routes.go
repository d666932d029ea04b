// Copyright (C) 2026 Photon Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/photonlabs/photon/pkg/notebook"
	"github.com/photonlabs/photon/services/relay/handlers"
	"github.com/photonlabs/photon/services/relay/observability"
)

// SetupRoutes registers the relay's HTTP surface. The /api paths are
// the ones the Photon web client calls; don't rename them.
func SetupRoutes(router *gin.Engine, svc *notebook.Service, metrics *observability.RelayMetrics) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/create-notion-page", handlers.CreateBinding(svc, metrics))
		api.POST("/append-note", handlers.AppendNote(svc, metrics))
	}
}
