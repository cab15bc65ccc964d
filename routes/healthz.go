/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/flamego/flamego"
)

const healthzTimeout = 2 * time.Second

// Pinger checks a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthzResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Healthz reports liveness together with database reachability.
func Healthz(c flamego.Context, database Pinger) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthzTimeout)
	defer cancel()

	if err := database.Ping(ctx); err != nil {
		logger.Warn("Health check failed", "error", err)
		writeJSON(c, http.StatusServiceUnavailable,
			healthzResponse{Status: "degraded", Database: "unreachable"}, "database unreachable")

		return
	}

	writeJSON(c, http.StatusOK, healthzResponse{Status: "ok", Database: "ok"}, "service healthy")
}
