/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"net/http"

	"github.com/flamego/flamego"
)

// NoCacheHeaders disables caching of API responses.
func NoCacheHeaders() flamego.Handler {
	return func(c flamego.Context) {
		header := c.ResponseWriter().Header()
		header.Set("Cache-Control", "no-store, max-age=0")
		header.Set("Pragma", "no-cache")
		header.Set("Expires", "0")

		c.Next()
	}
}

// WithCORS allows credentialed requests from origin and answers preflight
// requests before they reach the router. An empty origin disables CORS.
func WithCORS(origin string, next http.Handler) http.Handler {
	if origin == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("Access-Control-Allow-Origin", origin)
		header.Set("Access-Control-Allow-Credentials", "true")
		header.Add("Vary", "Origin")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			header.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)

			return
		}

		next.ServeHTTP(w, r)
	})
}

// NotFound answers unknown routes with the JSON envelope.
func NotFound(c flamego.Context) {
	writeJSON(c, http.StatusNotFound, nil, "route not found")
}
