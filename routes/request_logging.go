/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/flamego/flamego"

	"github.com/humaidq/labwise/db"
	"github.com/humaidq/labwise/logging"
)

var requestLogger = logging.Logger(logging.SourceWebRequest)

var userType = reflect.TypeOf((*db.User)(nil))

// RequestLogger logs request metadata and timing for each HTTP request.
func RequestLogger(c flamego.Context) {
	start := time.Now()

	c.Next()

	status := c.ResponseWriter().Status()
	if status == 0 {
		status = http.StatusOK
	}

	fields := []interface{}{
		"event", "request",
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	fields = append(fields, baseRequestFields(c)...)

	requestLogger.Info("request", fields...)
}

func logAccessDenied(c flamego.Context, reason string, extra ...interface{}) {
	fields := []interface{}{
		"event", "access_denied",
		"reason", reason,
		"status", http.StatusUnauthorized,
	}

	fields = append(fields, baseRequestFields(c)...)
	fields = append(fields, extra...)

	requestLogger.Warn("access denied", fields...)
}

func baseRequestFields(c flamego.Context) []interface{} {
	fields := []interface{}{
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"ip", clientIP(c),
		"user_agent", c.Request().UserAgent(),
	}

	if user := requestUser(c); user != nil {
		fields = append(fields, "authenticated", true, "user_id", user.ID)
	} else {
		fields = append(fields, "authenticated", false)
	}

	return fields
}

// requestUser returns the user mapped by RequireAuth, if any.
func requestUser(c flamego.Context) *db.User {
	value := c.Value(userType)
	if !value.IsValid() || value.IsNil() {
		return nil
	}

	user, _ := value.Interface().(*db.User)

	return user
}

func clientIP(c flamego.Context) string {
	forwardedFor := c.Request().Header.Get("X-Forwarded-For")
	if forwardedFor != "" {
		if idx := strings.Index(forwardedFor, ","); idx != -1 {
			forwardedFor = forwardedFor[:idx]
		}

		if ip := strings.TrimSpace(forwardedFor); ip != "" {
			return ip
		}
	}

	return c.RemoteAddr()
}
