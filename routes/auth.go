/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/flamego/flamego"
	"github.com/google/uuid"

	"github.com/humaidq/labwise/auth"
	"github.com/humaidq/labwise/db"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// UserStore is the user persistence the auth handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, input db.CreateUserInput) (*db.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByLogin(ctx context.Context, login string) (*db.User, error)
	SetRefreshTokenHash(ctx context.Context, id uuid.UUID, hash *string) error
}

// CookieConfig controls the token cookies.
type CookieConfig struct {
	// Secure marks cookies Secure and SameSite=None. Disable only for local
	// development over plain HTTP.
	Secure bool
}

// RequireAuth resolves the access token from the accessToken cookie or the
// Authorization header and maps the signed-in *db.User for later handlers.
func RequireAuth(c flamego.Context, tokens *auth.TokenIssuer, users UserStore) {
	token := accessTokenFrom(c.Request().Request)
	if token == "" {
		logAccessDenied(c, "missing_token")
		writeError(c, errUnauthorized)

		return
	}

	claims, err := tokens.VerifyAccess(token)
	if err != nil {
		logAccessDenied(c, "invalid_token", "error", err)
		writeError(c, errUnauthorized)

		return
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		logAccessDenied(c, "invalid_subject")
		writeError(c, errUnauthorized)

		return
	}

	user, err := users.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			logAccessDenied(c, "unknown_user", "user_id", userID)
			writeError(c, errUnauthorized)

			return
		}

		writeError(c, err)

		return
	}

	c.Map(user)
	c.Next()
}

func accessTokenFrom(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return ""
}

func setTokenCookie(w http.ResponseWriter, cfg CookieConfig, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cookieSameSite(cfg),
	})
}

func clearTokenCookie(w http.ResponseWriter, cfg CookieConfig, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cookieSameSite(cfg),
	})
}

func cookieSameSite(cfg CookieConfig) http.SameSite {
	if cfg.Secure {
		return http.SameSiteNoneMode
	}

	return http.SameSiteLaxMode
}
