/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/flamego/flamego"

	"github.com/humaidq/labwise/auth"
	"github.com/humaidq/labwise/db"
)

const minPasswordLength = 8

type registerRequest struct {
	Fullname    string `json:"fullname"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"dateOfBirth"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type sessionResponse struct {
	User         *db.User `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
}

// Register creates an account.
func Register(c flamego.Context, users UserStore) {
	var req registerRequest
	if err := decodeJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	input, err := req.validate()
	if err != nil {
		writeError(c, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	input.PasswordHash = hash

	user, err := users.CreateUser(c.Request().Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}

	logger.Info("User registered", "user_id", user.ID, "username", user.Username)
	writeJSON(c, http.StatusCreated, user, "user registered successfully")
}

func (r registerRequest) validate() (db.CreateUserInput, error) {
	input := db.CreateUserInput{
		Username: strings.ToLower(strings.TrimSpace(r.Username)),
		Email:    strings.ToLower(strings.TrimSpace(r.Email)),
		Fullname: strings.TrimSpace(r.Fullname),
		Gender:   db.Gender(strings.TrimSpace(r.Gender)),
	}

	if input.Username == "" || input.Email == "" || input.Fullname == "" ||
		r.Password == "" || input.Gender == "" || strings.TrimSpace(r.DateOfBirth) == "" {
		return input, badRequest("all fields are required")
	}

	if !strings.Contains(input.Email, "@") {
		return input, badRequest("email address is invalid")
	}

	if len(r.Password) < minPasswordLength {
		return input, badRequest("password must be at least 8 characters")
	}

	if !input.Gender.Valid() {
		return input, badRequest("gender must be one of Male, Female, Other")
	}

	dob, err := parseDateOfBirth(r.DateOfBirth)
	if err != nil {
		return input, err
	}

	input.DateOfBirth = &dob

	return input, nil
}

func parseDateOfBirth(value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			if parsed.After(time.Now()) {
				return time.Time{}, badRequest("date of birth cannot be in the future")
			}

			return parsed.UTC(), nil
		}
	}

	return time.Time{}, badRequest("date of birth must be formatted as YYYY-MM-DD")
}

// Login verifies credentials and starts a session.
func Login(c flamego.Context, users UserStore, tokens *auth.TokenIssuer, cookies CookieConfig) {
	var req loginRequest
	if err := decodeJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	login := req.Username
	if strings.TrimSpace(login) == "" {
		login = req.Email
	}

	if strings.TrimSpace(login) == "" || req.Password == "" {
		writeError(c, badRequest("username or email and password are required"))
		return
	}

	ctx := c.Request().Context()

	user, err := users.GetUserByLogin(ctx, login)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			logAccessDenied(c, "bad_password", "user_id", user.ID)
			writeError(c, errInvalidCredentials)

			return
		}

		writeError(c, err)

		return
	}

	session, err := startSession(c, users, tokens, cookies, user)
	if err != nil {
		writeError(c, err)
		return
	}

	logger.Info("User logged in", "user_id", user.ID)
	writeJSON(c, http.StatusOK, session, "user logged in successfully")
}

// Logout revokes the refresh token and clears the cookies.
func Logout(c flamego.Context, user *db.User, users UserStore, cookies CookieConfig) {
	if err := users.SetRefreshTokenHash(c.Request().Context(), user.ID, nil); err != nil {
		writeError(c, err)
		return
	}

	clearTokenCookie(c.ResponseWriter(), cookies, accessTokenCookie)
	clearTokenCookie(c.ResponseWriter(), cookies, refreshTokenCookie)

	writeJSON(c, http.StatusOK, struct{}{}, "user logged out")
}

// RefreshToken rotates both tokens. The presented refresh token must be the
// one most recently issued to the user.
func RefreshToken(c flamego.Context, users UserStore, tokens *auth.TokenIssuer, cookies CookieConfig) {
	token := ""
	if cookie, err := c.Request().Cookie(refreshTokenCookie); err == nil {
		token = cookie.Value
	}

	if token == "" {
		var req refreshRequest
		if err := decodeJSON(c, &req); err == nil {
			token = strings.TrimSpace(req.RefreshToken)
		}
	}

	if token == "" {
		logAccessDenied(c, "missing_refresh_token")
		writeError(c, errUnauthorized)

		return
	}

	userID, err := tokens.VerifyRefresh(token)
	if err != nil {
		logAccessDenied(c, "invalid_refresh_token", "error", err)
		writeError(c, errUnauthorized)

		return
	}

	user, err := users.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			writeError(c, errUnauthorized)
			return
		}

		writeError(c, err)

		return
	}

	if user.RefreshTokenHash == nil ||
		subtle.ConstantTimeCompare([]byte(*user.RefreshTokenHash), []byte(auth.HashToken(token))) != 1 {
		logAccessDenied(c, "stale_refresh_token", "user_id", user.ID)
		writeError(c, errInvalidRefresh)

		return
	}

	session, err := startSession(c, users, tokens, cookies, user)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, session, "access token refreshed")
}

// CurrentUser returns the signed-in user.
func CurrentUser(c flamego.Context, user *db.User) {
	writeJSON(c, http.StatusOK, user, "current user fetched successfully")
}

func startSession(c flamego.Context, users UserStore, tokens *auth.TokenIssuer, cookies CookieConfig, user *db.User) (*sessionResponse, error) {
	access, err := tokens.IssueAccess(auth.Subject{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Fullname: user.Fullname,
	})
	if err != nil {
		return nil, err
	}

	refresh, err := tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}

	hash := auth.HashToken(refresh)
	if err := users.SetRefreshTokenHash(c.Request().Context(), user.ID, &hash); err != nil {
		return nil, err
	}

	setTokenCookie(c.ResponseWriter(), cookies, accessTokenCookie, access, tokens.AccessTTL())
	setTokenCookie(c.ResponseWriter(), cookies, refreshTokenCookie, refresh, tokens.RefreshTTL())

	return &sessionResponse{User: user, AccessToken: access, RefreshToken: refresh}, nil
}
