/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package auth issues and verifies the access and refresh tokens used by the
// API and hashes user passwords.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 240 * time.Hour
)

var (
	// ErrInvalidToken is returned for tokens that fail signature, expiry or
	// claim checks.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrSecretRequired is returned when a signing secret is missing.
	ErrSecretRequired = errors.New("token signing secrets are required")
)

// Subject is the user identity embedded in an access token.
type Subject struct {
	ID       uuid.UUID
	Email    string
	Username string
	Fullname string
}

// AccessClaims are the claims of an access token.
type AccessClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	jwt.RegisteredClaims
}

// TokenConfig holds signing secrets and lifetimes.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenIssuer signs and verifies HS256 tokens. Access and refresh tokens use
// different secrets so one can never be presented as the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenIssuer validates cfg and returns an issuer.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, ErrSecretRequired
	}

	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("%w: access and refresh secrets must differ", ErrSecretRequired)
	}

	issuer := &TokenIssuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}

	if issuer.accessTTL <= 0 {
		issuer.accessTTL = DefaultAccessTTL
	}

	if issuer.refreshTTL <= 0 {
		issuer.refreshTTL = DefaultRefreshTTL
	}

	return issuer, nil
}

// AccessTTL is the lifetime of access tokens.
func (t *TokenIssuer) AccessTTL() time.Duration { return t.accessTTL }

// RefreshTTL is the lifetime of refresh tokens.
func (t *TokenIssuer) RefreshTTL() time.Duration { return t.refreshTTL }

// IssueAccess signs an access token for the subject.
func (t *TokenIssuer) IssueAccess(subject Subject) (string, error) {
	now := t.now()
	claims := AccessClaims{
		Email:    subject.Email,
		Username: subject.Username,
		Fullname: subject.Fullname,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.accessSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, nil
}

// IssueRefresh signs a refresh token for the user. Every token carries a
// unique id, so two tokens issued in the same second still differ.
func (t *TokenIssuer) IssueRefresh(userID uuid.UUID) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.refreshTTL)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return signed, nil
}

// VerifyAccess checks an access token and returns its claims.
func (t *TokenIssuer) VerifyAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := t.parse(token, claims, t.accessSecret); err != nil {
		return nil, err
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	return claims, nil
}

// VerifyRefresh checks a refresh token and returns the user id it was
// issued for.
func (t *TokenIssuer) VerifyRefresh(token string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	if err := t.parse(token, claims, t.refreshSecret); err != nil {
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	return userID, nil
}

func (t *TokenIssuer) parse(token string, claims jwt.Claims, secret []byte) error {
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return nil
}

// HashToken returns the hex SHA-256 of a token for storage.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
