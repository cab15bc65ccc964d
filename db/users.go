/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, email, fullname, password_hash, gender, date_of_birth,
	refresh_token_hash, created_at, updated_at`

// UserStore reads and writes accounts.
type UserStore struct{}

func scanUser(row pgx.Row) (*User, error) {
	var user User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Fullname,
		&user.PasswordHash,
		&user.Gender,
		&user.DateOfBirth,
		&user.RefreshTokenHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &user, nil
}

// CreateUser inserts a user. Username and email are stored trimmed and
// lower-cased; a clash on either returns ErrUserExists.
func (UserStore) CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		INSERT INTO users (username, email, fullname, password_hash, gender, date_of_birth)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	user, err := scanUser(pool.QueryRow(ctx, query,
		normalizeLogin(input.Username),
		normalizeLogin(input.Email),
		strings.TrimSpace(input.Fullname),
		input.PasswordHash,
		input.Gender,
		input.DateOfBirth,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}

		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUserByID returns a user by ID.
func (UserStore) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	user, err := scanUser(pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetUserByLogin returns the user whose username or email equals login.
func (UserStore) GetUserByLogin(ctx context.Context, login string) (*User, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	login = normalizeLogin(login)
	if login == "" {
		return nil, ErrUserNotFound
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $1 LIMIT 1`

	user, err := scanUser(pool.QueryRow(ctx, query, login))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to get user by login: %w", err)
	}

	return user, nil
}

// SetRefreshTokenHash stores the hash of the user's current refresh token.
// A nil hash signs the user out everywhere.
func (UserStore) SetRefreshTokenHash(ctx context.Context, id uuid.UUID, hash *string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	command, err := pool.Exec(ctx,
		`UPDATE users SET refresh_token_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}

	if command.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func normalizeLogin(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
