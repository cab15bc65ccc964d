/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrDatabaseURLNotSet                = errors.New("database URL is not set")
	ErrDatabaseNameNotSpecified         = errors.New("database name not specified in connection string")
	ErrDatabaseConnectionNotInitialized = errors.New("database connection not initialized")
	ErrUserNotFound                     = errors.New("user not found")
	ErrUserExists                       = errors.New("user with this username or email already exists")
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
