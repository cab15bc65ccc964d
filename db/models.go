/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"time"

	"github.com/google/uuid"
)

// Gender is the self-reported gender of a user.
type Gender string

// Gender values accepted at registration.
const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Valid reports whether g is an accepted gender.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}

	return false
}

// User represents an account. The password and refresh token hashes are
// never serialized.
type User struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	Username         string     `json:"username" db:"username"`
	Email            string     `json:"email" db:"email"`
	Fullname         string     `json:"fullname" db:"fullname"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	Gender           Gender     `json:"gender" db:"gender"`
	DateOfBirth      *time.Time `json:"dateOfBirth,omitempty" db:"date_of_birth"`
	RefreshTokenHash *string    `json:"-" db:"refresh_token_hash"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time  `json:"updatedAt" db:"updated_at"`
}

// CreateUserInput defines data for creating a user.
type CreateUserInput struct {
	Username     string
	Email        string
	Fullname     string
	PasswordHash string
	Gender       Gender
	DateOfBirth  *time.Time
}
