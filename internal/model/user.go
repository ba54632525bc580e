// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including User, News, Category and Attachment structures.
package model

import (
	"time"
)

// User roles
const (
	RoleAdministrator = "Administrator"
	RoleModerator     = "Moderator"
	RolePublisher     = "Publisher"
)

// User represents a registered account.
type User struct {
	ID           int64     `json:"id"`
	Login        string    `json:"login"`
	Nick         string    `json:"nick"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Role         string    `json:"role"`
	RegisteredAt time.Time `json:"registered_at"`
}

// IsAdministrator returns true if the user has the Administrator role.
func (u *User) IsAdministrator() bool {
	return u.Role == RoleAdministrator
}

// CanModerate returns true if the user may moderate, archive, trash and purge news.
func (u *User) CanModerate() bool {
	return u.Role == RoleAdministrator || u.Role == RoleModerator
}

// KnownRole reports whether role is one of the three recognized roles.
func KnownRole(role string) bool {
	switch role {
	case RoleAdministrator, RoleModerator, RolePublisher:
		return true
	default:
		return false
	}
}
