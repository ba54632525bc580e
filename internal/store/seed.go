// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/keepreverse/newsline-go/internal/auth"
	"github.com/keepreverse/newsline-go/internal/model"
	"github.com/keepreverse/newsline-go/internal/util"
)

// Default administrator credentials, meant to be changed right after the
// first login.
const (
	DefaultAdminLogin    = "admin"
	DefaultAdminPassword = "changeme"
	DefaultAdminNick     = "Administrator"
)

// Seed creates the default administrator account unless one already exists.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	_, err := queries.GetUserByLogin(ctx, DefaultAdminLogin)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user, err := queries.CreateUser(ctx, CreateUserParams{
		Login:        DefaultAdminLogin,
		LoginNorm:    util.NormalizeKey(DefaultAdminLogin),
		Nick:         DefaultAdminNick,
		NickNorm:     util.NormalizeKey(DefaultAdminNick),
		PasswordHash: passwordHash,
		Role:         model.RoleAdministrator,
		RegisteredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user",
		"id", user.ID,
		"login", user.Login,
		"password", DefaultAdminPassword,
	)

	return nil
}
