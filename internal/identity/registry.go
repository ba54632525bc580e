// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package identity owns users and categories: registration, lookups and the
// case/width-insensitive uniqueness rules the content lifecycle depends on.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/keepreverse/newsline-go/internal/apperr"
	"github.com/keepreverse/newsline-go/internal/auth"
	"github.com/keepreverse/newsline-go/internal/model"
	"github.com/keepreverse/newsline-go/internal/store"
	"github.com/keepreverse/newsline-go/internal/util"
)

// Registry provides user and category operations.
type Registry struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRegistry creates a Registry backed by db.
func NewRegistry(db *sql.DB, logger *slog.Logger) *Registry {
	return &Registry{db: db, logger: logger}
}

// CreateUser registers a new user. Login and nickname must be unique under
// NFKC normalization and case folding; an unknown role falls back to
// Publisher. The password is hashed before storage.
func (r *Registry) CreateUser(ctx context.Context, login, password, nick, role string) (model.User, error) {
	login = strings.TrimSpace(login)
	nick = strings.TrimSpace(nick)
	if login == "" || password == "" || nick == "" {
		return model.User{}, apperr.Validation("login, password and nickname are required")
	}

	if !model.KnownRole(role) {
		role = model.RolePublisher
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return model.User{}, fmt.Errorf("hashing password: %w", err)
	}

	loginNorm := util.NormalizeKey(login)
	nickNorm := util.NormalizeKey(nick)

	var user model.User
	err = store.InTx(ctx, r.db, func(q *store.Queries) error {
		n, err := q.CountUserNormConflicts(ctx, store.CountUserNormConflictsParams{
			LoginNorm: loginNorm,
			NickNorm:  nickNorm,
		})
		if err != nil {
			return apperr.Storage(err)
		}
		if n > 0 {
			return apperr.Conflict("user already exists")
		}

		user, err = q.CreateUser(ctx, store.CreateUserParams{
			Login:        login,
			LoginNorm:    loginNorm,
			Nick:         nick,
			NickNorm:     nickNorm,
			PasswordHash: passwordHash,
			Role:         role,
			RegisteredAt: time.Now().UTC(),
		})
		if err != nil {
			return apperr.Storage(err)
		}
		return nil
	})
	if err != nil {
		return model.User{}, err
	}

	r.logger.Info("user registered", "id", user.ID, "login", user.Login, "role", user.Role)
	return user, nil
}

// FindUserByLogin fetches a user by exact login value.
func (r *Registry) FindUserByLogin(ctx context.Context, login string) (model.User, error) {
	user, err := store.New(r.db).GetUserByLogin(ctx, login)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return model.User{}, apperr.Storage(err)
	}
	return user, nil
}

// FindUserByNick fetches a user by exact nickname value.
func (r *Registry) FindUserByNick(ctx context.Context, nick string) (model.User, error) {
	user, err := store.New(r.db).GetUserByNick(ctx, nick)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return model.User{}, apperr.Storage(err)
	}
	return user, nil
}

// GetUser fetches a user by id.
func (r *Registry) GetUser(ctx context.Context, id int64) (model.User, error) {
	user, err := store.New(r.db).GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return model.User{}, apperr.Storage(err)
	}
	return user, nil
}

// ListUsers returns all users.
func (r *Registry) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := store.New(r.db).ListUsers(ctx)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return users, nil
}

// Authenticate verifies login credentials and returns the matching user.
func (r *Registry) Authenticate(ctx context.Context, login, password string) (model.User, error) {
	if login == "" || password == "" {
		return model.User{}, apperr.Validation("login and password are required")
	}

	user, err := store.New(r.db).GetUserByLogin(ctx, login)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, apperr.New(apperr.ErrAuth, "invalid login or password")
	}
	if err != nil {
		return model.User{}, apperr.Storage(err)
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		return model.User{}, fmt.Errorf("checking password: %w", err)
	}
	if !ok {
		return model.User{}, apperr.New(apperr.ErrAuth, "invalid login or password")
	}
	return user, nil
}

// UserUpdate describes a partial user update; nil fields are left unchanged.
// Only login, nickname and role are mutable.
type UserUpdate struct {
	Login *string
	Nick  *string
	Role  *string
}

// UpdateUser applies a partial update. The resulting login/nick must not
// collide with another user under normalization.
func (r *Registry) UpdateUser(ctx context.Context, id int64, upd UserUpdate) (model.User, error) {
	var user model.User
	err := store.InTx(ctx, r.db, func(q *store.Queries) error {
		var err error
		user, err = q.GetUserByID(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("user not found")
		}
		if err != nil {
			return apperr.Storage(err)
		}

		if upd.Login != nil {
			user.Login = strings.TrimSpace(*upd.Login)
		}
		if upd.Nick != nil {
			user.Nick = strings.TrimSpace(*upd.Nick)
		}
		if upd.Role != nil {
			if !model.KnownRole(*upd.Role) {
				return apperr.Validation("unknown role")
			}
			user.Role = *upd.Role
		}
		if user.Login == "" || user.Nick == "" {
			return apperr.Validation("login and nickname must not be empty")
		}

		loginNorm := util.NormalizeKey(user.Login)
		nickNorm := util.NormalizeKey(user.Nick)

		n, err := q.CountUserNormConflicts(ctx, store.CountUserNormConflictsParams{
			LoginNorm: loginNorm,
			NickNorm:  nickNorm,
			ExcludeID: id,
		})
		if err != nil {
			return apperr.Storage(err)
		}
		if n > 0 {
			return apperr.Validation("login or nickname already in use")
		}

		if err := q.UpdateUser(ctx, store.UpdateUserParams{
			ID:        id,
			Login:     user.Login,
			LoginNorm: loginNorm,
			Nick:      user.Nick,
			NickNorm:  nickNorm,
			Role:      user.Role,
		}); err != nil {
			return apperr.Storage(err)
		}
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

// CreateCategory creates a category with a normalized-unique name.
func (r *Registry) CreateCategory(ctx context.Context, name, description string) (model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Category{}, apperr.Validation("category name is required")
	}

	nameNorm := util.NormalizeKey(name)

	var category model.Category
	err := store.InTx(ctx, r.db, func(q *store.Queries) error {
		n, err := q.CountCategoryNormConflicts(ctx, nameNorm, 0)
		if err != nil {
			return apperr.Storage(err)
		}
		if n > 0 {
			return apperr.Conflict("category already exists")
		}

		category, err = q.CreateCategory(ctx, store.CreateCategoryParams{
			Name:        name,
			NameNorm:    nameNorm,
			Description: description,
		})
		if err != nil {
			return apperr.Storage(err)
		}
		return nil
	})
	if err != nil {
		return model.Category{}, err
	}
	return category, nil
}

// GetCategory fetches a category by id.
func (r *Registry) GetCategory(ctx context.Context, id int64) (model.Category, error) {
	category, err := store.New(r.db).GetCategoryByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Category{}, apperr.NotFound("category not found")
	}
	if err != nil {
		return model.Category{}, apperr.Storage(err)
	}
	return category, nil
}

// ListCategories returns all categories ordered by name.
func (r *Registry) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := store.New(r.db).ListCategories(ctx)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return categories, nil
}

// UpdateCategory rewrites a category's name and description under the same
// uniqueness contract as creation.
func (r *Registry) UpdateCategory(ctx context.Context, id int64, name, description string) (model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Category{}, apperr.Validation("category name is required")
	}

	nameNorm := util.NormalizeKey(name)

	err := store.InTx(ctx, r.db, func(q *store.Queries) error {
		if _, err := q.GetCategoryByID(ctx, id); errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("category not found")
		} else if err != nil {
			return apperr.Storage(err)
		}

		n, err := q.CountCategoryNormConflicts(ctx, nameNorm, id)
		if err != nil {
			return apperr.Storage(err)
		}
		if n > 0 {
			return apperr.Validation("category name already in use")
		}

		if err := q.UpdateCategory(ctx, store.UpdateCategoryParams{
			ID:          id,
			Name:        name,
			NameNorm:    nameNorm,
			Description: description,
		}); err != nil {
			return apperr.Storage(err)
		}
		return nil
	})
	if err != nil {
		return model.Category{}, err
	}
	return model.Category{ID: id, Name: name, Description: description}, nil
}

// DeleteCategory removes a category and clears category_id on referencing
// news items, both in one transaction. News items are never deleted by this.
func (r *Registry) DeleteCategory(ctx context.Context, id int64) error {
	err := store.InTx(ctx, r.db, func(q *store.Queries) error {
		if _, err := q.GetCategoryByID(ctx, id); errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("category not found")
		} else if err != nil {
			return apperr.Storage(err)
		}

		if err := q.ClearNewsCategory(ctx, id); err != nil {
			return apperr.Storage(err)
		}
		if err := q.DeleteCategory(ctx, id); err != nil {
			return apperr.Storage(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("category deleted", "id", id)
	return nil
}
