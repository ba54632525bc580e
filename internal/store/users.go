// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/keepreverse/newsline-go/internal/model"
)

const createUser = `
INSERT INTO users (login, login_norm, nick, nick_norm, password_hash, role, registered_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

// CreateUserParams holds the fields for CreateUser. The *_norm columns carry
// the NFKC-casefolded forms used for uniqueness checks.
type CreateUserParams struct {
	Login        string
	LoginNorm    string
	Nick         string
	NickNorm     string
	PasswordHash string
	Role         string
	RegisteredAt time.Time
}

// CreateUser inserts a user row and returns it with the assigned id.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	res, err := q.db.ExecContext(ctx, createUser,
		arg.Login, arg.LoginNorm, arg.Nick, arg.NickNorm,
		arg.PasswordHash, arg.Role, arg.RegisteredAt)
	if err != nil {
		return model.User{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}

	return model.User{
		ID:           id,
		Login:        arg.Login,
		Nick:         arg.Nick,
		PasswordHash: arg.PasswordHash,
		Role:         arg.Role,
		RegisteredAt: arg.RegisteredAt,
	}, nil
}

const getUserColumns = `id, login, nick, password_hash, role, registered_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Login, &u.Nick, &u.PasswordHash, &u.Role, &u.RegisteredAt)
	return u, err
}

// GetUserByID fetches a user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+getUserColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByLogin fetches a user by exact login value (not normalized).
func (q *Queries) GetUserByLogin(ctx context.Context, login string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+getUserColumns+` FROM users WHERE login = ?`, login))
}

// GetUserByNick fetches a user by exact nickname value (not normalized).
func (q *Queries) GetUserByNick(ctx context.Context, nick string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+getUserColumns+` FROM users WHERE nick = ?`, nick))
}

// CountUserNormConflictsParams selects users whose normalized login or nick
// collides, excluding ExcludeID (0 to exclude nobody).
type CountUserNormConflictsParams struct {
	LoginNorm string
	NickNorm  string
	ExcludeID int64
}

// CountUserNormConflicts returns the number of users colliding on the
// normalized login or nickname.
func (q *Queries) CountUserNormConflicts(ctx context.Context, arg CountUserNormConflictsParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE (login_norm = ? OR nick_norm = ?) AND id != ?`,
		arg.LoginNorm, arg.NickNorm, arg.ExcludeID).Scan(&n)
	return n, err
}

// ListUsers returns all users ordered by id.
func (q *Queries) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+getUserColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Login, &u.Nick, &u.PasswordHash, &u.Role, &u.RegisteredAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const updateUser = `
UPDATE users SET login = ?, login_norm = ?, nick = ?, nick_norm = ?, role = ?
WHERE id = ?
`

// UpdateUserParams holds the mutable user fields: login, nick and role.
type UpdateUserParams struct {
	ID        int64
	Login     string
	LoginNorm string
	Nick      string
	NickNorm  string
	Role      string
}

// UpdateUser rewrites the mutable fields of a user.
func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) error {
	_, err := q.db.ExecContext(ctx, updateUser,
		arg.Login, arg.LoginNorm, arg.Nick, arg.NickNorm, arg.Role, arg.ID)
	return err
}

// DeleteUser removes a user row. Content owned by the user must be purged
// first; the foreign key on news.publisher_id rejects dangling references.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}
