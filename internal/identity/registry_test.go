// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package identity

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepreverse/newsline-go/internal/apperr"
	"github.com/keepreverse/newsline-go/internal/model"
	"github.com/keepreverse/newsline-go/internal/store"
	"github.com/keepreverse/newsline-go/internal/testutil"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(testutil.TestDB(t), testutil.TestLogger())
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	user, err := r.CreateUser(ctx, "alice", "s3cret-pass", "Alice", model.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Login)
	assert.Equal(t, model.RoleModerator, user.Role)
	assert.NotEmpty(t, user.PasswordHash)

	got, err := r.Authenticate(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = r.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, apperr.ErrAuth)

	_, err = r.Authenticate(ctx, "nobody", "s3cret-pass")
	assert.ErrorIs(t, err, apperr.ErrAuth)
}

func TestUserLookups(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	user, err := r.CreateUser(ctx, "carol", "pw-123456", "Carol", model.RolePublisher)
	require.NoError(t, err)

	byLogin, err := r.FindUserByLogin(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byLogin.ID)

	byNick, err := r.FindUserByNick(ctx, "Carol")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byNick.ID)

	byID, err := r.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol", byID.Login)

	// Exact-value lookups do not normalize.
	_, err = r.FindUserByLogin(ctx, "CAROL")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = r.FindUserByNick(ctx, "carol")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = r.GetUser(ctx, 99999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateUserUnknownRoleDefaultsToPublisher(t *testing.T) {
	r := newRegistry(t)

	user, err := r.CreateUser(context.Background(), "bob", "pw-123456", "Bob", "Superuser")
	require.NoError(t, err)
	assert.Equal(t, model.RolePublisher, user.Role)
}

func TestCreateUserNormalizedConflicts(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	_, err := r.CreateUser(ctx, "Admin", "pw-123456", "Chief", model.RolePublisher)
	require.NoError(t, err)

	cases := []struct {
		name  string
		login string
		nick  string
	}{
		{"case-folded login", "admin", "Other"},
		{"fullwidth login", "Ａｄｍｉｎ", "Another"},
		{"case-folded nick", "fresh", "chief"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.CreateUser(ctx, tc.login, "pw-123456", tc.nick, model.RolePublisher)
			assert.ErrorIs(t, err, apperr.ErrConflict)
		})
	}
}

func TestCreateUserValidation(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	_, err := r.CreateUser(ctx, "", "pw", "nick", model.RolePublisher)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = r.CreateUser(ctx, "login", "", "nick", model.RolePublisher)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = r.CreateUser(ctx, "login", "pw", "   ", model.RolePublisher)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateUserPartialAndCollision(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	alice, err := r.CreateUser(ctx, "alice", "pw-123456", "Alice", model.RolePublisher)
	require.NoError(t, err)
	_, err = r.CreateUser(ctx, "bob", "pw-123456", "Bob", model.RolePublisher)
	require.NoError(t, err)

	newNick := "Alicia"
	updated, err := r.UpdateUser(ctx, alice.ID, UserUpdate{Nick: &newNick})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.Nick)
	assert.Equal(t, "alice", updated.Login)

	// Login colliding with bob under normalization is rejected.
	taken := "BOB"
	_, err = r.UpdateUser(ctx, alice.ID, UserUpdate{Login: &taken})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = r.UpdateUser(ctx, 9999, UserUpdate{Nick: &newNick})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCategoryLifecycle(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	cat, err := r.CreateCategory(ctx, "Politics", "City politics")
	require.NoError(t, err)
	assert.Equal(t, "Politics", cat.Name)

	_, err = r.CreateCategory(ctx, "ｐｏｌｉｔｉｃｓ", "dupe")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	updated, err := r.UpdateCategory(ctx, cat.ID, "Local politics", "renamed")
	require.NoError(t, err)
	assert.Equal(t, "Local politics", updated.Name)

	list, err := r.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, r.DeleteCategory(ctx, cat.ID))
	_, err = r.GetCategory(ctx, cat.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteCategoryClearsNewsReferences(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	cat, err := r.CreateCategory(ctx, "Sports", "")
	require.NoError(t, err)
	user, err := r.CreateUser(ctx, "writer", "pw-123456", "Writer", model.RolePublisher)
	require.NoError(t, err)

	q := store.New(r.db)
	item, err := q.CreateNews(ctx, store.CreateNewsParams{
		PublisherID: user.ID, Title: "t", Body: "b",
		CategoryID: sql.NullInt64{Int64: cat.ID, Valid: true},
	})
	require.NoError(t, err)

	require.NoError(t, r.DeleteCategory(ctx, cat.ID))

	got, err := q.GetNews(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, got.CategoryID.Valid)
}
