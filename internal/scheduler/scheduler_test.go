// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/keepreverse/newsline-go/internal/apperr"
	"github.com/keepreverse/newsline-go/internal/attach"
	"github.com/keepreverse/newsline-go/internal/cache"
	"github.com/keepreverse/newsline-go/internal/model"
	"github.com/keepreverse/newsline-go/internal/news"
	"github.com/keepreverse/newsline-go/internal/store"
	"github.com/keepreverse/newsline-go/internal/testutil"
)

func TestSweepPurgesExpiredTrash(t *testing.T) {
	db := testutil.TestDB(t)
	logger := testutil.TestLogger()

	files, err := attach.NewStore(testutil.TestUploadsDir(t), logger)
	require.NoError(t, err)
	c := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { c.Close() })

	engine := news.NewEngine(db, files, c, logger)

	ctx := context.Background()
	q := store.New(db)
	publisher, err := q.CreateUser(ctx, store.CreateUserParams{
		Login: "pub", LoginNorm: "pub", Nick: "pub", NickNorm: "pub",
		PasswordHash: "x", Role: model.RolePublisher,
	})
	require.NoError(t, err)

	item, err := engine.Create(ctx, news.CreateParams{
		PublisherID: publisher.ID,
		Title:       "stale",
		Body:        "stale body",
		EventStart:  time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, engine.SoftDelete(ctx, item.ID))

	_, err = db.ExecContext(ctx,
		"UPDATE news SET deleted_at = ? WHERE id = ?",
		time.Now().UTC().AddDate(0, 0, -45), item.ID)
	require.NoError(t, err)

	s := New(engine, 30, logger)
	s.sweep()

	_, err = engine.GetTrashed(ctx, item.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStartStop(t *testing.T) {
	db := testutil.TestDB(t)
	logger := testutil.TestLogger()

	files, err := attach.NewStore(testutil.TestUploadsDir(t), logger)
	require.NoError(t, err)
	c := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { c.Close() })

	s := New(news.NewEngine(db, files, c, logger), 30, logger)
	require.NoError(t, s.Start())
	s.Stop()
}
