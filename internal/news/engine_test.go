// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package news

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepreverse/newsline-go/internal/apperr"
	"github.com/keepreverse/newsline-go/internal/attach"
	"github.com/keepreverse/newsline-go/internal/cache"
	"github.com/keepreverse/newsline-go/internal/model"
	"github.com/keepreverse/newsline-go/internal/store"
	"github.com/keepreverse/newsline-go/internal/testutil"
)

type engineFixture struct {
	engine    *Engine
	db        *sql.DB
	files     *attach.Store
	publisher model.User
	moderator model.User
}

func newFixture(t *testing.T) *engineFixture {
	t.Helper()
	db := testutil.TestDB(t)
	logger := testutil.TestLogger()

	files, err := attach.NewStore(testutil.TestUploadsDir(t), logger)
	require.NoError(t, err)

	c := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { c.Close() })

	q := store.New(db)
	ctx := context.Background()
	publisher, err := q.CreateUser(ctx, store.CreateUserParams{
		Login: "writer", LoginNorm: "writer", Nick: "Writer", NickNorm: "writer",
		PasswordHash: "x", Role: model.RolePublisher,
	})
	require.NoError(t, err)
	moderator, err := q.CreateUser(ctx, store.CreateUserParams{
		Login: "mod", LoginNorm: "mod", Nick: "Mod", NickNorm: "mod",
		PasswordHash: "x", Role: model.RoleModerator,
	})
	require.NoError(t, err)

	return &engineFixture{
		engine:    NewEngine(db, files, c, logger),
		db:        db,
		files:     files,
		publisher: publisher,
		moderator: moderator,
	}
}

func (f *engineFixture) create(t *testing.T, uploads ...attach.Upload) model.NewsItem {
	t.Helper()
	item, err := f.engine.Create(context.Background(), CreateParams{
		PublisherID: f.publisher.ID,
		Title:       "City council meeting",
		Body:        "The council convenes on Friday.",
		EventStart:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Uploads:     uploads,
	})
	require.NoError(t, err)
	return item
}

func TestCreateStartsPendingWithAttachments(t *testing.T) {
	f := newFixture(t)

	item := f.create(t,
		attach.Upload{Data: []byte("one"), Filename: "one.png"},
		attach.Upload{Data: []byte("two"), Filename: "two.jpg"},
	)

	assert.Equal(t, model.StatusPending, item.Status)
	assert.False(t, item.PublishedAt.Valid)
	assert.Equal(t, "Writer", item.PublisherNick)
	require.Len(t, item.Attachments, 2)
	for _, att := range item.Attachments {
		_, err := os.Stat(f.files.BlobPath(att.BlobRef))
		assert.NoError(t, err)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	endBefore := start.Add(-time.Hour)

	cases := []struct {
		name   string
		params CreateParams
	}{
		{"missing title", CreateParams{PublisherID: f.publisher.ID, Body: "b", EventStart: start}},
		{"missing body", CreateParams{PublisherID: f.publisher.ID, Title: "t", EventStart: start}},
		{"missing event start", CreateParams{PublisherID: f.publisher.ID, Title: "t", Body: "b"}},
		{"event end before start", CreateParams{
			PublisherID: f.publisher.ID, Title: "t", Body: "b",
			EventStart: start, EventEnd: &endBefore,
		}},
		{"markup-only title", CreateParams{
			PublisherID: f.publisher.ID, Title: "<script>x()</script>", Body: "b", EventStart: start,
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.Create(ctx, tc.params)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestModerateApproveSetsPublishDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.create(t)

	require.NoError(t, f.engine.Moderate(ctx, item.ID, f.moderator.ID, true))

	got, err := f.engine.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)
	assert.True(t, got.PublishedAt.Valid)
	assert.Equal(t, "Mod", got.ModeratorNick)
}

func TestModerateRejectMovesToTrash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.create(t)

	require.NoError(t, f.engine.Moderate(ctx, item.ID, f.moderator.ID, false))

	_, err := f.engine.Get(ctx, item.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	trashed, err := f.engine.GetTrashed(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, trashed.Status)
	assert.True(t, trashed.DeletedAt.Valid)
	assert.False(t, trashed.PublishedAt.Valid)
}

func TestModerateTwiceHasOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.create(t)

	require.NoError(t, f.engine.Moderate(ctx, item.ID, f.moderator.ID, true))

	err := f.engine.Moderate(ctx, item.ID, f.moderator.ID, false)
	assert.ErrorIs(t, err, apperr.ErrBusinessRule)

	got, err := f.engine.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)
}

func TestModerateMissingItem(t *testing.T) {
	f := newFixture(t)
	err := f.engine.Moderate(context.Background(), 9999, f.moderator.ID, true)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateKeepSetReconcile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := f.create(t,
		attach.Upload{Data: []byte("a"), Filename: "a.png"},
		attach.Upload{Data: []byte("b"), Filename: "b.png"},
	)
	require.Len(t, item.Attachments, 2)
	keptA, droppedB := item.Attachments[0], item.Attachments[1]

	updated, err := f.engine.Update(ctx, UpdateParams{
		ID:          item.ID,
		EditorID:    f.publisher.ID,
		Title:       item.Title,
		Body:        item.Body,
		EventStart:  item.EventStart,
		KeepFileIDs: []int64{keptA.ID},
		Uploads:     []attach.Upload{{Data: []byte("c"), Filename: "c.gif"}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Attachments, 2)

	ids := map[int64]bool{updated.Attachments[0].ID: true, updated.Attachments[1].ID: true}
	assert.True(t, ids[keptA.ID])
	assert.False(t, ids[droppedB.ID])

	// B's record and blob are gone, A's blob survives.
	_, err = os.Stat(f.files.BlobPath(droppedB.BlobRef))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(f.files.BlobPath(keptA.BlobRef))
	assert.NoError(t, err)
}

func TestUpdateForceApprovePublishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.create(t)

	updated, err := f.engine.Update(ctx, UpdateParams{
		ID:           item.ID,
		EditorID:     f.moderator.ID,
		Title:        "Updated title",
		Body:         item.Body,
		EventStart:   item.EventStart,
		ForceApprove: true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, updated.Status)
	assert.True(t, updated.PublishedAt.Valid)
	assert.Equal(t, "Updated title", updated.Title)
}

func TestUpdateReassignsPublisher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.create(t)
	require.Equal(t, f.publisher.ID, item.PublisherID)

	updated, err := f.engine.Update(ctx, UpdateParams{
		ID:          item.ID,
		EditorID:    f.moderator.ID,
		PublisherID: &f.moderator.ID,
		Title:       item.Title,
		Body:        item.Body,
		EventStart:  item.EventStart,
	})
	require.NoError(t, err)
	assert.Equal(t, f.moderator.ID, updated.PublisherID)
	assert.Equal(t, "Mod", updated.PublisherNick)

	missing := int64(99999)
	_, err = f.engine.Update(ctx, UpdateParams{
		ID: item.ID, EditorID: f.moderator.ID, PublisherID: &missing,
		Title: item.Title, Body: item.Body, EventStart: item.EventStart,
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateTrashedItemNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.create(t)
	require.NoError(t, f.engine.SoftDelete(ctx, item.ID))

	_, err := f.engine.Update(ctx, UpdateParams{
		ID: item.ID, EditorID: f.publisher.ID,
		Title: "t", Body: "b", EventStart: item.EventStart,
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSoftDeleteRestoreNormalizesToPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.create(t)

	require.NoError(t, f.engine.Moderate(ctx, item.ID, f.moderator.ID, true))
	require.NoError(t, f.engine.SoftDelete(ctx, item.ID))
	require.NoError(t, f.engine.RestoreFromTrash(ctx, item.ID))

	got, err := f.engine.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.False(t, got.PublishedAt.Valid)
	assert.False(t, got.ArchivedAt.Valid)
	assert.False(t, got.DeletedAt.Valid)
}

func TestSoftDeleteManyAbortsOnTrashedItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.create(t)
	second := f.create(t)

	require.NoError(t, f.engine.SoftDelete(ctx, second.ID))

	err := f.engine.SoftDeleteMany(ctx, []int64{first.ID, second.ID})
	assert.ErrorIs(t, err, apperr.ErrBusinessRule)

	// The batch rolled back: first is still visible.
	_, err = f.engine.Get(ctx, first.ID)
	assert.NoError(t, err)
}

func TestTrashExcludedFromProjections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.create(t)
	require.NoError(t, f.engine.Moderate(ctx, item.ID, f.moderator.ID, true))
	require.NoError(t, f.engine.SoftDelete(ctx, item.ID))

	published, err := f.engine.ListPublished(ctx)
	require.NoError(t, err)
	assert.Empty(t, published)

	pending, err := f.engine.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	trash, err := f.engine.ListTrash(ctx)
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.Equal(t, item.ID, trash[0].ID)
}

func TestArchiveAndRestorePublish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.create(t)
	require.NoError(t, f.engine.Moderate(ctx, item.ID, f.moderator.ID, true))

	first, err := f.engine.Get(ctx, item.ID)
	require.NoError(t, err)

	require.NoError(t, f.engine.Archive(ctx, item.ID))
	archived, err := f.engine.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, archived.Status)
	assert.True(t, archived.ArchivedAt.Valid)

	err = f.engine.Archive(ctx, item.ID)
	assert.ErrorIs(t, err, apperr.ErrBusinessRule)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, f.engine.RestoreArchived(ctx, item.ID, true))
	restored, err := f.engine.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, restored.Status)
	assert.False(t, restored.ArchivedAt.Valid)
	require.True(t, restored.PublishedAt.Valid)
	// Publish date is stamped fresh on the way back out.
	assert.True(t, restored.PublishedAt.Time.After(first.PublishedAt.Time))
}

func TestRestoreArchivedForEditing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.create(t)
	require.NoError(t, f.engine.Moderate(ctx, item.ID, f.moderator.ID, true))
	require.NoError(t, f.engine.Archive(ctx, item.ID))

	require.NoError(t, f.engine.RestoreArchived(ctx, item.ID, false))
	got, err := f.engine.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.False(t, got.PublishedAt.Valid)
}

func TestRestoreArchivedRejectsNonArchived(t *testing.T) {
	f := newFixture(t)
	item := f.create(t)
	err := f.engine.RestoreArchived(context.Background(), item.ID, true)
	assert.ErrorIs(t, err, apperr.ErrBusinessRule)
}

func TestPurgeRemovesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.create(t, attach.Upload{Data: []byte("x"), Filename: "x.png"})
	blobRef := item.Attachments[0].BlobRef

	require.NoError(t, f.engine.SoftDelete(ctx, item.ID))
	require.NoError(t, f.engine.Purge(ctx, item.ID))

	_, err := f.engine.GetTrashed(ctx, item.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = store.New(f.db).GetFileByBlobRef(ctx, blobRef)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = os.Stat(f.files.BlobPath(blobRef))
	assert.True(t, os.IsNotExist(err))
}

func TestPurgeRequiresTrash(t *testing.T) {
	f := newFixture(t)
	item := f.create(t)
	err := f.engine.Purge(context.Background(), item.ID)
	assert.ErrorIs(t, err, apperr.ErrBusinessRule)
}

func TestPurgeExpiredHonorsRetention(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := f.create(t, attach.Upload{Data: []byte("old"), Filename: "old.png"})
	recent := f.create(t)

	require.NoError(t, f.engine.SoftDelete(ctx, old.ID))
	require.NoError(t, f.engine.SoftDelete(ctx, recent.ID))

	// Backdate the first deletion to 40 days ago.
	_, err := f.db.ExecContext(ctx,
		"UPDATE news SET deleted_at = ? WHERE id = ?",
		time.Now().UTC().AddDate(0, 0, -40), old.ID)
	require.NoError(t, err)

	purged, err := f.engine.PurgeExpired(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = f.engine.GetTrashed(ctx, old.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.engine.GetTrashed(ctx, recent.ID)
	assert.NoError(t, err)

	_, err = os.Stat(f.files.BlobPath(old.Attachments[0].BlobRef))
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteUserCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.create(t, attach.Upload{Data: []byte("x"), Filename: "x.jpeg"})
	blobRef := item.Attachments[0].BlobRef

	require.NoError(t, f.engine.DeleteUser(ctx, f.publisher.ID))

	_, err := store.New(f.db).GetUserByID(ctx, f.publisher.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = f.engine.Get(ctx, item.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.engine.GetTrashed(ctx, item.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = os.Stat(f.files.BlobPath(blobRef))
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteUserClearsModerationAttribution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := f.create(t)
	require.NoError(t, f.engine.Moderate(ctx, item.ID, f.moderator.ID, true))

	require.NoError(t, f.engine.DeleteUser(ctx, f.moderator.ID))

	_, err := store.New(f.db).GetUserByID(ctx, f.moderator.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	// The publisher's item survives, published, with the attribution gone.
	got, err := f.engine.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)
	assert.True(t, got.PublishedAt.Valid)
	assert.False(t, got.ModeratorID.Valid)
	assert.Empty(t, got.ModeratorNick)
}

func TestCountsTrackLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	counts, err := f.engine.GetCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{}, counts)

	item := f.create(t)
	counts, err = f.engine.GetCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Pending)

	require.NoError(t, f.engine.Moderate(ctx, item.ID, f.moderator.ID, true))
	counts, err = f.engine.GetCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Published: 1}, counts)

	require.NoError(t, f.engine.SoftDelete(ctx, item.ID))
	counts, err = f.engine.GetCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Trashed: 1}, counts)
}
