// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/keepreverse/newsline-go/internal/model"
)

const createNews = `
INSERT INTO news (publisher_id, title, body, category_id, status, event_start, event_end, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

// CreateNewsParams holds the fields for CreateNews. Status is always
// Pending on creation; published_at, archived_at and deleted_at start null.
type CreateNewsParams struct {
	PublisherID int64
	Title       string
	Body        string
	CategoryID  sql.NullInt64
	EventStart  time.Time
	EventEnd    sql.NullTime
	CreatedAt   time.Time
}

// CreateNews inserts a news row in Pending status and returns it.
func (q *Queries) CreateNews(ctx context.Context, arg CreateNewsParams) (model.News, error) {
	res, err := q.db.ExecContext(ctx, createNews,
		arg.PublisherID, arg.Title, arg.Body, arg.CategoryID,
		model.StatusPending, arg.EventStart, arg.EventEnd, arg.CreatedAt)
	if err != nil {
		return model.News{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.News{}, err
	}

	return model.News{
		ID:          id,
		PublisherID: arg.PublisherID,
		Title:       arg.Title,
		Body:        arg.Body,
		CategoryID:  arg.CategoryID,
		Status:      model.StatusPending,
		EventStart:  arg.EventStart,
		EventEnd:    arg.EventEnd,
		CreatedAt:   arg.CreatedAt,
	}, nil
}

const newsColumns = `id, publisher_id, moderator_id, title, body, category_id, status,
	event_start, event_end, created_at, published_at, archived_at, deleted_at`

func scanNews(row *sql.Row) (model.News, error) {
	var n model.News
	err := row.Scan(&n.ID, &n.PublisherID, &n.ModeratorID, &n.Title, &n.Body,
		&n.CategoryID, &n.Status, &n.EventStart, &n.EventEnd,
		&n.CreatedAt, &n.PublishedAt, &n.ArchivedAt, &n.DeletedAt)
	return n, err
}

// GetNews fetches a raw news row by id, trashed or not. Read projections that
// must exclude the trash use GetNewsItem instead.
func (q *Queries) GetNews(ctx context.Context, id int64) (model.News, error) {
	return scanNews(q.db.QueryRowContext(ctx,
		`SELECT `+newsColumns+` FROM news WHERE id = ?`, id))
}

const updateNewsContent = `
UPDATE news
SET publisher_id = ?, title = ?, body = ?, category_id = ?, event_start = ?, event_end = ?
WHERE id = ?
`

// UpdateNewsContentParams holds the editable content fields of a news item.
type UpdateNewsContentParams struct {
	ID          int64
	PublisherID int64
	Title       string
	Body        string
	CategoryID  sql.NullInt64
	EventStart  time.Time
	EventEnd    sql.NullTime
}

// UpdateNewsContent rewrites the content fields without touching lifecycle state.
func (q *Queries) UpdateNewsContent(ctx context.Context, arg UpdateNewsContentParams) error {
	_, err := q.db.ExecContext(ctx, updateNewsContent,
		arg.PublisherID, arg.Title, arg.Body, arg.CategoryID,
		arg.EventStart, arg.EventEnd, arg.ID)
	return err
}

const applyModeration = `
UPDATE news
SET status = ?, moderator_id = ?, published_at = ?, deleted_at = ?
WHERE id = ? AND status = ? AND deleted_at IS NULL
`

// ApplyModerationParams carries a moderation decision. PublishedAt is set for
// approvals, DeletedAt for rejections; the update only lands while the row is
// still Pending and not trashed.
type ApplyModerationParams struct {
	ID          int64
	Status      string
	ModeratorID int64
	PublishedAt sql.NullTime
	DeletedAt   sql.NullTime
}

// ApplyModeration performs the status check and update as one statement so
// concurrent decisions on the same row serialize to a single winner.
// Returns the number of rows changed (0 when the item was already moderated).
func (q *Queries) ApplyModeration(ctx context.Context, arg ApplyModerationParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, applyModeration,
		arg.Status, arg.ModeratorID, arg.PublishedAt, arg.DeletedAt,
		arg.ID, model.StatusPending)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const archiveNews = `
UPDATE news
SET status = ?, archived_at = ?, deleted_at = NULL
WHERE id = ? AND status != ? AND deleted_at IS NULL
`

// ArchiveNews moves a non-archived, non-trashed item into the archive.
// Returns the number of rows changed (0 when already archived or trashed).
func (q *Queries) ArchiveNews(ctx context.Context, id int64, archivedAt time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, archiveNews,
		model.StatusArchived, archivedAt, id, model.StatusArchived)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const restoreArchivedNews = `
UPDATE news
SET status = ?, published_at = ?, archived_at = NULL, deleted_at = NULL
WHERE id = ? AND status = ?
`

// RestoreArchivedNews leaves the archive for the given status. PublishedAt
// carries the new publication time when the target status is Approved, and
// null when the item goes back to Pending.
// Returns the number of rows changed (0 when the item was not archived).
func (q *Queries) RestoreArchivedNews(ctx context.Context, id int64, status string, publishedAt sql.NullTime) (int64, error) {
	res, err := q.db.ExecContext(ctx, restoreArchivedNews,
		status, publishedAt, id, model.StatusArchived)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const softDeleteNews = `
UPDATE news
SET deleted_at = ?, archived_at = NULL, published_at = NULL
WHERE id = ? AND deleted_at IS NULL
`

// SoftDeleteNews moves an item to the trash, keeping its status but clearing
// the archive and publication markers.
// Returns the number of rows changed (0 when already trashed).
func (q *Queries) SoftDeleteNews(ctx context.Context, id int64, deletedAt time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, softDeleteNews, deletedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const restoreNewsFromTrash = `
UPDATE news
SET status = ?, deleted_at = NULL, archived_at = NULL, published_at = NULL
WHERE id = ? AND deleted_at IS NOT NULL
`

// RestoreNewsFromTrash returns a trashed item to Pending so it re-enters
// moderation regardless of its prior status.
// Returns the number of rows changed (0 when the item was not trashed).
func (q *Queries) RestoreNewsFromTrash(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, restoreNewsFromTrash, model.StatusPending, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ClearNewsModerator drops the moderator attribution from every news item
// the given user decided on. Must run before deleting the user row, which
// moderator_id references.
func (q *Queries) ClearNewsModerator(ctx context.Context, moderatorID int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE news SET moderator_id = NULL WHERE moderator_id = ?`, moderatorID)
	return err
}

// DeleteNews permanently removes a news row. Links and files must be removed
// first within the same transaction.
func (q *Queries) DeleteNews(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM news WHERE id = ?`, id)
	return err
}

// ListTrashedNewsIDsBefore returns ids of trashed items whose deleted_at is
// older than cutoff, used by the retention sweep.
func (q *Queries) ListTrashedNewsIDsBefore(ctx context.Context, cutoff time.Time) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id FROM news WHERE deleted_at IS NOT NULL AND deleted_at < ?`, cutoff)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectIDs(rows)
}

// ListNewsIDsByPublisher returns all news ids owned by a publisher, trashed
// included, used by the user-deletion cascade.
func (q *Queries) ListNewsIDsByPublisher(ctx context.Context, publisherID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id FROM news WHERE publisher_id = ?`, publisherID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectIDs(rows)
}

func collectIDs(rows *sql.Rows) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Read projections. Each joins publisher/moderator nicks and the category
// name; attachment lists are attached by the caller.

const newsItemColumns = `n.id, n.publisher_id, n.moderator_id, n.title, n.body, n.category_id,
	n.status, n.event_start, n.event_end, n.created_at, n.published_at, n.archived_at, n.deleted_at,
	up.nick, COALESCE(um.nick, ''), COALESCE(c.name, '')`

const newsItemJoins = `
FROM news n
JOIN users up ON up.id = n.publisher_id
LEFT JOIN users um ON um.id = n.moderator_id
LEFT JOIN categories c ON c.id = n.category_id
`

func (q *Queries) listNewsItems(ctx context.Context, where, orderBy string, args ...any) ([]model.NewsItem, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+newsItemColumns+newsItemJoins+where+orderBy, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []model.NewsItem
	for rows.Next() {
		var it model.NewsItem
		if err := rows.Scan(&it.ID, &it.PublisherID, &it.ModeratorID, &it.Title, &it.Body,
			&it.CategoryID, &it.Status, &it.EventStart, &it.EventEnd,
			&it.CreatedAt, &it.PublishedAt, &it.ArchivedAt, &it.DeletedAt,
			&it.PublisherNick, &it.ModeratorNick, &it.CategoryName); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListPublishedNews returns approved, non-trashed items, newest publish first.
func (q *Queries) ListPublishedNews(ctx context.Context) ([]model.NewsItem, error) {
	return q.listNewsItems(ctx,
		`WHERE n.status = ? AND n.deleted_at IS NULL`,
		` ORDER BY n.published_at DESC`, model.StatusApproved)
}

// ListPendingNews returns the moderation queue, newest first.
func (q *Queries) ListPendingNews(ctx context.Context) ([]model.NewsItem, error) {
	return q.listNewsItems(ctx,
		`WHERE n.status = ? AND n.deleted_at IS NULL`,
		` ORDER BY n.created_at DESC`, model.StatusPending)
}

// ListArchivedNews returns archived, non-trashed items, most recently archived first.
func (q *Queries) ListArchivedNews(ctx context.Context) ([]model.NewsItem, error) {
	return q.listNewsItems(ctx,
		`WHERE n.status = ? AND n.archived_at IS NOT NULL AND n.deleted_at IS NULL`,
		` ORDER BY n.archived_at DESC`, model.StatusArchived)
}

// ListTrashedNews returns trashed items, most recently deleted first.
func (q *Queries) ListTrashedNews(ctx context.Context) ([]model.NewsItem, error) {
	return q.listNewsItems(ctx,
		`WHERE n.deleted_at IS NOT NULL`,
		` ORDER BY n.deleted_at DESC`)
}

// GetNewsItem fetches a single non-trashed item with its joined names.
func (q *Queries) GetNewsItem(ctx context.Context, id int64) (model.NewsItem, error) {
	items, err := q.listNewsItems(ctx,
		`WHERE n.id = ? AND n.deleted_at IS NULL`, ``, id)
	if err != nil {
		return model.NewsItem{}, err
	}
	if len(items) == 0 {
		return model.NewsItem{}, sql.ErrNoRows
	}
	return items[0], nil
}

// GetTrashedNewsItem fetches a single trashed item with its joined names.
func (q *Queries) GetTrashedNewsItem(ctx context.Context, id int64) (model.NewsItem, error) {
	items, err := q.listNewsItems(ctx,
		`WHERE n.id = ? AND n.deleted_at IS NOT NULL`, ``, id)
	if err != nil {
		return model.NewsItem{}, err
	}
	if len(items) == 0 {
		return model.NewsItem{}, sql.ErrNoRows
	}
	return items[0], nil
}

// CountPublishedNews counts approved, non-trashed items.
func (q *Queries) CountPublishedNews(ctx context.Context) (int64, error) {
	return q.countNews(ctx,
		`SELECT COUNT(*) FROM news WHERE status = ? AND deleted_at IS NULL`, model.StatusApproved)
}

// CountPendingNews counts the moderation queue.
func (q *Queries) CountPendingNews(ctx context.Context) (int64, error) {
	return q.countNews(ctx,
		`SELECT COUNT(*) FROM news WHERE status = ? AND deleted_at IS NULL`, model.StatusPending)
}

// CountArchivedNews counts archived, non-trashed items.
func (q *Queries) CountArchivedNews(ctx context.Context) (int64, error) {
	return q.countNews(ctx,
		`SELECT COUNT(*) FROM news WHERE status = ? AND archived_at IS NOT NULL AND deleted_at IS NULL`,
		model.StatusArchived)
}

// CountTrashedNews counts items in the trash.
func (q *Queries) CountTrashedNews(ctx context.Context) (int64, error) {
	return q.countNews(ctx,
		`SELECT COUNT(*) FROM news WHERE deleted_at IS NOT NULL`)
}

func (q *Queries) countNews(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}
