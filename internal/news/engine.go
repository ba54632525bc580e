// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package news implements the content lifecycle of news items: creation,
// editing, moderation, archiving, trash and purge. Every state transition
// runs in a single transaction together with its attachment record changes;
// blob files are only removed from disk after the transaction commits.
package news

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/keepreverse/newsline-go/internal/apperr"
	"github.com/keepreverse/newsline-go/internal/attach"
	"github.com/keepreverse/newsline-go/internal/cache"
	"github.com/keepreverse/newsline-go/internal/model"
	"github.com/keepreverse/newsline-go/internal/store"
	"github.com/keepreverse/newsline-go/internal/util"
)

// titlePolicy strips all markup from titles; bodyPolicy keeps the safe
// user-generated-content subset.
var (
	titlePolicy = bluemonday.StrictPolicy()
	bodyPolicy  = bluemonday.UGCPolicy()
)

// Engine drives the news state machine.
type Engine struct {
	db     *sql.DB
	q      *store.Queries
	files  *attach.Store
	cache  cache.Cache
	logger *slog.Logger
}

// NewEngine creates the lifecycle engine.
func NewEngine(db *sql.DB, files *attach.Store, c cache.Cache, logger *slog.Logger) *Engine {
	return &Engine{
		db:     db,
		q:      store.New(db),
		files:  files,
		cache:  c,
		logger: logger,
	}
}

// CreateParams describes a new news item. Uploads were already checked for
// size and extension at the transport boundary.
type CreateParams struct {
	PublisherID int64
	Title       string
	Body        string
	CategoryID  *int64
	EventStart  time.Time
	EventEnd    *time.Time
	Uploads     []attach.Upload
}

// UpdateParams describes an edit. KeepFileIDs is the keep-set: existing
// attachments absent from it are detached; ids in it that lost their link
// are re-linked. PublisherID, when set, reassigns the item's attribution.
// ForceApprove publishes a still-pending item as part of the same edit.
type UpdateParams struct {
	ID           int64
	EditorID     int64
	PublisherID  *int64
	Title        string
	Body         string
	CategoryID   *int64
	EventStart   time.Time
	EventEnd     *time.Time
	KeepFileIDs  []int64
	Uploads      []attach.Upload
	ForceApprove bool
}

type contentFields struct {
	title string
	body  string
}

// sanitizeContent cleans and validates the free-text fields shared by
// Create and Update.
func sanitizeContent(title, body string, eventStart time.Time, eventEnd *time.Time) (contentFields, error) {
	cf := contentFields{
		title: strings.TrimSpace(titlePolicy.Sanitize(title)),
		body:  strings.TrimSpace(bodyPolicy.Sanitize(body)),
	}
	if cf.title == "" {
		return cf, apperr.Validation("title is required")
	}
	if cf.body == "" {
		return cf, apperr.Validation("body is required")
	}
	if eventStart.IsZero() {
		return cf, apperr.Validation("event start date is required")
	}
	if eventEnd != nil && eventEnd.Before(eventStart) {
		return cf, apperr.Validation("event end date must not precede event start date")
	}
	return cf, nil
}

// Create inserts a Pending news item together with its attachments.
func (e *Engine) Create(ctx context.Context, p CreateParams) (model.NewsItem, error) {
	cf, err := sanitizeContent(p.Title, p.Body, p.EventStart, p.EventEnd)
	if err != nil {
		return model.NewsItem{}, err
	}

	var (
		newsID  int64
		written []string
	)
	err = store.InTx(ctx, e.db, func(q *store.Queries) error {
		// Attachments first, so a failed save aborts before any news row exists.
		attachments, blobs, err := e.files.SaveAll(ctx, q, p.Uploads)
		written = blobs
		if err != nil {
			return err
		}

		created, err := q.CreateNews(ctx, store.CreateNewsParams{
			PublisherID: p.PublisherID,
			Title:       cf.title,
			Body:        cf.body,
			CategoryID:  util.NullInt64FromPtr(p.CategoryID),
			EventStart:  p.EventStart,
			EventEnd:    util.NullTimeFromPtr(p.EventEnd),
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			return apperr.Storage(fmt.Errorf("creating news: %w", err))
		}
		newsID = created.ID
		return e.files.Link(ctx, q, newsID, attachmentIDs(attachments))
	})
	if err != nil {
		e.files.Cleanup(written)
		return model.NewsItem{}, err
	}

	e.invalidateCounts(ctx)
	return e.Get(ctx, newsID)
}

// Update rewrites a news item's content and reconciles its attachments
// against the keep-set. Trashed items cannot be edited.
func (e *Engine) Update(ctx context.Context, p UpdateParams) (model.NewsItem, error) {
	cf, err := sanitizeContent(p.Title, p.Body, p.EventStart, p.EventEnd)
	if err != nil {
		return model.NewsItem{}, err
	}

	var written, orphaned []string
	err = store.InTx(ctx, e.db, func(q *store.Queries) error {
		current, err := q.GetNews(ctx, p.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("news item not found")
		}
		if err != nil {
			return apperr.Storage(err)
		}
		if current.DeletedAt.Valid {
			return apperr.NotFound("news item not found")
		}

		publisherID := current.PublisherID
		if p.PublisherID != nil {
			if _, err := q.GetUserByID(ctx, *p.PublisherID); errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("publisher not found")
			} else if err != nil {
				return apperr.Storage(err)
			}
			publisherID = *p.PublisherID
		}

		if err := e.reconcileAttachments(ctx, q, p, &written, &orphaned); err != nil {
			return err
		}

		if err := q.UpdateNewsContent(ctx, store.UpdateNewsContentParams{
			ID:          p.ID,
			PublisherID: publisherID,
			Title:       cf.title,
			Body:        cf.body,
			CategoryID:  util.NullInt64FromPtr(p.CategoryID),
			EventStart:  p.EventStart,
			EventEnd:    util.NullTimeFromPtr(p.EventEnd),
		}); err != nil {
			return apperr.Storage(fmt.Errorf("updating news: %w", err))
		}

		if p.ForceApprove && current.Status == model.StatusPending {
			_, err := q.ApplyModeration(ctx, store.ApplyModerationParams{
				ID:          p.ID,
				Status:      model.StatusApproved,
				ModeratorID: p.EditorID,
				PublishedAt: util.NullTime(time.Now().UTC()),
			})
			if err != nil {
				return apperr.Storage(fmt.Errorf("approving news: %w", err))
			}
		}
		return nil
	})
	if err != nil {
		e.files.Cleanup(written)
		return model.NewsItem{}, err
	}

	e.files.RemoveBlobs(orphaned)
	e.invalidateCounts(ctx)
	return e.Get(ctx, p.ID)
}

// reconcileAttachments applies the keep-set: detaches links outside it,
// restores links inside it that went missing, and stores new uploads.
func (e *Engine) reconcileAttachments(ctx context.Context, q *store.Queries, p UpdateParams, written *[]string, orphaned *[]string) error {
	existing, err := e.files.List(ctx, q, p.ID)
	if err != nil {
		return err
	}

	keep := make(map[int64]bool, len(p.KeepFileIDs))
	for _, id := range p.KeepFileIDs {
		keep[id] = true
	}
	linked := make(map[int64]bool, len(existing))

	var remove []int64
	for _, att := range existing {
		linked[att.ID] = true
		if !keep[att.ID] {
			remove = append(remove, att.ID)
		}
	}

	gone, err := e.files.UnlinkAndCollect(ctx, q, p.ID, remove)
	if err != nil {
		return err
	}
	*orphaned = append(*orphaned, gone...)

	// Keep-set ids with a surviving record but a lost link get re-linked.
	for _, id := range p.KeepFileIDs {
		if linked[id] {
			continue
		}
		if _, err := q.GetFile(ctx, id); errors.Is(err, sql.ErrNoRows) {
			continue
		} else if err != nil {
			return apperr.Storage(err)
		}
		if err := e.files.Link(ctx, q, p.ID, []int64{id}); err != nil {
			return err
		}
	}

	added, blobs, err := e.files.SaveAll(ctx, q, p.Uploads)
	*written = blobs
	if err != nil {
		return err
	}
	return e.files.Link(ctx, q, p.ID, attachmentIDs(added))
}

// Moderate applies an approve or reject decision to a pending item.
// Approval stamps the publish date; rejection moves the item straight to
// trash. Concurrent decisions on the same item yield exactly one winner.
func (e *Engine) Moderate(ctx context.Context, newsID, moderatorID int64, approve bool) error {
	now := time.Now().UTC()
	params := store.ApplyModerationParams{
		ID:          newsID,
		ModeratorID: moderatorID,
	}
	if approve {
		params.Status = model.StatusApproved
		params.PublishedAt = util.NullTime(now)
	} else {
		params.Status = model.StatusRejected
		params.DeletedAt = util.NullTime(now)
	}

	err := store.InTx(ctx, e.db, func(q *store.Queries) error {
		n, err := q.ApplyModeration(ctx, params)
		if err != nil {
			return apperr.Storage(fmt.Errorf("moderating news: %w", err))
		}
		if n == 0 {
			return e.explainNoRows(ctx, q, newsID, "news item has already been moderated")
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.invalidateCounts(ctx)
	return nil
}

// Archive moves a non-archived, non-trashed item into the archive.
func (e *Engine) Archive(ctx context.Context, newsID int64) error {
	err := store.InTx(ctx, e.db, func(q *store.Queries) error {
		n, err := q.ArchiveNews(ctx, newsID, time.Now().UTC())
		if err != nil {
			return apperr.Storage(fmt.Errorf("archiving news: %w", err))
		}
		if n == 0 {
			return e.explainNoRows(ctx, q, newsID, "news item cannot be archived")
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.invalidateCounts(ctx)
	return nil
}

// RestoreArchived takes an archived item back out. With publish=true it goes
// live as Approved with a fresh publish date; otherwise it returns to
// Pending for editing, with no publish date.
func (e *Engine) RestoreArchived(ctx context.Context, newsID int64, publish bool) error {
	status := model.StatusPending
	var publishedAt sql.NullTime
	if publish {
		status = model.StatusApproved
		publishedAt = util.NullTime(time.Now().UTC())
	}

	err := store.InTx(ctx, e.db, func(q *store.Queries) error {
		n, err := q.RestoreArchivedNews(ctx, newsID, status, publishedAt)
		if err != nil {
			return apperr.Storage(fmt.Errorf("restoring archived news: %w", err))
		}
		if n == 0 {
			return e.explainNoRows(ctx, q, newsID, "news item is not archived")
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.invalidateCounts(ctx)
	return nil
}

// SoftDelete moves an item to trash. Rows and blobs stay; only read
// projections stop seeing the item.
func (e *Engine) SoftDelete(ctx context.Context, newsID int64) error {
	return e.SoftDeleteMany(ctx, []int64{newsID})
}

// SoftDeleteMany trashes several items in one transaction. Any item that is
// missing or already in trash aborts the whole batch.
func (e *Engine) SoftDeleteMany(ctx context.Context, newsIDs []int64) error {
	now := time.Now().UTC()
	err := store.InTx(ctx, e.db, func(q *store.Queries) error {
		for _, id := range newsIDs {
			n, err := q.SoftDeleteNews(ctx, id, now)
			if err != nil {
				return apperr.Storage(fmt.Errorf("trashing news %d: %w", id, err))
			}
			if n == 0 {
				return e.explainNoRows(ctx, q, id, "news item is already in trash")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.invalidateCounts(ctx)
	return nil
}

// RestoreFromTrash returns a trashed item to Pending with all lifecycle
// markers cleared, regardless of its status before deletion.
func (e *Engine) RestoreFromTrash(ctx context.Context, newsID int64) error {
	err := store.InTx(ctx, e.db, func(q *store.Queries) error {
		n, err := q.RestoreNewsFromTrash(ctx, newsID)
		if err != nil {
			return apperr.Storage(fmt.Errorf("restoring news from trash: %w", err))
		}
		if n == 0 {
			return e.explainNoRows(ctx, q, newsID, "news item is not in trash")
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.invalidateCounts(ctx)
	return nil
}

// Purge permanently deletes a trashed item: its row, its attachment links,
// and every attachment record no other item references. Orphaned blobs are
// removed from disk after the transaction commits.
func (e *Engine) Purge(ctx context.Context, newsID int64) error {
	var orphaned []string
	err := store.InTx(ctx, e.db, func(q *store.Queries) error {
		current, err := q.GetNews(ctx, newsID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("news item not found")
		}
		if err != nil {
			return apperr.Storage(err)
		}
		if !current.DeletedAt.Valid {
			return apperr.BusinessRule("only trashed news can be purged")
		}

		orphaned, err = e.purgeOne(ctx, q, newsID)
		return err
	})
	if err != nil {
		return err
	}

	e.files.RemoveBlobs(orphaned)
	e.invalidateCounts(ctx)
	return nil
}

// PurgeExpired permanently deletes every trashed item older than
// retentionDays and returns how many were purged.
func (e *Engine) PurgeExpired(ctx context.Context, retentionDays int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	var orphaned []string
	var purged int
	err := store.InTx(ctx, e.db, func(q *store.Queries) error {
		ids, err := q.ListTrashedNewsIDsBefore(ctx, cutoff)
		if err != nil {
			return apperr.Storage(err)
		}
		for _, id := range ids {
			gone, err := e.purgeOne(ctx, q, id)
			if err != nil {
				return err
			}
			orphaned = append(orphaned, gone...)
			purged++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	e.files.RemoveBlobs(orphaned)
	if purged > 0 {
		e.invalidateCounts(ctx)
	}
	return purged, nil
}

// DeleteUser removes a user together with everything they published:
// every news row, its links and exclusively-owned attachments, in one
// transaction. Moderation attribution on surviving items is cleared so the
// user row can go. Blobs follow after commit.
func (e *Engine) DeleteUser(ctx context.Context, userID int64) error {
	var orphaned []string
	err := store.InTx(ctx, e.db, func(q *store.Queries) error {
		if _, err := q.GetUserByID(ctx, userID); errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("user not found")
		} else if err != nil {
			return apperr.Storage(err)
		}

		ids, err := q.ListNewsIDsByPublisher(ctx, userID)
		if err != nil {
			return apperr.Storage(err)
		}
		for _, id := range ids {
			gone, err := e.purgeOne(ctx, q, id)
			if err != nil {
				return err
			}
			orphaned = append(orphaned, gone...)
		}

		if err := q.ClearNewsModerator(ctx, userID); err != nil {
			return apperr.Storage(fmt.Errorf("clearing moderator attribution: %w", err))
		}
		if err := q.DeleteUser(ctx, userID); err != nil {
			return apperr.Storage(fmt.Errorf("deleting user: %w", err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.files.RemoveBlobs(orphaned)
	e.invalidateCounts(ctx)
	return nil
}

// purgeOne deletes one news row with its attachment bookkeeping and returns
// the blob refs that lost their last reference.
func (e *Engine) purgeOne(ctx context.Context, q *store.Queries, newsID int64) ([]string, error) {
	orphaned, err := e.files.DeleteAllForNews(ctx, q, newsID)
	if err != nil {
		return nil, err
	}
	if err := q.DeleteNews(ctx, newsID); err != nil {
		return nil, apperr.Storage(fmt.Errorf("deleting news %d: %w", newsID, err))
	}
	return orphaned, nil
}

// explainNoRows turns a zero-rows conditioned update into the right error:
// NotFound when the row does not exist, otherwise the given business rule.
func (e *Engine) explainNoRows(ctx context.Context, q *store.Queries, newsID int64, rule string) error {
	_, err := q.GetNews(ctx, newsID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("news item not found")
	}
	if err != nil {
		return apperr.Storage(err)
	}
	return apperr.BusinessRule(rule)
}

func attachmentIDs(attachments []model.Attachment) []int64 {
	ids := make([]int64, len(attachments))
	for i, att := range attachments {
		ids[i] = att.ID
	}
	return ids
}
