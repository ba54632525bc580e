// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package news

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/keepreverse/newsline-go/internal/apperr"
	"github.com/keepreverse/newsline-go/internal/model"
)

const (
	countsCacheKey = "news:counts"
	countsCacheTTL = 5 * time.Minute
)

// Counts carries the dashboard badge numbers.
type Counts struct {
	Published int64 `json:"published"`
	Pending   int64 `json:"pending"`
	Archived  int64 `json:"archived"`
	Trashed   int64 `json:"trashed"`
}

// Get returns one news item with its attachments. Trashed items are not
// visible here.
func (e *Engine) Get(ctx context.Context, newsID int64) (model.NewsItem, error) {
	item, err := e.q.GetNewsItem(ctx, newsID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewsItem{}, apperr.NotFound("news item not found")
	}
	if err != nil {
		return model.NewsItem{}, apperr.Storage(err)
	}
	return e.withAttachments(ctx, item)
}

// GetTrashed returns one item from the trash.
func (e *Engine) GetTrashed(ctx context.Context, newsID int64) (model.NewsItem, error) {
	item, err := e.q.GetTrashedNewsItem(ctx, newsID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewsItem{}, apperr.NotFound("news item not found")
	}
	if err != nil {
		return model.NewsItem{}, apperr.Storage(err)
	}
	return e.withAttachments(ctx, item)
}

// ListPublished returns approved, non-trashed items, newest publish first.
func (e *Engine) ListPublished(ctx context.Context) ([]model.NewsItem, error) {
	items, err := e.q.ListPublishedNews(ctx)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return e.allWithAttachments(ctx, items)
}

// ListPending returns items awaiting moderation.
func (e *Engine) ListPending(ctx context.Context) ([]model.NewsItem, error) {
	items, err := e.q.ListPendingNews(ctx)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return e.allWithAttachments(ctx, items)
}

// ListArchived returns archived, non-trashed items.
func (e *Engine) ListArchived(ctx context.Context) ([]model.NewsItem, error) {
	items, err := e.q.ListArchivedNews(ctx)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return e.allWithAttachments(ctx, items)
}

// ListTrash returns trashed items, most recently deleted first.
func (e *Engine) ListTrash(ctx context.Context) ([]model.NewsItem, error) {
	items, err := e.q.ListTrashedNews(ctx)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return e.allWithAttachments(ctx, items)
}

// GetCounts returns the dashboard counts, served from cache when fresh.
func (e *Engine) GetCounts(ctx context.Context) (Counts, error) {
	if data, err := e.cache.Get(ctx, countsCacheKey); err == nil {
		var cached Counts
		if json.Unmarshal(data, &cached) == nil {
			return cached, nil
		}
	}

	var counts Counts
	var err error
	if counts.Published, err = e.q.CountPublishedNews(ctx); err != nil {
		return Counts{}, apperr.Storage(err)
	}
	if counts.Pending, err = e.q.CountPendingNews(ctx); err != nil {
		return Counts{}, apperr.Storage(err)
	}
	if counts.Archived, err = e.q.CountArchivedNews(ctx); err != nil {
		return Counts{}, apperr.Storage(err)
	}
	if counts.Trashed, err = e.q.CountTrashedNews(ctx); err != nil {
		return Counts{}, apperr.Storage(err)
	}

	if data, err := json.Marshal(counts); err == nil {
		if err := e.cache.Set(ctx, countsCacheKey, data, countsCacheTTL); err != nil {
			e.logger.Warn("failed to cache news counts", "error", err)
		}
	}
	return counts, nil
}

// invalidateCounts drops the cached counts after a lifecycle write.
func (e *Engine) invalidateCounts(ctx context.Context) {
	if err := e.cache.Delete(ctx, countsCacheKey); err != nil {
		e.logger.Warn("failed to invalidate counts cache", "error", err)
	}
}

func (e *Engine) withAttachments(ctx context.Context, item model.NewsItem) (model.NewsItem, error) {
	attachments, err := e.files.List(ctx, e.q, item.ID)
	if err != nil {
		return model.NewsItem{}, err
	}
	item.Attachments = attachments
	return item, nil
}

func (e *Engine) allWithAttachments(ctx context.Context, items []model.NewsItem) ([]model.NewsItem, error) {
	for i := range items {
		attachments, err := e.files.List(ctx, e.q, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Attachments = attachments
	}
	return items, nil
}
