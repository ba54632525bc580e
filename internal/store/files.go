// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"

	"github.com/keepreverse/newsline-go/internal/model"
)

// CreateFile inserts an attachment record. blobRef is the unique on-disk
// name, format the lowercased filename extension.
func (q *Queries) CreateFile(ctx context.Context, blobRef, format string) (model.Attachment, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO files (blob_ref, format) VALUES (?, ?)`, blobRef, format)
	if err != nil {
		return model.Attachment{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Attachment{}, err
	}

	return model.Attachment{ID: id, BlobRef: blobRef, Format: format}, nil
}

// GetFile fetches an attachment record by id.
func (q *Queries) GetFile(ctx context.Context, id int64) (model.Attachment, error) {
	var a model.Attachment
	err := q.db.QueryRowContext(ctx,
		`SELECT id, blob_ref, format FROM files WHERE id = ?`, id).
		Scan(&a.ID, &a.BlobRef, &a.Format)
	return a, err
}

// GetFileByBlobRef fetches an attachment record by its on-disk name.
func (q *Queries) GetFileByBlobRef(ctx context.Context, blobRef string) (model.Attachment, error) {
	var a model.Attachment
	err := q.db.QueryRowContext(ctx,
		`SELECT id, blob_ref, format FROM files WHERE blob_ref = ?`, blobRef).
		Scan(&a.ID, &a.BlobRef, &a.Format)
	return a, err
}

// DeleteFile removes an attachment record.
func (q *Queries) DeleteFile(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	return err
}

// LinkFile attaches a file to a news item. Re-linking an existing pair is a
// no-op.
func (q *Queries) LinkFile(ctx context.Context, fileID, newsID int64) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO file_links (file_id, news_id) VALUES (?, ?)`, fileID, newsID)
	return err
}

// UnlinkFile removes the link between a file and a news item.
func (q *Queries) UnlinkFile(ctx context.Context, fileID, newsID int64) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM file_links WHERE file_id = ? AND news_id = ?`, fileID, newsID)
	return err
}

// DeleteLinksByNews removes every link of a news item.
func (q *Queries) DeleteLinksByNews(ctx context.Context, newsID int64) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM file_links WHERE news_id = ?`, newsID)
	return err
}

// CountFileLinks returns how many news items still reference the file.
func (q *Queries) CountFileLinks(ctx context.Context, fileID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM file_links WHERE file_id = ?`, fileID).Scan(&n)
	return n, err
}

// ListFilesByNews returns the attachments of a news item ordered by file id
// ascending for deterministic display order.
func (q *Queries) ListFilesByNews(ctx context.Context, newsID int64) ([]model.Attachment, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT f.id, f.blob_ref, f.format
		FROM files f
		JOIN file_links fl ON fl.file_id = f.id
		WHERE fl.news_id = ?
		ORDER BY f.id ASC`, newsID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectAttachments(rows)
}

// ListExclusiveFilesByNews returns attachments whose only links point at the
// given news item. These become orphans when the item's links are removed.
func (q *Queries) ListExclusiveFilesByNews(ctx context.Context, newsID int64) ([]model.Attachment, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT f.id, f.blob_ref, f.format
		FROM files f
		WHERE f.id IN (SELECT file_id FROM file_links WHERE news_id = ?)
		  AND f.id NOT IN (SELECT file_id FROM file_links WHERE news_id != ?)`,
		newsID, newsID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectAttachments(rows)
}

func collectAttachments(rows *sql.Rows) ([]model.Attachment, error) {
	var attachments []model.Attachment
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.BlobRef, &a.Format); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}
