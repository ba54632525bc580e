// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package attach owns the pairing of on-disk attachment blobs with their
// database records. Record changes participate in the caller's transaction;
// physical blob removal happens after commit and is best-effort.
package attach

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/keepreverse/newsline-go/internal/apperr"
	"github.com/keepreverse/newsline-go/internal/model"
	"github.com/keepreverse/newsline-go/internal/store"
)

// Upload is an attachment payload received from the transport boundary,
// already validated there for size and extension.
type Upload struct {
	Data     []byte
	Filename string
}

// Store manages attachment blobs under a single directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a Store rooted at dir, creating the directory if needed.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the blob directory, used by the static delivery handler.
func (s *Store) Dir() string {
	return s.dir
}

// BlobPath returns the on-disk path for a blob reference.
func (s *Store) BlobPath(blobRef string) string {
	return filepath.Join(s.dir, blobRef)
}

// newBlobRef generates a fresh unguessable blob name: a random 128-bit
// token rendered as 32 hex characters.
func newBlobRef() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// formatOf extracts the lowercased extension of a declared filename.
func formatOf(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// SaveAll writes each upload to disk under a fresh blob reference and inserts
// its attachment record through q, which must be bound to the enclosing
// transaction. On error the caller must roll back the transaction and pass
// the returned written refs to Cleanup so no blob outlives the failure.
func (s *Store) SaveAll(ctx context.Context, q *store.Queries, uploads []Upload) ([]model.Attachment, []string, error) {
	var attachments []model.Attachment
	var written []string

	for _, up := range uploads {
		blobRef := newBlobRef()

		path := s.BlobPath(blobRef)
		if err := os.WriteFile(path, up.Data, 0644); err != nil {
			return nil, written, apperr.FileSystem(fmt.Errorf("writing blob %s: %w", blobRef, err))
		}
		written = append(written, blobRef)

		att, err := q.CreateFile(ctx, blobRef, formatOf(up.Filename))
		if err != nil {
			return nil, written, apperr.Storage(fmt.Errorf("creating file record: %w", err))
		}
		attachments = append(attachments, att)
	}

	return attachments, written, nil
}

// Link attaches files to a news item. Re-linking an already linked pair is a
// no-op.
func (s *Store) Link(ctx context.Context, q *store.Queries, newsID int64, fileIDs []int64) error {
	for _, fileID := range fileIDs {
		if err := q.LinkFile(ctx, fileID, newsID); err != nil {
			return apperr.Storage(fmt.Errorf("linking file %d: %w", fileID, err))
		}
	}
	return nil
}

// UnlinkAndCollect removes the given links from a news item. Attachments left
// with zero links lose their record inside the transaction; their blob refs
// are returned for post-commit removal via RemoveBlobs.
func (s *Store) UnlinkAndCollect(ctx context.Context, q *store.Queries, newsID int64, fileIDs []int64) ([]string, error) {
	var orphaned []string

	for _, fileID := range fileIDs {
		if err := q.UnlinkFile(ctx, fileID, newsID); err != nil {
			return nil, apperr.Storage(fmt.Errorf("unlinking file %d: %w", fileID, err))
		}

		remaining, err := q.CountFileLinks(ctx, fileID)
		if err != nil {
			return nil, apperr.Storage(err)
		}
		if remaining > 0 {
			continue
		}

		att, err := q.GetFile(ctx, fileID)
		if err != nil {
			return nil, apperr.Storage(err)
		}
		if err := q.DeleteFile(ctx, fileID); err != nil {
			return nil, apperr.Storage(err)
		}
		orphaned = append(orphaned, att.BlobRef)
	}

	return orphaned, nil
}

// DeleteAllForNews removes every link and every exclusively-owned attachment
// record of a news item, returning the orphaned blob refs. Used by purge.
func (s *Store) DeleteAllForNews(ctx context.Context, q *store.Queries, newsID int64) ([]string, error) {
	exclusive, err := q.ListExclusiveFilesByNews(ctx, newsID)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	if err := q.DeleteLinksByNews(ctx, newsID); err != nil {
		return nil, apperr.Storage(err)
	}

	var orphaned []string
	for _, att := range exclusive {
		if err := q.DeleteFile(ctx, att.ID); err != nil {
			return nil, apperr.Storage(err)
		}
		orphaned = append(orphaned, att.BlobRef)
	}
	return orphaned, nil
}

// List returns a news item's attachments ordered by id ascending.
func (s *Store) List(ctx context.Context, q *store.Queries, newsID int64) ([]model.Attachment, error) {
	attachments, err := q.ListFilesByNews(ctx, newsID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return attachments, nil
}

// RemoveBlobs deletes blob files from disk after a successful commit.
// A missing blob is tolerated; any other failure is logged and swallowed,
// since the database state is already committed.
func (s *Store) RemoveBlobs(blobRefs []string) {
	for _, ref := range blobRefs {
		if err := os.Remove(s.BlobPath(ref)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove attachment blob", "blob", ref, "error", err)
		}
	}
}

// Cleanup removes blobs written during a transaction that failed. Identical
// mechanics to RemoveBlobs, kept separate so call sites read as what they are.
func (s *Store) Cleanup(blobRefs []string) {
	s.RemoveBlobs(blobRefs)
}
