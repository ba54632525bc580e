// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// News statuses
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
	StatusArchived = "Archived"
)

// News represents a moderated content item.
//
// DeletedAt is orthogonal to Status: a non-null DeletedAt means the item is
// in the trash and excluded from every normal read projection regardless of
// its status.
type News struct {
	ID          int64         `json:"id"`
	PublisherID int64         `json:"publisher_id"`
	ModeratorID sql.NullInt64 `json:"moderator_id,omitempty"`
	Title       string        `json:"title"`
	Body        string        `json:"body"`
	CategoryID  sql.NullInt64 `json:"category_id,omitempty"`
	Status      string        `json:"status"`
	EventStart  time.Time     `json:"event_start"`
	EventEnd    sql.NullTime  `json:"event_end,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	PublishedAt sql.NullTime  `json:"published_at,omitempty"`
	ArchivedAt  sql.NullTime  `json:"archived_at,omitempty"`
	DeletedAt   sql.NullTime  `json:"deleted_at,omitempty"`
}

// IsPending returns true if the item awaits moderation.
func (n *News) IsPending() bool {
	return n.Status == StatusPending
}

// IsApproved returns true if the item has been approved.
func (n *News) IsApproved() bool {
	return n.Status == StatusApproved
}

// IsArchived returns true if the item is archived.
func (n *News) IsArchived() bool {
	return n.Status == StatusArchived
}

// InTrash returns true if the item has been soft-deleted.
func (n *News) InTrash() bool {
	return n.DeletedAt.Valid
}

// NewsItem is a read projection of News joined to publisher, moderator and
// category names, carrying the ordered attachment list.
type NewsItem struct {
	News
	PublisherNick string       `json:"publisher_nick"`
	ModeratorNick string       `json:"moderator_nick,omitempty"`
	CategoryName  string       `json:"category_name,omitempty"`
	Attachments   []Attachment `json:"files"`
}
