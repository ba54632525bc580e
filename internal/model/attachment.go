// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Allowed attachment formats (lowercase filename extensions).
const (
	FormatPNG  = "png"
	FormatJPG  = "jpg"
	FormatJPEG = "jpeg"
	FormatGIF  = "gif"
)

// MaxAttachmentSize is the largest accepted attachment payload.
const MaxAttachmentSize = 5 * 1024 * 1024 // 5 MiB

// Attachment represents a stored binary file associated with a news item.
// BlobRef is the opaque on-disk filename; records are created and deleted,
// never mutated.
type Attachment struct {
	ID      int64  `json:"fileID"`
	BlobRef string `json:"fileName"`
	Format  string `json:"fileFormat"`
}

// AttachmentLink joins an attachment to a news item. In practice an
// attachment belongs to at most one item; removing the last link removes the
// attachment record and its blob.
type AttachmentLink struct {
	ID           int64
	AttachmentID int64
	NewsID       int64
}

// SupportedFormat reports whether format is an accepted attachment extension.
func SupportedFormat(format string) bool {
	switch format {
	case FormatPNG, FormatJPG, FormatJPEG, FormatGIF:
		return true
	default:
		return false
	}
}
