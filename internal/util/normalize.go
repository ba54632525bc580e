// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose utility functions including Unicode
// key normalization and sql.Null* conversion helpers.
package util

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeKey converts a user-supplied identifier (login, nickname, category
// name) to its canonical comparison form: trimmed, NFKC-normalized and
// case-folded. Uniqueness checks compare these forms so duplicates cannot be
// smuggled in through case or Unicode width/compatibility variants
// ("Admin" vs "admin", fullwidth "ａｄｍｉｎ" vs "admin").
func NormalizeKey(s string) string {
	s = strings.TrimSpace(s)
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	// Folding can denormalize; bring the result back to NFKC.
	return norm.NFKC.String(s)
}
