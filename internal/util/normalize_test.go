// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"testing"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		same bool
	}{
		{"case difference", "Admin", "admin", true},
		{"all caps", "ADMIN", "admin", true},
		{"surrounding spaces", "  admin  ", "admin", true},
		{"fullwidth forms", "ａｄｍｉｎ", "admin", true},
		{"ligature fi", "ﬁsh", "fish", true},
		{"kelvin sign", "Kelvin", "kelvin", true},
		{"distinct names", "admin", "admin2", false},
		{"cyrillic vs latin a", "аdmin", "admin", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeKey(tt.a) == NormalizeKey(tt.b)
			if got != tt.same {
				t.Errorf("NormalizeKey(%q) == NormalizeKey(%q) = %v, want %v",
					tt.a, tt.b, got, tt.same)
			}
		})
	}
}

func TestNormalizeKeyIdempotent(t *testing.T) {
	inputs := []string{"Admin", "News K", "ﬁsh", "ＰＵＢＬＩＳＨＥＲ"}
	for _, in := range inputs {
		once := NormalizeKey(in)
		twice := NormalizeKey(once)
		if once != twice {
			t.Errorf("NormalizeKey not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
