// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ownership

import (
	"testing"

	"gitforum/internal/apperr"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name           string
		stored, caller string
		want           bool
	}{
		{"match", "abc-123", "abc-123", true},
		{"mismatch", "abc-123", "abc-124", false},
		{"case differs", "ABC", "abc", false},
		{"whitespace differs", "abc", "abc ", false},
		{"stored empty", "", "abc", false},
		{"caller empty", "abc", "", false},
		{"both empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Check(tt.stored, tt.caller); got != tt.want {
				t.Errorf("Check(%q, %q) = %v, want %v", tt.stored, tt.caller, got, tt.want)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	if err := Authorize("op", "tok", "tok"); err != nil {
		t.Errorf("matching tokens: %v", err)
	}
	err := Authorize("forum.EditPost", "tok", "other")
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}
}
