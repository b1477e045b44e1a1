// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCleanGUID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare hex", "1234567890abcdef1234567890abcdef", "1234567890abcdef1234567890abcdef"},
		{"braced uuid", "{12345678-90ab-cdef-1234-567890abcdef}", "1234567890abcdef1234567890abcdef"},
		{"hyphenated only", "12345678-90ab-cdef-1234-567890abcdef", "1234567890abcdef1234567890abcdef"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanGUID(tt.in))
		})
	}
}

func TestValidGUID(t *testing.T) {
	assert.True(t, ValidGUID("1234567890abcdef1234567890ABCDEF"))
	assert.True(t, ValidGUID("{12345678-90ab-cdef-1234-567890abcdef}"))
	assert.False(t, ValidGUID("1234567890abcdef"))            // too short
	assert.False(t, ValidGUID("g234567890abcdef1234567890abcdef")) // non-hex
	assert.False(t, ValidGUID(""))
}

func TestRedirectExpired(t *testing.T) {
	r := &Redirect{}
	assert.False(t, r.Expired())

	now := time.Now()
	r.ExpiredDate = &now
	assert.True(t, r.Expired())
}
