// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyBuilder(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		build    func(kb *KeyBuilder) string
		expected string
	}{
		{
			name:     "entity key",
			build:    func(kb *KeyBuilder) string { return kb.EntityKey(KeyPrefixMeeting, "5b9f7c2e-1111") },
			expected: "meeting/5b9f7c2e-1111",
		},
		{
			name:     "entity key with prefix",
			prefix:   "staging",
			build:    func(kb *KeyBuilder) string { return kb.EntityKey(KeyPrefixMeeting, "id") },
			expected: "staging/meeting/id",
		},
		{
			name:     "entity prefix",
			build:    func(kb *KeyBuilder) string { return kb.EntityPrefix(KeyPrefixMeeting) },
			expected: "meeting/",
		},
		{
			name:     "invalid runes are replaced",
			build:    func(kb *KeyBuilder) string { return kb.CompoundKey("open euler", "a*b>c", "sig/infra") },
			expected: "open_euler/a_b_c/sig_infra",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.build(NewKeyBuilder(tt.prefix)))
		})
	}
}
