// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"strings"
)

// Common key prefixes
const (
	KeyPrefixMeeting = "meeting"
)

// KeyBuilder builds the KV keys of the repositories. NATS keys may only hold
// [-/_=.a-zA-Z0-9], so every other rune of a key part is replaced by '_'.
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a new key builder with an optional prefix
func NewKeyBuilder(prefix string) *KeyBuilder {
	return &KeyBuilder{prefix: sanitize(prefix)}
}

// EntityKey builds a key for an entity (e.g., "meeting/uid-123")
func (kb *KeyBuilder) EntityKey(entityType, uid string) string {
	return kb.CompoundKey(entityType, uid)
}

// EntityPrefix returns the prefix shared by every key of entityType.
func (kb *KeyBuilder) EntityPrefix(entityType string) string {
	return kb.CompoundKey(entityType) + "/"
}

// CompoundKey builds a compound key from multiple parts
func (kb *KeyBuilder) CompoundKey(parts ...string) string {
	clean := make([]string, 0, len(parts)+1)
	if kb.prefix != "" {
		clean = append(clean, kb.prefix)
	}
	for _, p := range parts {
		clean = append(clean, sanitize(p))
	}
	return strings.Join(clean, "/")
}

func sanitize(part string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '=' || r == '.':
			return r
		}
		return '_'
	}, part)
}
