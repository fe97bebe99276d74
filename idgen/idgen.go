// Package idgen provides pluggable ID generation.
//
// Constructors across the pipeline accept a Generator, making the ID
// strategy a startup-time decision rather than a compile-time one. Events
// and attachment references each compose their own prefix on top of the
// shared default.
package idgen

import "github.com/google/uuid"

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator that produces RFC 9562 UUID v7 strings.
// Time-sortable, globally unique.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
// Useful for type-scoped identifiers (e.g. "evt_", "att_").
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Default is the project default: UUIDv7. Prefixed variants compose on top.
var Default Generator = UUIDv7()
