// Package id generates short, URL-safe, time-sortable identifiers.
//
// Identifiers use Crockford's Base32 alphabet (no I, L, O or U), so they survive being
// read aloud, typed by hand, or embedded in a slug:
//
//	id.NewULID()            // "01JA2Y7W8K4M9QFZ3XG6T1B0RC", 26 chars, request ids
//	id.NewShortID()         // "Y7W8K4M9QFZ3XG6T", 16 chars
//	id.Fallback("category") // "category-y7w8k4m9qfz3xg6t", slug base for unnamed records
//
// Fallback output is lower case and already a valid slug, so it can be passed straight to
// slug.Fallback.
package id
