// Package session provides Redis-backed persistence of the authenticated
// flag that outlives a completed journey.
//
// The flag is deliberately minimal: one key per subject, holding whether
// that subject currently has an authenticated session, with a TTL so a
// crashed client never leaves a flag behind forever. Everything richer —
// tokens, user info, journey state — lives with the engine or the
// transport, not here.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the in-memory
// [MemoryStore] used in tests and single-process callers. It does NOT
// drive journeys, interpret steps, or touch tokens — those
// responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import goJourney or token (no upward imports).
//   - Store tokens, credentials, or user info.
//   - Make authentication decisions; it records them.
package session
