// Package merge implements the reconciliation core: given a client-side
// and a server-side Progress replica, it produces one converged aggregate
// both sides can adopt, without losing data contributed by either side.
//
// ARCHITECTURE:
//
// The engine is a pure, synchronous computation over in-memory data - no
// storage, no transport, no timeouts. Determinism matters: tests compare
// golden snapshots of converged output, so the merge time is injectable
// (MergeAt) and all output collections are deterministically ordered.
//
// Per-field rules (in order):
//  1. version: max of the two high-water marks
//  2. scalar counters: independent max (counters are monotonic by
//     precondition; max is then safe and exact)
//  3. longest streak: max (a true running maximum)
//  4. last updated: the merge time itself, copied from neither input
//  5. sessions: dedup by ID, later timestamp wins (a correction);
//     equal timestamps with diverging content go through the resolver
//  6. assessments: dedup by ID, first seen wins (append-only facts)
//  7. badges: dedup by NFC-normalized key, earliest unlock wins
//
// Items missing their id/key are silently dropped rather than failing the
// whole merge: they passed envelope validation but not item-level shape.
//
// The Resolve function is a general-purpose single-item utility for callers
// with reconciliation needs outside the aggregate rules above.
package merge
