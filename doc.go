// Package arcreplacer implements the Adaptive Replacement Cache (ARC) page
// replacement policy for a database buffer pool, as a standalone,
// concurrency-safe frame replacer.
//
// ARC self-tunes between recency and frequency by watching "ghost" hits —
// accesses to pages that were recently evicted, whose metadata (but not
// their data) is still remembered. This package implements the variant
// used by single-writer-per-call buffer pool managers, with two deliberate
// deviations from the textbook algorithm, documented below.
//
// Glossary and invariants:
//
//   - Frame: a fixed-size slot in the buffer pool, identified by a dense
//     frame id in [0, capacity).
//
//   - Page: the logical unit of persistent storage, identified by an
//     opaque page id. The same page may occupy different frames over time.
//
//   - T1 (MRU)
//
//     Resident frames seen exactly once recently. The recency tier.
//
//   - T2 (MFU)
//
//     Resident frames seen two or more times recently. The frequency tier.
//
//   - B1 (MRU-ghost)
//
//     Page identities recently evicted from T1. No frame or data is kept;
//     only enough to recognize a re-access and adjust p.
//
//   - B2 (MFU-ghost)
//
//     Page identities recently evicted from T2.
//
//   - p
//
//     The target size of T1, adjusted on every ghost hit. A larger p
//     biases eviction toward recency (favoring T1); a smaller p biases
//     toward frequency.
//
//   - Evictable / pinned
//
//     A resident frame's caller-controlled flag. New entries are born
//     pinned (not evictable); the caller marks a frame evictable once its
//     contents are coherent.
//
// Operations:
//
//   - RecordAccess
//
//     Classifies an access into one of four cases (hit on T1/T2, ghost hit
//     on B1, ghost hit on B2, or miss) and updates catalogs and p
//     accordingly. Never evicts.
//
//   - Evict
//
//     Picks a primary side (T1 if |T1| >= p, else T2), scans it from tail
//     to head for the first evictable entry, and falls back to the other
//     side if the primary side is entirely pinned. The victim's page id
//     moves to the ghost catalog matching the side it actually came from.
//
// Deviations from the textbook algorithm (both preserve the theoretical
// bounds):
//
//  1. When |T1| == p, this package always evicts from T1. The original
//     algorithm breaks the tie using the most-recently-seen access; the
//     choice is stated to be arbitrary, so the simpler rule is kept.
//
//  2. If the preferred side is entirely pinned, eviction falls back to the
//     other side rather than returning no victim, so pinned pages never
//     block progress for the whole replacer. Ghost placement always
//     follows the side the evicted frame actually came from, so the
//     feedback loop stays accurate even after a fallback.
//
// Concurrency: a [Replacer] is safe for concurrent use. A single mutex
// guards every catalog, both indexes, curr_size, and p; all five public
// operations hold it for their full duration. No operation blocks on I/O.
package arcreplacer
