// Package causality classifies pairs of clock snapshots by their causal
// relation. All functions are pure and total: they operate on materialized
// snapshots, never on live clocks, and produce a verdict for any two inputs.
//
// Snapshots are compared over the intersection of their process ids. A
// process tracked by only one side is excluded from the comparison rather
// than treated as zero, which lets the analyzer tolerate partial views such
// as a server that only tracks its own interactions with a subset of peers.
package causality

import (
	"github.com/hetu-project/causality-engine/pkg/vclock"
)

// Relation is the three-way verdict of a snapshot comparison.
type Relation int

const (
	// Before means the first snapshot happened before the second.
	Before Relation = -1
	// Concurrent means no causal order exists in either direction.
	// Identical snapshots are concurrent; Concurrent never means equal.
	Concurrent Relation = 0
	// After means the first snapshot happened after the second.
	After Relation = 1
)

// String returns a human-readable name for the relation.
func (r Relation) String() string {
	switch r {
	case Before:
		return "happened-before"
	case After:
		return "happened-after"
	default:
		return "concurrent"
	}
}

// HappenedBefore reports whether a happened before b: over the process ids
// present in both snapshots, every counter of a is less than or equal to the
// corresponding counter of b, and at least one is strictly less. An empty
// intersection yields false.
func HappenedBefore(a, b vclock.Snapshot) bool {
	compared := false
	strictlyLess := false
	for id, av := range a {
		bv, ok := b[id]
		if !ok {
			continue
		}
		compared = true
		if av > bv {
			return false
		}
		if av < bv {
			strictlyLess = true
		}
	}
	return compared && strictlyLess
}

// HappenedAfter reports whether a happened after b. It is evaluated as a
// fresh HappenedBefore(b, a) on the snapshots given, never from a cached
// verdict.
func HappenedAfter(a, b vclock.Snapshot) bool {
	return HappenedBefore(b, a)
}

// IsConcurrentWith reports whether no causal order exists between a and b in
// either direction. For any two snapshots exactly one of HappenedBefore,
// HappenedAfter, and IsConcurrentWith holds.
func IsConcurrentWith(a, b vclock.Snapshot) bool {
	return !HappenedBefore(a, b) && !HappenedBefore(b, a)
}

// Compare returns Before if a happened before b, After if a happened after
// b, and Concurrent otherwise. The result is an ordering signal, not a total
// order: Concurrent does not mean the snapshots are equal.
func Compare(a, b vclock.Snapshot) Relation {
	switch {
	case HappenedBefore(a, b):
		return Before
	case HappenedBefore(b, a):
		return After
	default:
		return Concurrent
	}
}
