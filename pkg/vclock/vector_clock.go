// Package vclock implements a per-process vector clock for tracking the
// causal order of events across a fixed roster of processes.
package vclock

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Snapshot is an immutable copy of a clock state, mapping process id to
// counter. Callers receive a fresh copy on every read and must not mutate it.
type Snapshot map[string]int64

// Value returns the counter for the given process id, or 0 if the id is not
// tracked by this snapshot.
func (s Snapshot) Value(processID string) int64 {
	return s[processID]
}

// Copy returns a deep copy of the snapshot.
func (s Snapshot) Copy() Snapshot {
	out := make(Snapshot, len(s))
	for id, v := range s {
		out[id] = v
	}
	return out
}

// Equal reports whether two snapshots carry exactly the same entries.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for id, v := range s {
		ov, ok := other[id]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Format renders the snapshot with process ids in lexicographic order,
// e.g. "{P1:1, P2:0}". The rendering is stable regardless of the sequence
// of operations that produced the state.
func (s Snapshot) Format() string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("{")
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s:%d", id, s[id])
	}
	b.WriteString("}")
	return b.String()
}

// Clock is the owning vector clock of a single process. The roster of
// tracked processes is fixed at construction and always includes the owning
// process. Every read and read-modify-write operation is serialized through
// the clock's internal lock, so compound updates are atomic as a unit.
type Clock struct {
	processID string
	values    map[string]int64
	mu        sync.RWMutex
}

// New creates a clock for processID over the given roster, all counters at
// zero. The roster must contain processID and must not contain duplicates;
// violations are configuration errors reported at construction time.
func New(processID string, roster []string) (*Clock, error) {
	if processID == "" {
		return nil, fmt.Errorf("process id must not be empty")
	}
	values := make(map[string]int64, len(roster))
	for _, id := range roster {
		if id == "" {
			return nil, fmt.Errorf("roster contains an empty process id")
		}
		if _, exists := values[id]; exists {
			return nil, fmt.Errorf("roster contains duplicate process id %q", id)
		}
		values[id] = 0
	}
	if _, ok := values[processID]; !ok {
		return nil, fmt.Errorf("roster does not include owning process %q", processID)
	}
	return &Clock{processID: processID, values: values}, nil
}

// NewFromSnapshot creates a clock for processID seeded from an existing
// snapshot. The snapshot must include processID and must not carry negative
// counters; violations are configuration errors reported eagerly here, never
// during later Increment or Merge calls.
func NewFromSnapshot(processID string, snap Snapshot) (*Clock, error) {
	if processID == "" {
		return nil, fmt.Errorf("process id must not be empty")
	}
	values := make(map[string]int64, len(snap))
	for id, v := range snap {
		if v < 0 {
			return nil, fmt.Errorf("negative counter %d for process %q", v, id)
		}
		values[id] = v
	}
	if _, ok := values[processID]; !ok {
		return nil, fmt.Errorf("snapshot does not include owning process %q", processID)
	}
	return &Clock{processID: processID, values: values}, nil
}

// ProcessID returns the id of the owning process.
func (c *Clock) ProcessID() string {
	return c.processID
}

// Increment stamps a purely local event: the owning process's counter grows
// by exactly one. Returns the snapshot taken immediately after the tick.
func (c *Clock) Increment() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[c.processID]++
	return c.copyLocked()
}

// Merge applies the receive rule for a snapshot carried by an inbound
// message: for every process tracked by both sides the local counter becomes
// the maximum of the two values, then the owning process's counter ticks by
// exactly one. Processes present only in the received snapshot are silently
// ignored; the local roster never grows. The whole merge-then-tick sequence
// runs as one critical section. Returns the post-merge snapshot.
func (c *Clock) Merge(received Snapshot) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, remote := range received {
		local, tracked := c.values[id]
		if !tracked {
			continue
		}
		if remote > local {
			c.values[id] = remote
		}
	}
	c.values[c.processID]++
	return c.copyLocked()
}

// Snapshot returns an immutable copy of the current state. The copy reflects
// a fully formed state, never one observed mid-mutation.
func (c *Clock) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copyLocked()
}

// ValueOf returns the counter for processID, or 0 if it is not tracked.
func (c *Clock) ValueOf(processID string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[processID]
}

// Format renders the current state with process ids in lexicographic order.
func (c *Clock) Format() string {
	return c.Snapshot().Format()
}

// Stamp ticks the owning counter, snapshots the result, and hands the
// snapshot to send, all inside the clock's critical section. If send returns
// an error the tick is rolled back, so a failed exchange leaves the clock
// exactly as it was before the attempt. The stamped snapshot is returned on
// success.
func (c *Clock) Stamp(send func(Snapshot) error) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.values[c.processID]
	c.values[c.processID]++
	snap := c.copyLocked()
	if err := send(snap); err != nil {
		c.values[c.processID] = prev
		return nil, err
	}
	return snap, nil
}

// copyLocked copies the current values; callers must hold at least a read
// lock.
func (c *Clock) copyLocked() Snapshot {
	out := make(Snapshot, len(c.values))
	for id, v := range c.values {
		out[id] = v
	}
	return out
}
