// Package eventlog records the stamped events of a single process as an
// append-only, insertion-ordered history used to reconstruct and display
// causal order after the fact.
package eventlog

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hetu-project/causality-engine/pkg/causality"
	"github.com/hetu-project/causality-engine/pkg/vclock"
)

// EventType tags what kind of event a record describes. The set is open:
// callers may log any tag, the constants below are the conventional ones.
type EventType string

const (
	TypeLocal               EventType = "local"
	TypeMessageSent         EventType = "message-sent"
	TypeRequestReceived     EventType = "request-received"
	TypeCalculationComplete EventType = "calculation-complete"
	TypeReplyReceived       EventType = "reply-received"
)

// Event is one immutable record of a stamped event. The snapshot is the
// clock state at the moment of stamping; the timestamp is wall-clock time
// for display only and never participates in causal ordering.
type Event struct {
	ID          string          `json:"id"`
	ProcessID   string          `json:"process_id"`
	Type        EventType       `json:"type"`
	Description string          `json:"description"`
	Snapshot    vclock.Snapshot `json:"snapshot"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Log is the append-only event history of one process. Only the owning
// process appends to its own log, so insertion order coincides with the
// real-time order in which the process stamped its events. With a capacity
// of zero the log grows without bound; a positive capacity keeps the most
// recent records in insertion order, evicting the oldest.
type Log struct {
	processID string
	capacity  int
	mu        sync.RWMutex
	events    []Event
}

// NewLog creates an unbounded event log for the given process.
func NewLog(processID string) *Log {
	return &Log{processID: processID}
}

// NewBoundedLog creates an event log that retains at most capacity records.
// A capacity of zero or less means unbounded retention.
func NewBoundedLog(processID string, capacity int) *Log {
	if capacity < 0 {
		capacity = 0
	}
	return &Log{processID: processID, capacity: capacity}
}

// ProcessID returns the id of the owning process.
func (l *Log) ProcessID() string {
	return l.processID
}

// Append creates a record from the given type, description, and snapshot and
// inserts it at the end of the log. The snapshot is copied, so later clock
// mutations never show through. Returns the created record.
func (l *Log) Append(eventType EventType, description string, snap vclock.Snapshot) Event {
	ev := Event{
		ID:          uuid.New().String(),
		ProcessID:   l.processID,
		Type:        eventType,
		Description: description,
		Snapshot:    snap.Copy(),
		Timestamp:   time.Now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.capacity > 0 && len(l.events) == l.capacity {
		l.events = append(l.events[:0], l.events[1:]...)
	}
	l.events = append(l.events, ev)
	return ev
}

// Len returns the number of records currently retained.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Tail returns the last n records (or fewer if the log is shorter) in
// insertion order. The returned slice is a copy.
func (l *Log) Tail(n int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	if n > len(l.events) {
		n = len(l.events)
	}
	out := make([]Event, n)
	copy(out, l.events[len(l.events)-n:])
	return out
}

// All returns every retained record in insertion order. The returned slice
// is a copy.
func (l *Log) All() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// SummarizeByType returns the number of retained records per event type.
func (l *Log) SummarizeByType() map[EventType]int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	summary := make(map[EventType]int)
	for _, ev := range l.events {
		summary[ev.Type]++
	}
	return summary
}

// Annotated pairs a record with its causal relation to the record before it
// in a displayed window. First marks the leading record of the window, which
// has no predecessor to relate to.
type Annotated struct {
	Event
	RelationToPrev causality.Relation `json:"relation_to_prev"`
	First          bool               `json:"first"`
}

// PairwiseCausality annotates each record of a displayed window with the
// analyzer's verdict against its immediate predecessor. It is a presentation
// aid: the window is typically the result of Tail.
func PairwiseCausality(window []Event) []Annotated {
	out := make([]Annotated, len(window))
	for i, ev := range window {
		out[i] = Annotated{Event: ev, First: i == 0}
		if i > 0 {
			out[i].RelationToPrev = causality.Compare(ev.Snapshot, window[i-1].Snapshot)
		}
	}
	return out
}
