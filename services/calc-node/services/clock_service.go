package services

import (
	"log"
	"sync"

	"github.com/hetu-project/causality-engine/pkg/causality"
	"github.com/hetu-project/causality-engine/pkg/eventlog"
	"github.com/hetu-project/causality-engine/pkg/vclock"
)

// EventSink receives a copy of every event the node stamps. Sinks are best
// effort: a failing sink never blocks or corrupts the clock or the log.
type EventSink interface {
	RecordEvent(ev eventlog.Event) error
}

// ClockService owns the node's vector clock and event log. It is created
// once at bootstrap and injected into every handler; there is no ambient
// clock state anywhere else. Its lock spans each stamp-then-append pair, so
// the log's insertion order always matches the order in which snapshots
// were issued.
type ClockService struct {
	mu    sync.Mutex
	clock *vclock.Clock
	log   *eventlog.Log
	sinks []EventSink
}

// NewClockService creates the clock service for one node.
func NewClockService(clock *vclock.Clock, eventLog *eventlog.Log) *ClockService {
	return &ClockService{clock: clock, log: eventLog}
}

// AddSink registers an event sink. Not safe to call after handlers start.
func (cs *ClockService) AddSink(sink EventSink) {
	cs.sinks = append(cs.sinks, sink)
}

// ProcessID returns the id of the owning process.
func (cs *ClockService) ProcessID() string {
	return cs.clock.ProcessID()
}

// StampEvent stamps an event that has no incoming message: the clock ticks
// once and the event is appended with the fresh snapshot.
func (cs *ClockService) StampEvent(eventType eventlog.EventType, description string) eventlog.Event {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	snap := cs.clock.Increment()
	ev := cs.log.Append(eventType, description, snap)
	cs.fanOut(ev)
	return ev
}

// MergeEvent applies an inbound snapshot: the analyzer's verdict for the
// received snapshot against the pre-merge state is computed first, then the
// clock merges and ticks, then the event is appended with the post-merge
// snapshot. The whole sequence is one critical section.
func (cs *ClockService) MergeEvent(received vclock.Snapshot, eventType eventlog.EventType, description string) (causality.Relation, eventlog.Event) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	preMerge := cs.clock.Snapshot()
	relation := causality.Compare(received, preMerge)
	snap := cs.clock.Merge(received)
	ev := cs.log.Append(eventType, description, snap)
	cs.fanOut(ev)
	return relation, ev
}

// SendEvent stamps an outbound message: the clock ticks, the fresh snapshot
// is handed to send, and only a successful send is committed and logged. A
// failed send leaves both the clock and the log exactly as they were.
func (cs *ClockService) SendEvent(description string, send func(vclock.Snapshot) error) (eventlog.Event, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	snap, err := cs.clock.Stamp(send)
	if err != nil {
		return eventlog.Event{}, err
	}
	ev := cs.log.Append(eventlog.TypeMessageSent, description, snap)
	cs.fanOut(ev)
	return ev, nil
}

// Snapshot returns the current clock snapshot.
func (cs *ClockService) Snapshot() vclock.Snapshot {
	return cs.clock.Snapshot()
}

// Format renders the current clock state.
func (cs *ClockService) Format() string {
	return cs.clock.Format()
}

// ValueOf returns the counter for processID, or 0 if it is not tracked.
func (cs *ClockService) ValueOf(processID string) int64 {
	return cs.clock.ValueOf(processID)
}

// Log exposes the node's event log for display handlers.
func (cs *ClockService) Log() *eventlog.Log {
	return cs.log
}

func (cs *ClockService) fanOut(ev eventlog.Event) {
	for _, sink := range cs.sinks {
		if err := sink.RecordEvent(ev); err != nil {
			log.Printf("[%s] event sink error: %v", cs.clock.ProcessID(), err)
		}
	}
}
