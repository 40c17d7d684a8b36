// Package sim runs several clock-carrying processes inside one binary so
// causal scenarios can be scripted and inspected without any network in
// between. Each process owns a vector clock and an event log exactly like a
// networked node; messages are plain struct values handed from one process
// to another by the caller.
package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hetu-project/causality-engine/pkg/causality"
	"github.com/hetu-project/causality-engine/pkg/eventlog"
	"github.com/hetu-project/causality-engine/pkg/vclock"
)

// maxRangeWidth caps how many integers a single request may sum.
const maxRangeWidth = 10_000_000

// Process is one simulated participant. Its lock spans every stamp plus the
// matching log append, so the log order of a process always matches the
// order in which its snapshots were issued.
type Process struct {
	ID string

	mu    sync.Mutex
	clock *vclock.Clock
	log   *eventlog.Log
}

// NewProcess creates a process tracking the given roster. The roster must
// contain the process's own id.
func NewProcess(id string, roster []string) (*Process, error) {
	clock, err := vclock.New(id, roster)
	if err != nil {
		return nil, err
	}
	return &Process{
		ID:    id,
		clock: clock,
		log:   eventlog.NewLog(id),
	}, nil
}

// LocalEvent stamps a purely local step.
func (p *Process) LocalEvent(description string) eventlog.Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := p.clock.Increment()
	return p.log.Append(eventlog.TypeLocal, description, snap)
}

// Send stamps an outbound sum request and hands it to deliver. The tick and
// the delivery run in one critical section: when deliver fails, the clock
// and the log are left exactly as they were and the error is returned.
// Deliver runs while the process lock is held and must not call back into
// this process.
func (p *Process) Send(to string, start, end int64, deliver func(SumMessage) error) (eventlog.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	requestID := uuid.New().String()
	snap, err := p.clock.Stamp(func(snap vclock.Snapshot) error {
		return deliver(SumMessage{
			ID:         requestID,
			Kind:       SumRequestKind,
			From:       p.ID,
			To:         to,
			RangeStart: start,
			RangeEnd:   end,
			Clock:      snap,
			SentAt:     time.Now(),
		})
	})
	if err != nil {
		return eventlog.Event{}, fmt.Errorf("send to %s failed, clock unchanged: %w", to, err)
	}

	ev := p.log.Append(eventlog.TypeMessageSent,
		fmt.Sprintf("sum request %s to %s for [%d, %d]", requestID, to, start, end), snap)
	return ev, nil
}

// HandleRequest merges an inbound request, computes the sum, and returns the
// stamped reply. An invalid range is rejected before any clock state is
// touched, so the rejected request has no causal effect. The returned
// relation is the analyzer's verdict on the request snapshot against this
// process's pre-merge state.
func (p *Process) HandleRequest(msg SumMessage) (SumReply, causality.Relation, error) {
	if msg.RangeEnd < msg.RangeStart {
		return SumReply{}, causality.Concurrent,
			fmt.Errorf("invalid range: end %d is before start %d", msg.RangeEnd, msg.RangeStart)
	}
	if msg.RangeEnd-msg.RangeStart+1 > maxRangeWidth {
		return SumReply{}, causality.Concurrent,
			fmt.Errorf("range too large: %d values, limit %d", msg.RangeEnd-msg.RangeStart+1, maxRangeWidth)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	relation := causality.Compare(msg.Clock, p.clock.Snapshot())
	snap := p.clock.Merge(msg.Clock)
	p.log.Append(eventlog.TypeRequestReceived,
		fmt.Sprintf("sum request %s from %s for [%d, %d]", msg.ID, msg.From, msg.RangeStart, msg.RangeEnd), snap)

	var sum int64
	for i := msg.RangeStart; i <= msg.RangeEnd; i++ {
		sum += i
	}

	replySnap := p.clock.Increment()
	p.log.Append(eventlog.TypeCalculationComplete,
		fmt.Sprintf("sum of [%d, %d] = %d for %s", msg.RangeStart, msg.RangeEnd, sum, msg.From), replySnap)

	return SumReply{
		ID:              uuid.New().String(),
		Kind:            SumReplyKind,
		RequestID:       msg.ID,
		From:            p.ID,
		To:              msg.From,
		Sum:             sum,
		Clock:           replySnap,
		RequestRelation: relation,
		SentAt:          time.Now(),
	}, relation, nil
}

// AcceptReply merges a reply into the requester's clock and logs the event.
// The returned relation is the analyzer's verdict on the reply snapshot
// against this process's pre-merge state.
func (p *Process) AcceptReply(reply SumReply) (causality.Relation, eventlog.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	relation := causality.Compare(reply.Clock, p.clock.Snapshot())
	snap := p.clock.Merge(reply.Clock)
	ev := p.log.Append(eventlog.TypeReplyReceived,
		fmt.Sprintf("sum reply %s from %s: %d", reply.RequestID, reply.From, reply.Sum), snap)
	return relation, ev
}

// Snapshot returns the process's current clock snapshot.
func (p *Process) Snapshot() vclock.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clock.Snapshot()
}

// Format renders the process's current clock state.
func (p *Process) Format() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clock.Format()
}

// ValueOf returns the counter tracked for processID, or 0 if untracked.
func (p *Process) ValueOf(processID string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clock.ValueOf(processID)
}

// Log exposes the process's event history.
func (p *Process) Log() *eventlog.Log {
	return p.log
}
