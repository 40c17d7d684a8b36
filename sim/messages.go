package sim

import (
	"time"

	"github.com/hetu-project/causality-engine/pkg/causality"
	"github.com/hetu-project/causality-engine/pkg/vclock"
)

// MessageKind identifies the payload of an in-memory message.
type MessageKind string

const (
	SumRequestKind MessageKind = "sum_request"
	SumReplyKind   MessageKind = "sum_reply"
)

// SumMessage is a sum-of-range request passed between simulated processes.
// The snapshot it carries was stamped by the sender at the moment of sending.
type SumMessage struct {
	ID         string
	Kind       MessageKind
	From       string
	To         string
	RangeStart int64
	RangeEnd   int64
	Clock      vclock.Snapshot
	SentAt     time.Time
}

// SumReply carries the computed result back to the requester, stamped with
// the responder's post-computation snapshot. RequestRelation is the
// responder's verdict on how the request related to its pre-merge state.
type SumReply struct {
	ID              string
	Kind            MessageKind
	RequestID       string
	From            string
	To              string
	Sum             int64
	Clock           vclock.Snapshot
	RequestRelation causality.Relation
	SentAt          time.Time
}
