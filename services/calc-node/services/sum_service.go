package services

import (
	"crypto/ecdsa"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/hetu-project/causality-engine/pkg/crypto"
	"github.com/hetu-project/causality-engine/pkg/eventlog"
	"github.com/hetu-project/causality-engine/pkg/protocol"
)

// maxRangeWidth caps how many integers a single request may sum.
const maxRangeWidth = 10_000_000

// SumService computes the toy sum-of-range payload and drives the clock
// protocol for inbound requests.
type SumService struct {
	clockService *ClockService
	privateKey   *ecdsa.PrivateKey
}

// NewSumService creates a new sum service. The private key is optional;
// responses are signed when it is set.
func NewSumService(clockService *ClockService, privateKey *ecdsa.PrivateKey) *SumService {
	return &SumService{
		clockService: clockService,
		privateKey:   privateKey,
	}
}

// ValidateRange checks the request payload without touching any clock
// state. A request rejected here has no causal effect on either side.
func (ss *SumService) ValidateRange(start, end int64) error {
	if end < start {
		return fmt.Errorf("invalid range: end %d is before start %d", end, start)
	}
	if end-start+1 > maxRangeWidth {
		return fmt.Errorf("range too large: %d values, limit %d", end-start+1, maxRangeWidth)
	}
	return nil
}

// Compute returns the sum of all integers in [start, end].
func (ss *SumService) Compute(start, end int64) (int64, error) {
	if err := ss.ValidateRange(start, end); err != nil {
		return 0, err
	}

	var sum int64
	for i := start; i <= end; i++ {
		sum += i
	}
	return sum, nil
}

// HandleSumRequest processes an inbound sum request from a peer: validate
// the payload, merge the carried snapshot (stamping a request-received
// event), compute the sum, stamp a calculation-complete event, and build
// the signed reply carrying the node's latest snapshot. The reply also
// reports how the inbound snapshot related to this node's pre-merge state.
// Validation runs before the merge so a rejected request never advances
// this node's clock.
func (ss *SumService) HandleSumRequest(req *protocol.SumRequest) (*protocol.SumResponse, error) {
	nodeID := ss.clockService.ProcessID()

	if err := ss.ValidateRange(req.RangeStart, req.RangeEnd); err != nil {
		return nil, err
	}

	relation, _ := ss.clockService.MergeEvent(
		req.Clock,
		eventlog.TypeRequestReceived,
		fmt.Sprintf("sum request %s from %s for [%d, %d]", req.RequestID, req.SenderID, req.RangeStart, req.RangeEnd),
	)
	log.Printf("[%s] request %s from %s carried clock %s (%s relative to local state)",
		nodeID, req.RequestID, req.SenderID, req.Clock.Format(), relation)

	// Range already validated, Compute cannot fail here
	sum, err := ss.Compute(req.RangeStart, req.RangeEnd)
	if err != nil {
		return nil, err
	}

	ev := ss.clockService.StampEvent(
		eventlog.TypeCalculationComplete,
		fmt.Sprintf("sum of [%d, %d] = %d for %s", req.RangeStart, req.RangeEnd, sum, req.SenderID),
	)

	resp := &protocol.SumResponse{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.SumResponseMessage,
			MessageID: uuid.New().String(),
			Timestamp: time.Now(),
		},
		ResponderID:     nodeID,
		RequestID:       req.RequestID,
		Sum:             sum,
		RequestRelation: relation.String(),
		Clock:           ev.Snapshot,
	}

	if ss.privateKey != nil {
		signature, err := crypto.SignData(ss.privateKey, resp.SigningPayload())
		if err != nil {
			return nil, fmt.Errorf("failed to sign response: %v", err)
		}
		resp.Signature = signature
	}

	return resp, nil
}
