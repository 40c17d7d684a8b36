package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hetu-project/causality-engine/pkg/causality"
	"github.com/hetu-project/causality-engine/pkg/crypto"
	"github.com/hetu-project/causality-engine/pkg/eventlog"
	"github.com/hetu-project/causality-engine/pkg/protocol"
	"github.com/hetu-project/causality-engine/pkg/vclock"
)

// PeerClient handles sum-of-range exchanges with peer nodes
type PeerClient struct {
	config       *protocol.NetworkConfig
	httpClient   *http.Client
	nodeID       string
	clockService *ClockService
}

// NewPeerClient creates a new peer client
func NewPeerClient(config *protocol.NetworkConfig, nodeID string, clockService *ClockService) *PeerClient {
	return &PeerClient{
		config:       config,
		nodeID:       nodeID,
		clockService: clockService,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
	}
}

// SumExchange is the outcome of one completed request/reply round trip.
type SumExchange struct {
	Response      *protocol.SumResponse
	SendEvent     eventlog.Event
	ReplyEvent    eventlog.Event
	ReplyRelation causality.Relation
}

// SendSum sends a sum request to the given peer and merges the reply. The
// outbound tick, the HTTP exchange, and the signature check run inside one
// stamped critical section: if any of them fails, the node's clock and log
// are left exactly as they were before the attempt.
func (pc *PeerClient) SendSum(ctx context.Context, peerID string, start, end int64) (*SumExchange, error) {
	endpoint, ok := pc.config.Peer(peerID)
	if !ok {
		return nil, fmt.Errorf("unknown peer %q", peerID)
	}

	requestID := uuid.New().String()
	description := fmt.Sprintf("sum request %s to %s for [%d, %d]", requestID, peerID, start, end)

	var response *protocol.SumResponse
	sendEvent, err := pc.clockService.SendEvent(description, func(snap vclock.Snapshot) error {
		request := &protocol.SumRequest{
			BaseMessage: protocol.BaseMessage{
				Type:      protocol.SumRequestMessage,
				MessageID: uuid.New().String(),
				Timestamp: time.Now(),
			},
			SenderID:   pc.nodeID,
			RangeStart: start,
			RangeEnd:   end,
			Clock:      snap,
			RequestID:  requestID,
		}

		resp, err := pc.exchange(ctx, endpoint, request)
		if err != nil {
			return err
		}
		response = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("send to %s failed, clock unchanged: %w", peerID, err)
	}

	relation, replyEvent := pc.clockService.MergeEvent(
		response.Clock,
		eventlog.TypeReplyReceived,
		fmt.Sprintf("sum reply %s from %s: %d (%s)", requestID, peerID, response.Sum, response.RequestRelation),
	)
	log.Printf("[%s] reply %s from %s carried clock %s (%s relative to local state)",
		pc.nodeID, requestID, peerID, response.Clock.Format(), relation)

	return &SumExchange{
		Response:      response,
		SendEvent:     sendEvent,
		ReplyEvent:    replyEvent,
		ReplyRelation: relation,
	}, nil
}

// exchange performs the HTTP round trip with retries and verifies the
// response signature when the peer's public key is configured.
func (pc *PeerClient) exchange(ctx context.Context, endpoint protocol.PeerEndpoint, request *protocol.SumRequest) (*protocol.SumResponse, error) {
	reqBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	url := endpoint.URL + protocol.SumEndpoint

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt <= pc.config.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(pc.config.RetryInterval)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Node-ID", pc.nodeID)
		req.Header.Set("X-Request-ID", request.RequestID)

		resp, lastErr = pc.httpClient.Do(req)
		if lastErr == nil && resp.StatusCode == http.StatusOK {
			break
		}

		if resp != nil {
			resp.Body.Close()
			lastErr = fmt.Errorf("peer returned status %d", resp.StatusCode)
			resp = nil
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("failed after %d attempts: %v", pc.config.MaxRetries+1, lastErr)
	}
	defer resp.Body.Close()

	var sumResp protocol.SumResponse
	if err := json.NewDecoder(resp.Body).Decode(&sumResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}
	if sumResp.RequestID != request.RequestID {
		return nil, fmt.Errorf("response for wrong request: got %s, want %s", sumResp.RequestID, request.RequestID)
	}

	if endpoint.PublicKey != "" {
		publicKey, err := crypto.PublicKeyFromHex(endpoint.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("bad public key for peer %s: %v", endpoint.ID, err)
		}
		valid, err := crypto.VerifySignature(publicKey, sumResp.SigningPayload(), sumResp.Signature)
		if err != nil {
			return nil, fmt.Errorf("failed to verify response signature: %v", err)
		}
		if !valid {
			return nil, fmt.Errorf("invalid response signature from peer %s", endpoint.ID)
		}
	}

	return &sumResp, nil
}
