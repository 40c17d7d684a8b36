// Package protocol defines the JSON request/reply schema exchanged between
// calc nodes. Every message that crosses the wire embeds the sender's clock
// snapshot; the snapshot is the only coordination mechanism between
// processes.
package protocol

import (
	"fmt"
	"time"

	"github.com/hetu-project/causality-engine/pkg/vclock"
)

// MessageType represents the type of message
type MessageType string

const (
	SumRequestMessage  MessageType = "sum_request"
	SumResponseMessage MessageType = "sum_response"
	ErrorMessage       MessageType = "error"
)

// BaseMessage represents the base structure for all messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	MessageID string      `json:"message_id"`
	Timestamp time.Time   `json:"timestamp"`
	Signature string      `json:"signature,omitempty"`
}

// SumRequest asks a peer to compute the sum of the integers in
// [RangeStart, RangeEnd]. Clock is the sender's snapshot stamped at send
// time; the receiver merges it before doing anything else.
type SumRequest struct {
	BaseMessage

	SenderID   string          `json:"sender_id"`
	RangeStart int64           `json:"range_start"`
	RangeEnd   int64           `json:"range_end"`
	Clock      vclock.Snapshot `json:"clock"`

	// RequestID tracks the request across retries and logs.
	RequestID string `json:"request_id"`
}

// SumResponse carries the computed sum back to the requester. Clock is the
// responder's post-merge snapshot; RequestRelation is the analyzer's verdict
// for the inbound request clock against the responder's pre-merge state.
type SumResponse struct {
	BaseMessage

	ResponderID     string          `json:"responder_id"`
	RequestID       string          `json:"request_id"`
	Sum             int64           `json:"sum"`
	RequestRelation string          `json:"request_relation"`
	Clock           vclock.Snapshot `json:"clock"`
}

// SigningPayload returns the canonical bytes covered by the response
// signature. The clock rendering is deterministic, so both sides derive the
// same bytes.
func (r *SumResponse) SigningPayload() []byte {
	return []byte(fmt.Sprintf("%s|%s|%d|%s", r.RequestID, r.ResponderID, r.Sum, r.Clock.Format()))
}

// ErrorResponse represents error response
type ErrorResponse struct {
	BaseMessage
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}

// API endpoints constants
const (
	// Peer-facing endpoints
	SumEndpoint = "/api/v1/sum"

	// Operator endpoints
	ClockEndpoint      = "/api/v1/clock"
	EventsEndpoint     = "/api/v1/events"
	LocalEventEndpoint = "/api/v1/actions/local"
	SendSumEndpoint    = "/api/v1/actions/send"

	HealthEndpoint = "/health"
	ReadyEndpoint  = "/ready"
)

// HTTP Status codes for protocol
const (
	StatusSuccess            = 200
	StatusBadRequest         = 400
	StatusNotFound           = 404
	StatusInternalError      = 500
	StatusServiceUnavailable = 503
)

// PeerEndpoint identifies one reachable peer process.
type PeerEndpoint struct {
	ID  string `json:"id"`  // process id, e.g. "node-b"
	URL string `json:"url"` // base URL, e.g. http://node-b:8080

	// PublicKey is the peer's hex-encoded signing key; responses are
	// verified when it is set.
	PublicKey string `json:"public_key,omitempty"`
}

// NetworkConfig describes the peer roster and transport policy of one node.
type NetworkConfig struct {
	Peers []PeerEndpoint `json:"peers"`

	// Timeouts
	RequestTimeout time.Duration `json:"request_timeout"`

	// Retry policy
	MaxRetries    int           `json:"max_retries"`
	RetryInterval time.Duration `json:"retry_interval"`
}

// DefaultNetworkConfig returns the transport policy used when nothing is
// configured.
func DefaultNetworkConfig() *NetworkConfig {
	return &NetworkConfig{
		RequestTimeout: 10 * time.Second,
		MaxRetries:     3,
		RetryInterval:  2 * time.Second,
	}
}

// Peer returns the endpoint for the given process id.
func (nc *NetworkConfig) Peer(id string) (PeerEndpoint, bool) {
	for _, p := range nc.Peers {
		if p.ID == id {
			return p, true
		}
	}
	return PeerEndpoint{}, false
}

// PeerIDs returns the ids of all configured peers.
func (nc *NetworkConfig) PeerIDs() []string {
	ids := make([]string, 0, len(nc.Peers))
	for _, p := range nc.Peers {
		ids = append(ids, p.ID)
	}
	return ids
}
