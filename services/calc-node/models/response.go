package models

// LocalEventRequest asks the node to stamp a purely local event.
type LocalEventRequest struct {
	Description string `json:"description" binding:"required"`
}

// SendSumRequest asks the node to send a sum-of-range request to a peer.
type SendSumRequest struct {
	PeerID     string `json:"peer_id" binding:"required"`
	RangeStart int64  `json:"range_start"`
	RangeEnd   int64  `json:"range_end"`
}

// ErrorResponse represents a generic error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}
