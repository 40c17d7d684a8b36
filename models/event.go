package models

// Event is one node of the exported causal event graph. Clock carries the
// deterministic rendering of the snapshot stamped on the event; Parent edges
// point at the events that causally precede it.
type Event struct {
	UID         string      `json:"uid,omitempty"`
	EventID     string      `json:"event_id,omitempty"`
	Type        string      `json:"event_type,omitempty"`
	Description string      `json:"description,omitempty"`
	Clock       string      `json:"clock,omitempty"`
	Depth       int         `json:"depth,omitempty"`
	Process     string      `json:"process,omitempty"`
	Parent      []ParentRef `json:"parent,omitempty"`
}

// ParentRef represents a reference to a parent event
type ParentRef struct {
	UID string `json:"uid,omitempty"`
}
