package dgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/dgo/v210"
	"github.com/dgraph-io/dgo/v210/protos/api"

	"github.com/hetu-project/causality-engine/models"
	"github.com/hetu-project/causality-engine/pkg/eventlog"
)

// EventGraph buffers stamped events as graph nodes and flushes them to
// Dgraph in batches. Each event is linked to the previous event recorded
// for the same process, so the per-process causal chains are visible in
// the exported graph; cross-process edges are added with Link.
type EventGraph struct {
	client *dgo.Dgraph

	mu        sync.Mutex
	pending   []models.Event
	uidMap    map[string]string
	lastEvent map[string]string
	depth     int
}

// NewEventGraph creates an event graph backed by the given Dgraph client.
func NewEventGraph(client *dgo.Dgraph) *EventGraph {
	return &EventGraph{
		client:    client,
		pending:   make([]models.Event, 0),
		uidMap:    make(map[string]string),
		lastEvent: make(map[string]string),
	}
}

// RecordEvent buffers one stamped event as a graph node. The node is
// parented on the previous event recorded for the same process.
func (eg *EventGraph) RecordEvent(ev eventlog.Event) error {
	eg.mu.Lock()
	defer eg.mu.Unlock()

	if _, ok := eg.uidMap[ev.ID]; ok {
		return nil
	}

	eg.depth++
	node := models.Event{
		UID:         blankUID(ev.ID),
		EventID:     ev.ID,
		Type:        string(ev.Type),
		Description: ev.Description,
		Clock:       ev.Snapshot.Format(),
		Depth:       eg.depth,
		Process:     ev.ProcessID,
	}

	if prevID, ok := eg.lastEvent[ev.ProcessID]; ok {
		if uid, ok := eg.uidMap[prevID]; ok {
			node.Parent = []models.ParentRef{{UID: uid}}
		}
	}

	eg.pending = append(eg.pending, node)
	eg.uidMap[ev.ID] = node.UID
	eg.lastEvent[ev.ProcessID] = ev.ID

	return nil
}

// Link adds a causal edge from child to parent across processes, typically
// a receive event pointing at the send that produced the merged message.
// Both events must have been recorded already.
func (eg *EventGraph) Link(childEventID, parentEventID string) error {
	eg.mu.Lock()
	defer eg.mu.Unlock()

	childUID, ok := eg.uidMap[childEventID]
	if !ok {
		return fmt.Errorf("unknown child event %s", childEventID)
	}
	parentUID, ok := eg.uidMap[parentEventID]
	if !ok {
		return fmt.Errorf("unknown parent event %s", parentEventID)
	}

	eg.pending = append(eg.pending, models.Event{
		UID:    childUID,
		Parent: []models.ParentRef{{UID: parentUID}},
	})
	return nil
}

// PendingCount reports how many buffered mutations await the next commit.
func (eg *EventGraph) PendingCount() int {
	eg.mu.Lock()
	defer eg.mu.Unlock()
	return len(eg.pending)
}

// CommitToGraph flushes all buffered events to Dgraph in one mutation.
// Blank UIDs are replaced with the assigned ones afterwards, so parent
// references keep working across commit batches.
func (eg *EventGraph) CommitToGraph() error {
	eg.mu.Lock()
	defer eg.mu.Unlock()

	if len(eg.pending) == 0 {
		return nil
	}

	mutationJSON, err := json.Marshal(eg.pending)
	if err != nil {
		return fmt.Errorf("failed to marshal events: %v", err)
	}

	txn := eg.client.NewTxn()
	defer txn.Discard(context.Background())

	mu := &api.Mutation{
		SetJson:   mutationJSON,
		CommitNow: true,
	}

	resp, err := txn.Mutate(context.Background(), mu)
	if err != nil {
		return fmt.Errorf("failed to commit events to Dgraph: %v", err)
	}

	for eventID, uid := range eg.uidMap {
		name, ok := strings.CutPrefix(uid, "_:")
		if !ok {
			continue
		}
		if assigned, ok := resp.Uids[name]; ok {
			eg.uidMap[eventID] = assigned
		}
	}

	eg.pending = eg.pending[:0]

	log.Println("Causal event graph committed to Dgraph")
	return nil
}

// StartAutoCommit starts automatic periodic commits to Dgraph. Closing the
// returned channel stops the loop.
func (eg *EventGraph) StartAutoCommit(interval time.Duration) chan struct{} {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := eg.CommitToGraph(); err != nil {
					log.Printf("Auto-commit error: %v", err)
				}
			case <-done:
				return
			}
		}
	}()

	return done
}

// blankUID derives a Dgraph blank node name from an event id.
func blankUID(eventID string) string {
	return "_:ev_" + strings.ReplaceAll(eventID, "-", "")
}
