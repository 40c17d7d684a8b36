// Package demo drives scripted and interactive walkthroughs of the
// simulated processes. The scripted scenario stamps local events, runs
// request/reply exchanges, injects a delivery failure, and finishes with an
// analyzer report over the recorded histories; the interactive mode exposes
// the same operations through a terminal menu.
package demo

import (
	"fmt"
	"time"

	"github.com/hetu-project/causality-engine/dgraph"
	"github.com/hetu-project/causality-engine/pkg/causality"
	"github.com/hetu-project/causality-engine/pkg/eventlog"
	"github.com/hetu-project/causality-engine/sim"
)

// Coordinator owns the simulated processes and optionally exports their
// events to Dgraph.
type Coordinator struct {
	ProcessIDs []string
	Processes  map[string]*sim.Process
	Graph      *dgraph.EventGraph
}

// NewCoordinator creates one process per id, all tracking the full roster.
func NewCoordinator(ids ...string) (*Coordinator, error) {
	c := &Coordinator{
		ProcessIDs: ids,
		Processes:  make(map[string]*sim.Process, len(ids)),
	}
	for _, id := range ids {
		p, err := sim.NewProcess(id, ids)
		if err != nil {
			return nil, err
		}
		c.Processes[id] = p
	}
	return c, nil
}

// SetGraph attaches a Dgraph event graph; every stamped event is exported
// and request/reply pairs get cross-process edges.
func (c *Coordinator) SetGraph(graph *dgraph.EventGraph) {
	c.Graph = graph
}

func (c *Coordinator) record(ev eventlog.Event) {
	if c.Graph == nil {
		return
	}
	if err := c.Graph.RecordEvent(ev); err != nil {
		fmt.Printf("⚠️  graph export error: %v\n", err)
	}
}

func (c *Coordinator) link(childID, parentID string) {
	if c.Graph == nil {
		return
	}
	if err := c.Graph.Link(childID, parentID); err != nil {
		fmt.Printf("⚠️  graph link error: %v\n", err)
	}
}

// stampLocal stamps a local event on one process and narrates it.
func (c *Coordinator) stampLocal(id, description string) eventlog.Event {
	ev := c.Processes[id].LocalEvent(description)
	c.record(ev)
	fmt.Printf("%s stamps local event %q, clock now %s\n", id, description, ev.Snapshot.Format())
	return ev
}

// runExchange performs one request/reply round trip and narrates both sides.
// The injected failure path is exercised by exchangeWithFailure instead.
func (c *Coordinator) runExchange(from, to string, start, end int64) error {
	sender := c.Processes[from]
	receiver := c.Processes[to]

	var reply sim.SumReply
	var requestRelation causality.Relation
	sendEvent, err := sender.Send(to, start, end, func(msg sim.SumMessage) error {
		r, relation, err := receiver.HandleRequest(msg)
		if err != nil {
			return err
		}
		reply = r
		requestRelation = relation
		return nil
	})
	if err != nil {
		return err
	}

	replyRelation, replyEvent := sender.AcceptReply(reply)

	c.record(sendEvent)
	receiverEvents := receiver.Log().Tail(2)
	for _, ev := range receiverEvents {
		c.record(ev)
	}
	c.record(replyEvent)
	if len(receiverEvents) == 2 {
		c.link(receiverEvents[0].ID, sendEvent.ID)
		c.link(replyEvent.ID, receiverEvents[1].ID)
	}

	fmt.Printf("%s sends sum request [%d, %d] to %s with clock %s\n",
		from, start, end, to, sendEvent.Snapshot.Format())
	fmt.Printf("%s computes sum = %d and replies with clock %s (request was %s)\n",
		to, reply.Sum, reply.Clock.Format(), requestRelation)
	fmt.Printf("%s merges the reply, clock now %s (reply was %s)\n",
		from, replyEvent.Snapshot.Format(), replyRelation)
	return nil
}

// exchangeWithFailure attempts a send whose delivery always fails, then
// shows that the sender's state did not move.
func (c *Coordinator) exchangeWithFailure(from, to string) {
	sender := c.Processes[from]
	before := sender.Format()
	logLen := sender.Log().Len()

	_, err := sender.Send(to, 1, 10, func(sim.SumMessage) error {
		return fmt.Errorf("simulated link failure to %s", to)
	})

	fmt.Printf("%s attempts a send to %s: %v\n", from, to, err)
	fmt.Printf("%s clock still %s, log still %d events (was %s, %d)\n",
		from, sender.Format(), sender.Log().Len(), before, logLen)
}

// RunScripted walks through the full scenario. It needs at least three
// processes.
func (c *Coordinator) RunScripted() {
	if len(c.ProcessIDs) < 3 {
		fmt.Println("scripted walkthrough needs at least three processes")
		return
	}

	fmt.Println("=== Causality Engine Scripted Walkthrough ===")
	fmt.Printf("Processes: %v\n\n", c.ProcessIDs)

	p1, p2, p3 := c.ProcessIDs[0], c.ProcessIDs[1], c.ProcessIDs[2]

	fmt.Println("--- Step 1: independent local work ---")
	firstLocal := c.stampLocal(p1, "load input batch")
	c.stampLocal(p3, "warm up cache")
	fmt.Println()
	pause()

	fmt.Println("--- Step 2: request/reply chain ---")
	if err := c.runExchange(p1, p2, 1, 100); err != nil {
		fmt.Printf("⚠️  exchange failed: %v\n", err)
	}
	fmt.Println()
	pause()

	fmt.Println("--- Step 3: a concurrent branch keeps growing ---")
	branch := c.stampLocal(p3, "independent computation")
	fmt.Printf("Analyzer: %s's branch vs %s's first event: %s\n",
		p3, p1, causality.Compare(branch.Snapshot, firstLocal.Snapshot))
	fmt.Println()
	pause()

	fmt.Println("--- Step 4: the branch joins the chain ---")
	if err := c.runExchange(p3, p2, 1, 10); err != nil {
		fmt.Printf("⚠️  exchange failed: %v\n", err)
	}
	fmt.Println()
	pause()

	fmt.Println("--- Step 5: mismatched rosters never extend ---")
	c.exchangeWithOutsider(p1)
	fmt.Println()
	pause()

	fmt.Println("--- Step 6: a failed send leaves no trace ---")
	c.exchangeWithFailure(p1, p2)
	fmt.Println()

	c.printSummary()
}

// exchangeWithOutsider runs a round trip against a process that tracks only
// itself. Neither side learns the other's keys: the outsider's merge keeps
// nothing, and the sender drops the outsider's key from the reply.
func (c *Coordinator) exchangeWithOutsider(from string) {
	outsider, err := sim.NewProcess("aux", []string{"aux"})
	if err != nil {
		fmt.Printf("⚠️  could not create outsider: %v\n", err)
		return
	}

	sender := c.Processes[from]
	var reply sim.SumReply
	sendEvent, err := sender.Send(outsider.ID, 2, 4, func(msg sim.SumMessage) error {
		r, _, err := outsider.HandleRequest(msg)
		if err != nil {
			return err
		}
		reply = r
		return nil
	})
	if err != nil {
		fmt.Printf("⚠️  exchange failed: %v\n", err)
		return
	}
	_, replyEvent := sender.AcceptReply(reply)
	c.record(sendEvent)
	c.record(replyEvent)

	fmt.Printf("%s sends sum request [2, 4] to %s with clock %s\n",
		from, outsider.ID, sendEvent.Snapshot.Format())
	fmt.Printf("%s tracks only itself, so the merge keeps nothing: clock %s\n",
		outsider.ID, reply.Clock.Format())
	fmt.Printf("%s merges the reply and drops the unknown key: clock %s, %s reads as %d\n",
		from, replyEvent.Snapshot.Format(), outsider.ID, sender.ValueOf(outsider.ID))
}

// printSummary renders final clocks, per-process log tails with pairwise
// annotations, and analyzer verdicts across processes.
func (c *Coordinator) printSummary() {
	fmt.Println("=== Final State ===")
	for _, id := range c.ProcessIDs {
		fmt.Printf("%s: %s\n", id, c.Processes[id].Format())
	}

	fmt.Println("\n=== Event Logs ===")
	for _, id := range c.ProcessIDs {
		p := c.Processes[id]
		fmt.Printf("%s (%d events):\n", id, p.Log().Len())
		for _, a := range eventlog.PairwiseCausality(p.Log().Tail(10)) {
			if a.First {
				fmt.Printf("  %-22s %-42s %s\n", a.Type, a.Description, a.Snapshot.Format())
			} else {
				fmt.Printf("  %-22s %-42s %s (%s vs prev)\n",
					a.Type, a.Description, a.Snapshot.Format(), a.RelationToPrev)
			}
		}
		summary := p.Log().SummarizeByType()
		fmt.Printf("  by type: %v\n", summary)
	}

	fmt.Println("\n=== Analyzer Verdicts ===")
	for i, a := range c.ProcessIDs {
		for _, b := range c.ProcessIDs[i+1:] {
			snapA := c.Processes[a].Snapshot()
			snapB := c.Processes[b].Snapshot()
			fmt.Printf("%s %s vs %s %s: %s\n",
				a, snapA.Format(), b, snapB.Format(), causality.Compare(snapA, snapB))
		}
	}
}

// CommitGraph flushes any exported events to Dgraph.
func (c *Coordinator) CommitGraph() error {
	if c.Graph == nil {
		return nil
	}
	fmt.Printf("\n=== Committing %d graph mutations to Dgraph ===\n", c.Graph.PendingCount())
	return c.Graph.CommitToGraph()
}

// pause keeps the scripted narration readable when run in a terminal.
func pause() {
	time.Sleep(300 * time.Millisecond)
}
