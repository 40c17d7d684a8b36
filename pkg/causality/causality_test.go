package causality

import (
	"testing"

	"github.com/hetu-project/causality-engine/pkg/vclock"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		a        vclock.Snapshot
		b        vclock.Snapshot
		expected Relation
	}{
		{
			name:     "a before b",
			a:        vclock.Snapshot{"P1": 1, "P2": 1},
			b:        vclock.Snapshot{"P1": 2, "P2": 2},
			expected: Before,
		},
		{
			name:     "a after b",
			a:        vclock.Snapshot{"P1": 2, "P2": 2},
			b:        vclock.Snapshot{"P1": 1, "P2": 1},
			expected: After,
		},
		{
			name:     "concurrent: each ahead on one component",
			a:        vclock.Snapshot{"P1": 2, "P2": 1},
			b:        vclock.Snapshot{"P1": 1, "P2": 2},
			expected: Concurrent,
		},
		{
			name:     "identical snapshots are concurrent, not equal",
			a:        vclock.Snapshot{"P1": 1, "P2": 2},
			b:        vclock.Snapshot{"P1": 1, "P2": 2},
			expected: Concurrent,
		},
		{
			name:     "before on partial overlap",
			a:        vclock.Snapshot{"P1": 1, "P3": 5},
			b:        vclock.Snapshot{"P1": 2, "P2": 9},
			expected: Before,
		},
		{
			name:     "disjoint rosters are concurrent",
			a:        vclock.Snapshot{"P1": 4},
			b:        vclock.Snapshot{"P2": 7},
			expected: Concurrent,
		},
		{
			name:     "empty snapshot is concurrent with anything",
			a:        vclock.Snapshot{},
			b:        vclock.Snapshot{"P1": 3},
			expected: Concurrent,
		},
		{
			name:     "excluded key does not count as zero",
			a:        vclock.Snapshot{"P1": 1, "P2": 8},
			b:        vclock.Snapshot{"P1": 2},
			expected: Before,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestThreeWayVerdictIsExhaustiveAndExclusive(t *testing.T) {
	pairs := []struct {
		name string
		a    vclock.Snapshot
		b    vclock.Snapshot
	}{
		{"ordered", vclock.Snapshot{"P1": 1, "P2": 0}, vclock.Snapshot{"P1": 1, "P2": 1}},
		{"reversed", vclock.Snapshot{"P1": 3, "P2": 3}, vclock.Snapshot{"P1": 1, "P2": 2}},
		{"concurrent", vclock.Snapshot{"P1": 1, "P2": 0}, vclock.Snapshot{"P1": 0, "P2": 1}},
		{"identical", vclock.Snapshot{"P1": 2, "P2": 2}, vclock.Snapshot{"P1": 2, "P2": 2}},
		{"disjoint", vclock.Snapshot{"P1": 1}, vclock.Snapshot{"P2": 1}},
		{"empty both", vclock.Snapshot{}, vclock.Snapshot{}},
	}

	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			verdicts := 0
			if HappenedBefore(tt.a, tt.b) {
				verdicts++
			}
			if HappenedAfter(tt.a, tt.b) {
				verdicts++
			}
			if IsConcurrentWith(tt.a, tt.b) {
				verdicts++
			}
			if verdicts != 1 {
				t.Errorf("Expected exactly one verdict to hold, got %d for %s vs %s",
					verdicts, tt.a.Format(), tt.b.Format())
			}
		})
	}
}

func TestHappenedBeforeIsIrreflexive(t *testing.T) {
	snaps := []vclock.Snapshot{
		{},
		{"P1": 0},
		{"P1": 1, "P2": 2},
		{"P1": 5, "P2": 0, "P3": 3},
	}
	for _, s := range snaps {
		if HappenedBefore(s, s) {
			t.Errorf("HappenedBefore(%s, %s) must be false", s.Format(), s.Format())
		}
	}
}

func TestHappenedBeforeIsTransitiveAlongCausalChain(t *testing.T) {
	// a -> b by a local increment on P1, b -> c by P2 merging b.
	p1, err := vclock.New("P1", []string{"P1", "P2"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	p2, err := vclock.New("P2", []string{"P1", "P2"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	a := p1.Increment()
	b := p1.Increment()
	c := p2.Merge(b)

	if !HappenedBefore(a, b) {
		t.Errorf("Expected %s before %s", a.Format(), b.Format())
	}
	if !HappenedBefore(b, c) {
		t.Errorf("Expected %s before %s", b.Format(), c.Format())
	}
	if !HappenedBefore(a, c) {
		t.Errorf("Transitivity violated: expected %s before %s", a.Format(), c.Format())
	}
}

func TestSendReceiveScenario(t *testing.T) {
	// Roster {P1, P2}, both at zero. P1 stamps a local event and sends its
	// snapshot to P2; P2 merges. P2's post-merge state happened after P1's
	// send state.
	p1, _ := vclock.New("P1", []string{"P1", "P2"})
	p2, _ := vclock.New("P2", []string{"P1", "P2"})

	sent := p1.Increment()
	if sent.Format() != "{P1:1, P2:0}" {
		t.Fatalf("Expected {P1:1, P2:0}, got %s", sent.Format())
	}

	merged := p2.Merge(sent)
	if merged.Format() != "{P1:1, P2:1}" {
		t.Fatalf("Expected {P1:1, P2:1}, got %s", merged.Format())
	}

	if got := Compare(merged, sent); got != After {
		t.Errorf("Expected After, got %v", got)
	}
	if got := Compare(sent, merged); got != Before {
		t.Errorf("Expected Before, got %v", got)
	}
}

func TestIndependentIncrementsAreConcurrent(t *testing.T) {
	p1, _ := vclock.New("P1", []string{"P1", "P2"})
	p2, _ := vclock.New("P2", []string{"P1", "P2"})

	a := p1.Increment()
	b := p2.Increment()

	if !IsConcurrentWith(a, b) {
		t.Errorf("Expected %s concurrent with %s", a.Format(), b.Format())
	}
	if !IsConcurrentWith(b, a) {
		t.Errorf("Expected %s concurrent with %s", b.Format(), a.Format())
	}
	if got := Compare(a, b); got != Concurrent {
		t.Errorf("Expected Concurrent, got %v", got)
	}
}

func TestHappenedAfterMirrorsHappenedBefore(t *testing.T) {
	a := vclock.Snapshot{"P1": 1, "P2": 0}
	b := vclock.Snapshot{"P1": 1, "P2": 1}

	if !HappenedAfter(b, a) {
		t.Errorf("Expected %s after %s", b.Format(), a.Format())
	}
	if HappenedAfter(a, b) {
		t.Errorf("Did not expect %s after %s", a.Format(), b.Format())
	}
}

func TestRelationString(t *testing.T) {
	tests := []struct {
		relation Relation
		expected string
	}{
		{Before, "happened-before"},
		{After, "happened-after"},
		{Concurrent, "concurrent"},
	}
	for _, tt := range tests {
		if got := tt.relation.String(); got != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, got)
		}
	}
}
