package rmq

import (
	"math/rand"
	"testing"
)

func TestTakePartitionsEmptyFails(t *testing.T) {
	info := newPublishInfo(nil, rand.New(rand.NewSource(1)))
	_, err := takePartitions(info, newIsolationRegistry(), 3)
	if !IsKind(err, KindNoWritablePartition) {
		t.Fatalf("expected NoWritablePartition, got %v", err)
	}
}

func TestTakePartitionsRoundRobin(t *testing.T) {
	parts := makePartitions("t", 4, false)
	info := newPublishInfo(parts, rand.New(rand.NewSource(1)))
	isolation := newIsolationRegistry()

	first, err := takePartitions(info, isolation, 3)
	if err != nil {
		t.Fatalf("takePartitions: %v", err)
	}
	second, err := takePartitions(info, isolation, 3)
	if err != nil {
		t.Fatalf("takePartitions: %v", err)
	}
	if first[0].ID == second[0].ID && first[1].ID == second[1].ID && first[2].ID == second[2].ID {
		t.Fatalf("expected cursor to rotate across calls, got identical candidate sets %v vs %v", first, second)
	}
}

func TestTakePartitionsSkipsIsolatedEndpoints(t *testing.T) {
	parts := makePartitions("t", 4, false)
	info := newPublishInfo(parts, rand.New(rand.NewSource(1)))
	isolation := newIsolationRegistry()
	isolation.isolate(parts[0].Target.Endpoints)
	isolation.isolate(parts[1].Target.Endpoints)

	candidates, err := takePartitions(info, isolation, 2)
	if err != nil {
		t.Fatalf("takePartitions: %v", err)
	}
	for _, c := range candidates {
		if c.ID == 0 || c.ID == 1 {
			t.Fatalf("candidate %d should have been filtered as isolated: %v", c.ID, candidates)
		}
	}
}

func TestTakePartitionsFallsBackWhenAllIsolated(t *testing.T) {
	parts := makePartitions("t", 3, false)
	info := newPublishInfo(parts, rand.New(rand.NewSource(1)))
	isolation := newIsolationRegistry()
	for _, p := range parts {
		isolation.isolate(p.Target.Endpoints)
	}

	candidates, err := takePartitions(info, isolation, 3)
	if err != nil {
		t.Fatalf("expected best-effort fallback, not an error: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(candidates))
	}
}

func TestTakePartitionsAllowsRepeatOnlyWhenFewerPartitionsThanN(t *testing.T) {
	parts := makePartitions("t", 2, true) // same broker endpoint
	info := newPublishInfo(parts, rand.New(rand.NewSource(1)))
	isolation := newIsolationRegistry()

	candidates, err := takePartitions(info, isolation, 5)
	if err != nil {
		t.Fatalf("takePartitions: %v", err)
	}
	if len(candidates) != 5 {
		t.Fatalf("expected 5 candidates, got %d", len(candidates))
	}
}
