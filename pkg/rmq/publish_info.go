package rmq

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
)

// PublishInfo is one topic's writable partitions plus a rotating cursor. The cursor is seeded from a process-wide
// random source at construction time: a single per-PublishInfo atomic
// counter, rather than a thread-local one, is all the correctness a
// random starting offset ever bought.
type PublishInfo struct {
	Partitions []Partition
	cursor     uint64
}

func newPublishInfo(partitions []Partition, seed *rand.Rand) *PublishInfo {
	var start uint64
	if len(partitions) > 0 {
		start = uint64(seed.Intn(len(partitions)))
	}
	return &PublishInfo{Partitions: partitions, cursor: start}
}

func (p *PublishInfo) nextCursor() uint64 {
	return atomic.AddUint64(&p.cursor, 1) - 1
}

// publishInfoIndex is the map of topic -> *PublishInfo. One index is held
// per ClientInstance, so every producer sharing that instance shares the
// same PublishInfo and cursor for a topic; there is no per-producer copy.
// Independent keys never serialize against each other.
type publishInfoIndex struct {
	routes *topicRouteCache
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu   sync.RWMutex
	byTopic map[string]*PublishInfo
}

func newPublishInfoIndex(routes *topicRouteCache, seed int64) *publishInfoIndex {
	return &publishInfoIndex{
		routes:  routes,
		rnd:     rand.New(rand.NewSource(seed)),
		byTopic: make(map[string]*PublishInfo),
	}
}

// getPublishInfo returns the cached PublishInfo for topic, or fetches its
// route via the topic route cache, filters to writable partitions, and
// stores it. Two concurrent misses may each build a PublishInfo;
// last-writer-wins is acceptable since the route cache single-flights
// the underlying fetch and both builders see the same partition set.
func (idx *publishInfoIndex) getPublishInfo(ctx context.Context, topic string, md map[string]string) (*PublishInfo, error) {
	idx.mu.RLock()
	if info, ok := idx.byTopic[topic]; ok {
		idx.mu.RUnlock()
		return info, nil
	}
	idx.mu.RUnlock()

	route, err := idx.routes.getRoute(ctx, topic, md)
	if err != nil {
		return nil, err
	}

	idx.rndMu.Lock()
	localRnd := rand.New(rand.NewSource(idx.rnd.Int63()))
	idx.rndMu.Unlock()

	info := newPublishInfo(route.WritablePartitions(), localRnd)

	idx.mu.Lock()
	idx.byTopic[topic] = info
	idx.mu.Unlock()
	return info, nil
}
