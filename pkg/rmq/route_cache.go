package rmq

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// topicRouteCache is the per-ClientInstance, single-flighted topic route
// cache: all concurrent getRoute(topic) callers for the same topic share
// one underlying RPC; success caches the entry, failure caches nothing
// so the next call retries.
type topicRouteCache struct {
	transport Transport
	target    RpcTarget
	hooks     hookSet
	group     singleflight.Group

	mu    sync.RWMutex
	cache map[string]TopicRouteData
}

func newTopicRouteCache(transport Transport, target RpcTarget, hooks hookSet) *topicRouteCache {
	return &topicRouteCache{
		transport: transport,
		target:    target,
		hooks:     hooks,
		cache:     make(map[string]TopicRouteData),
	}
}

// getRoute returns the cached route, or launches exactly one route-fetch
// RPC per topic across however many concurrent callers ask, via
// golang.org/x/sync/singleflight.
func (c *topicRouteCache) getRoute(ctx context.Context, topic string, md map[string]string) (TopicRouteData, error) {
	c.mu.RLock()
	cached, ok := c.cache[topic]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	if c.transport == nil {
		return TopicRouteData{}, newErr(KindTransportFailure, "getRoute", errNoTransport)
	}

	v, err, _ := c.group.Do(topic, func() (interface{}, error) {
		route, err := c.transport.QueryRoute(ctx, c.target, topic, md)
		if err != nil {
			return TopicRouteData{}, err
		}
		c.mu.Lock()
		c.cache[topic] = *route
		c.mu.Unlock()
		c.hooks.routeRefresh(topic, len(route.Partitions))
		return *route, nil
	})
	if err != nil {
		return TopicRouteData{}, err
	}
	return v.(TopicRouteData), nil
}

// refresh overwrites a topic's cached entry atomically, the hook for
// periodic or server-push route refresh.
func (c *topicRouteCache) refresh(topic string, route TopicRouteData) {
	c.mu.Lock()
	c.cache[topic] = route
	c.mu.Unlock()
	c.hooks.routeRefresh(topic, len(route.Partitions))
}
