package rmq

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestRouteCacheSingleFlight(t *testing.T) {
	ft := &fakeTransport{route: TopicRouteData{Partitions: makePartitions("t", 3, false)}}
	cache := newTopicRouteCache(ft, RpcTarget{}, nil)

	md := testMD(t)
	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.getRoute(context.Background(), "t", md); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("getRoute: %v", err)
	}

	if ft.routeCalls != 1 {
		t.Fatalf("expected exactly 1 underlying RPC for concurrent misses, got %d", ft.routeCalls)
	}
}

func TestRouteCacheDoesNotCacheFailures(t *testing.T) {
	ft := &fakeTransport{routeErr: fmt.Errorf("boom")}
	cache := newTopicRouteCache(ft, RpcTarget{}, nil)

	if _, err := cache.getRoute(context.Background(), "t", testMD(t)); err == nil {
		t.Fatalf("expected error")
	}
	ft.routeErr = nil
	ft.route = TopicRouteData{Partitions: makePartitions("t", 1, false)}

	route, err := cache.getRoute(context.Background(), "t", testMD(t))
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if len(route.Partitions) != 1 {
		t.Fatalf("expected fresh route data, got %v", route)
	}
	if ft.routeCalls != 2 {
		t.Fatalf("expected a second RPC after the first failed, got %d", ft.routeCalls)
	}
}

func TestRouteCacheRefreshOverwritesAtomically(t *testing.T) {
	ft := &fakeTransport{route: TopicRouteData{Partitions: makePartitions("t", 1, false)}}
	cache := newTopicRouteCache(ft, RpcTarget{}, nil)

	if _, err := cache.getRoute(context.Background(), "t", testMD(t)); err != nil {
		t.Fatalf("getRoute: %v", err)
	}
	cache.refresh("t", TopicRouteData{Partitions: makePartitions("t", 5, false)})

	route, err := cache.getRoute(context.Background(), "t", testMD(t))
	if err != nil {
		t.Fatalf("getRoute: %v", err)
	}
	if len(route.Partitions) != 5 {
		t.Fatalf("refresh should have overwritten the cached entry, got %d partitions", len(route.Partitions))
	}
	if ft.routeCalls != 1 {
		t.Fatalf("refresh must not trigger a new RPC, got %d calls", ft.routeCalls)
	}
}
