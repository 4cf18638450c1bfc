package rmq

import (
	"sync"
	"testing"
)

func TestIsolationRegistryBasic(t *testing.T) {
	r := newIsolationRegistry()
	ep := Endpoints{Addresses: []string{"broker-0:10911"}}

	if r.isIsolated(ep) {
		t.Fatalf("should start healthy")
	}
	r.isolate(ep)
	if !r.isIsolated(ep) {
		t.Fatalf("should be isolated")
	}
	snap := r.snapshot()
	if _, ok := snap[ep.key()]; !ok {
		t.Fatalf("snapshot missing isolated endpoint")
	}
	r.unisolate(ep)
	if r.isIsolated(ep) {
		t.Fatalf("should be healthy after unisolate")
	}
}

func TestIsolationRegistryConcurrentSafe(t *testing.T) {
	r := newIsolationRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		ep := Endpoints{Addresses: []string{"broker-x:10911"}}
		go func() {
			defer wg.Done()
			r.isolate(ep)
			_ = r.snapshot()
			r.unisolate(ep)
		}()
	}
	wg.Wait()
}
