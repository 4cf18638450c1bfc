package rmq

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeTransport is the hand-rolled double the Transport boundary exists
// for: the gRPC transport itself is an external collaborator referenced
// only by interface.
type fakeTransport struct {
	mu sync.Mutex

	route       TopicRouteData
	routeErr    error
	routeCalls  int32
	routeMD     map[string]string

	// sendScript is consulted per call (keyed by call index) to decide
	// OK/err; calls past its end, or every call when it is unset, are
	// decided by sendOK.
	sendScript []error
	sendCalls  int32
	sendOK     bool

	seenPartitions []int32
	seenMessageIDs []string
}

func (f *fakeTransport) QueryRoute(ctx context.Context, target RpcTarget, topic string, md map[string]string) (*TopicRouteData, error) {
	atomic.AddInt32(&f.routeCalls, 1)
	f.mu.Lock()
	f.routeMD = md
	f.mu.Unlock()
	if f.routeErr != nil {
		return nil, f.routeErr
	}
	route := f.route
	route.Topic = topic
	return &route, nil
}

func (f *fakeTransport) SendMessage(ctx context.Context, target RpcTarget, req *SendMessageRequest, md map[string]string) (*SendMessageResponse, error) {
	idx := int(atomic.AddInt32(&f.sendCalls, 1)) - 1

	f.mu.Lock()
	f.seenPartitions = append(f.seenPartitions, req.SystemAttribute.PartitionID)
	f.seenMessageIDs = append(f.seenMessageIDs, req.SystemAttribute.MessageID)
	f.mu.Unlock()

	var callErr error
	if idx < len(f.sendScript) {
		callErr = f.sendScript[idx]
	} else if !f.sendOK {
		callErr = newErr(KindBrokerRejected, "send", fmt.Errorf("synthetic failure"))
	}
	if callErr != nil {
		return nil, callErr
	}
	return &SendMessageResponse{
		OK:          true,
		MessageID:   req.SystemAttribute.MessageID,
		PartitionID: req.SystemAttribute.PartitionID,
		QueueOffset: 1,
	}, nil
}

func (f *fakeTransport) EndTransaction(ctx context.Context, target RpcTarget, req *EndTransactionRequest, md map[string]string) (*EndTransactionResponse, error) {
	return &EndTransactionResponse{OK: true}, nil
}

func (f *fakeTransport) Heartbeat(ctx context.Context, target RpcTarget, md map[string]string) error {
	return nil
}

func (f *fakeTransport) calls() int {
	return int(atomic.LoadInt32(&f.sendCalls))
}

func testMD(t *testing.T) map[string]string {
	t.Helper()
	md, err := sign(&Config{}, time.Now())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return md
}

func makePartitions(topic string, n int, sameEndpoint bool) []Partition {
	out := make([]Partition, n)
	for i := 0; i < n; i++ {
		addr := fmt.Sprintf("broker-%d:10911", i)
		if sameEndpoint {
			addr = "broker-0:10911"
		}
		out[i] = Partition{
			ID:       int32(i),
			Topic:    topic,
			Target:   RpcTarget{Endpoints: Endpoints{Addresses: []string{addr}}},
			Writable: true,
		}
	}
	return out
}
