package rmq

import (
	"context"
	"sync"
	"time"
)

// ClientInstance is the shared transport/client per authentication realm:
// one per "arn", reference-counted across producers.
type ClientInstance struct {
	identity  string
	cfg       *Config
	transport Transport
	hooks     hookSet

	isolation   *isolationRegistry
	routes      *topicRouteCache
	publishInfo *publishInfoIndex

	callbacks *callbackExecutor
	prober    *isolationProber

	mu       sync.Mutex
	refcount int
}

func newClientInstance(cfg *Config) *ClientInstance {
	isolation := newIsolationRegistry()
	target := RpcTarget{Endpoints: Endpoints{Addresses: cfg.Endpoints}}

	transport := cfg.Transport
	if transport == nil && len(cfg.Endpoints) > 0 {
		if conn, err := dialSeed(cfg.Endpoints[0]); err == nil {
			transport = NewGRPCTransport(conn)
		} else {
			cfg.Logger.Log(LogLevelWarn, "seed dial failed, transport left nil", "addr", cfg.Endpoints[0], "err", err)
		}
	}

	routes := newTopicRouteCache(transport, target, hookSet(cfg.Hooks))

	ci := &ClientInstance{
		identity:    cfg.identity(),
		cfg:         cfg,
		transport:   transport,
		hooks:       hookSet(cfg.Hooks),
		isolation:   isolation,
		routes:      routes,
		publishInfo: newPublishInfoIndex(routes, time.Now().UnixNano()),
		callbacks:   newCallbackExecutor(cfg.Logger, 0),
		refcount:    1,
	}
	if cfg.IsolationProbeInterval > 0 {
		ci.prober = newIsolationProber(ci, cfg.IsolationProbeInterval)
		ci.prober.start()
	}
	return ci
}

func (ci *ClientInstance) acquire() {
	ci.mu.Lock()
	ci.refcount++
	ci.mu.Unlock()
}

// release cooperatively drops this instance's refcount; there is no
// automatic refcounting, so callers must not release an instance still
// in use by another producer.
func (ci *ClientInstance) release() int {
	ci.mu.Lock()
	ci.refcount--
	n := ci.refcount
	ci.mu.Unlock()
	return n
}

func (ci *ClientInstance) stop() {
	if ci.prober != nil {
		ci.prober.stop()
	}
	ci.callbacks.shutdown()
}

// clientInstanceRegistry is an explicitly-owned registry keyed by
// identity/arn: lookup-and-create is atomic under a single mutex, not
// double-checked, so at most one live ClientInstance exists per identity
// at any moment.
type clientInstanceRegistry struct {
	mu        sync.Mutex
	instances map[string]*ClientInstance
}

// NewClientInstanceRegistry builds an explicitly-owned registry handle,
// in place of an implicit global singleton, while retaining the keyed
// sharing semantics.
func NewClientInstanceRegistry() *clientInstanceRegistry {
	return &clientInstanceRegistry{instances: make(map[string]*ClientInstance)}
}

// GetClientInstance returns the shared ClientInstance for cfg.ARN,
// creating and starting it under the same lock if absent.
func (r *clientInstanceRegistry) GetClientInstance(cfg *Config) *ClientInstance {
	cfg.setDefaults()
	id := cfg.identity()

	r.mu.Lock()
	defer r.mu.Unlock()
	if ci, ok := r.instances[id]; ok {
		ci.acquire()
		return ci
	}
	ci := newClientInstance(cfg)
	r.instances[id] = ci
	return ci
}

// RemoveClientInstance removes the entry for identity. Release is
// cooperative: callers must ensure no other producer still owns it.
func (r *clientInstanceRegistry) RemoveClientInstance(identity string) {
	r.mu.Lock()
	ci, ok := r.instances[identity]
	if ok {
		delete(r.instances, identity)
	}
	r.mu.Unlock()
	if ok {
		ci.stop()
	}
}

var defaultRegistry = NewClientInstanceRegistry()

// DefaultClientInstanceRegistry returns the process-wide registry used
// by Producers built without an explicit registry.
func DefaultClientInstanceRegistry() *clientInstanceRegistry { return defaultRegistry }

// EndTransaction issues the transaction terminator call. The broker-side
// check-back protocol that would make this part of a full transactional
// flow is not implemented here.
func (ci *ClientInstance) EndTransaction(ctx context.Context, target RpcTarget, req *EndTransactionRequest) (*EndTransactionResponse, error) {
	md, err := sign(ci.cfg, time.Now())
	if err != nil {
		return nil, err
	}
	return ci.transport.EndTransaction(ctx, target, req, md)
}
