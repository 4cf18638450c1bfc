package rmq

import (
	"context"
	"sync/atomic"
	"time"
)

// ProducerState is the producer lifecycle:
// CREATED -> READY -> STARTED -> STOPPING -> READY. A later Start moves a
// READY producer back to STARTED.
type ProducerState int32

const (
	StateCreated ProducerState = iota
	StateReady
	StateStarted
	StateStopping
)

func (s ProducerState) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateStarted:
		return "STARTED"
	case StateStopping:
		return "STOPPING"
	default:
		return "CREATED"
	}
}

// Producer is the public send surface: sync, async, and one-way sends,
// gated by lifecycle state.
type Producer struct {
	cfg      *Config
	registry *clientInstanceRegistry
	client   *ClientInstance

	state int32 // ProducerState, atomic
}

// NewProducer creates a producer in state CREATED against registry (use
// DefaultClientInstanceRegistry() to share the process-wide one).
func NewProducer(cfg Config, registry *clientInstanceRegistry) *Producer {
	if registry == nil {
		registry = defaultRegistry
	}
	cfgCopy := cfg
	cfgCopy.setDefaults()
	return &Producer{cfg: &cfgCopy, registry: registry, state: int32(StateCreated)}
}

func (p *Producer) State() ProducerState {
	return ProducerState(atomic.LoadInt32(&p.state))
}

// Start transitions CREATED/READY -> STARTED, acquiring the shared
// ClientInstance for this producer's identity. A repeat call is a no-op,
// logged rather than errored.
func (p *Producer) Start() error {
	for {
		cur := atomic.LoadInt32(&p.state)
		if ProducerState(cur) == StateStarted {
			p.cfg.Logger.Log(LogLevelInfo, "producer already started")
			return nil
		}
		if atomic.CompareAndSwapInt32(&p.state, cur, int32(StateStarted)) {
			p.client = p.registry.GetClientInstance(p.cfg)
			p.cfg.Logger.Log(LogLevelInfo, "producer started", "arn", p.cfg.ARN)
			return nil
		}
	}
}

// Shutdown transitions STARTED -> STOPPING -> READY, letting
// in-flight sends drain and shutting down the callback executor. A
// repeat call is a no-op.
func (p *Producer) Shutdown() error {
	if !atomic.CompareAndSwapInt32(&p.state, int32(StateStarted), int32(StateStopping)) {
		p.cfg.Logger.Log(LogLevelInfo, "producer shutdown is a no-op in this state", "state", p.State())
		return nil
	}
	if p.client != nil {
		if n := p.client.release(); n <= 0 {
			p.registry.RemoveClientInstance(p.client.identity)
		}
	}
	atomic.StoreInt32(&p.state, int32(StateReady))
	return nil
}

func (p *Producer) requireStarted(op string) error {
	if p.State() != StateStarted {
		return newErr(KindProducerNotStarted, op, nil)
	}
	return nil
}

// Send synchronously drives send0 and waits up to timeout, unwrapping
// the async error one level: a typed *ClientError is re-raised as-is;
// anything else would be wrapped (it never is here, since send0 only
// ever fails with *ClientError).
func (p *Producer) Send(ctx context.Context, msg *Message, timeout time.Duration) (SendResult, error) {
	if err := p.requireStarted("send"); err != nil {
		return SendResult{}, err
	}
	if timeout <= 0 {
		timeout = p.cfg.SendMessageTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	future := p.client.send0(ctx, msg, p.cfg.MaxAttemptTimes)
	return future.Wait(waitCtx)
}

// SendAsync invokes send0, arms a scheduler-based timeout, and dispatches
// the success/failure callback on the dedicated callback executor so
// user code never runs on the I/O path.
func (p *Producer) SendAsync(ctx context.Context, msg *Message, timeout time.Duration, callback func(SendResult, error)) error {
	if err := p.requireStarted("send"); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = p.cfg.SendMessageTimeout
	}
	future := p.client.send0(ctx, msg, p.cfg.MaxAttemptTimes)

	timer := time.AfterFunc(timeout, func() {
		future.fail(newErr(KindTimeout, "send", context.DeadlineExceeded))
	})

	go func() {
		res, err := future.Wait(context.Background())
		timer.Stop()
		if callback != nil {
			p.client.callbacks.Submit(func() { callback(res, err) })
		}
	}()
	return nil
}

// SendOneway fires send0 with a single attempt and discards the future.
func (p *Producer) SendOneway(ctx context.Context, msg *Message) error {
	if err := p.requireStarted("send"); err != nil {
		return err
	}
	p.client.send0(ctx, msg, 1)
	return nil
}

// SendTransaction is a definitive stub: the broker-side check-back
// protocol that would drive a local-transaction listener is an open
// question, not guessed at here.
func (p *Producer) SendTransaction(ctx context.Context, msg *Message) (SendResult, error) {
	return SendResult{}, ErrUnsupported
}

// SendSelect is the other stub: a selector-driven synchronous dispatch
// with per-call target isolation. Exposed as Unsupported rather than
// guessed at without a working contract to confirm against.
func (p *Producer) SendSelect(ctx context.Context, msg *Message, selector func([]Partition) (Partition, error)) (SendResult, error) {
	return SendResult{}, ErrUnsupported
}
