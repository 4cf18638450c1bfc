package rmq

import (
	"context"
	"time"
)

// isolationProber periodically re-probes isolated endpoints with a cheap
// Heartbeat RPC and unisolates on success, so isolation never becomes
// permanent. One goroutine runs per ClientInstance.
type isolationProber struct {
	client   *ClientInstance
	interval time.Duration
	quit     chan struct{}
}

func newIsolationProber(ci *ClientInstance, interval time.Duration) *isolationProber {
	return &isolationProber{client: ci, interval: interval, quit: make(chan struct{})}
}

func (p *isolationProber) start() {
	go p.loop()
}

func (p *isolationProber) stop() {
	select {
	case <-p.quit:
	default:
		close(p.quit)
	}
}

func (p *isolationProber) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.probeOnce()
		case <-p.quit:
			return
		}
	}
}

func (p *isolationProber) probeOnce() {
	if p.client.transport == nil || p.client.isolation.isEmpty() {
		return
	}
	for _, ep := range p.client.isolation.snapshot() {
		ep := ep
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), p.client.cfg.IOTimeout)
			defer cancel()
			target := RpcTarget{Endpoints: ep}
			md, err := sign(p.client.cfg, time.Now())
			if err != nil {
				return
			}
			if err := p.client.transport.Heartbeat(ctx, target, md); err == nil {
				p.client.isolation.unisolate(ep)
			}
		}()
	}
}
