package rmq

import (
	"context"
	"errors"
	"sync"
	"time"
)

// sendFuture is an explicit async state machine in place of stacked
// listenable-future chains: one struct holding the promise, the
// precomputed candidate list, and the request, with each step either
// resolving the future or scheduling the next attempt.
//
// A future settles at most once: the async timeout timer and the RPC
// completion path may race, and whichever loses is discarded.
type sendFuture struct {
	once sync.Once
	done chan struct{}
	res  SendResult
	err  error
}

func newSendFuture() *sendFuture {
	return &sendFuture{done: make(chan struct{})}
}

func (f *sendFuture) resolve(res SendResult) {
	f.once.Do(func() {
		f.res = res
		close(f.done)
	})
}

func (f *sendFuture) fail(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Wait blocks until the future settles or ctx is done, returning a
// Timeout ClientError in the latter case. The in-flight RPC is not
// cancelled; it may still complete and be discarded.
func (f *sendFuture) Wait(ctx context.Context) (SendResult, error) {
	select {
	case <-f.done:
		return f.res, f.err
	case <-ctx.Done():
		return SendResult{}, newErr(KindTimeout, "send", ctx.Err())
	}
}

// attemptState is the transient per-send state: the candidate list never
// mutates once the loop starts, and attempt strictly increases.
type attemptState struct {
	client      *ClientInstance
	cfg         *Config
	candidates  []Partition
	request     *SendMessageRequest
	attempt     int
	maxAttempts int
	future      *sendFuture
}

// send0 is the entry point of the send state machine: resolve
// PublishInfo, pick candidates, build the request once, then drive the
// attempt loop.
func (ci *ClientInstance) send0(ctx context.Context, msg *Message, maxAttempts int) *sendFuture {
	future := newSendFuture()

	// The route query is an RPC like any other and carries the same
	// signed metadata.
	routeMD, err := sign(ci.cfg, time.Now())
	if err != nil {
		future.fail(err)
		return future
	}
	info, err := ci.publishInfo.getPublishInfo(ctx, msg.Topic, routeMD)
	if err != nil {
		future.fail(newErr(KindRouteResolution, "send0", err))
		return future
	}

	candidates, err := takePartitions(info, ci.isolation, maxAttempts)
	if err != nil {
		future.fail(err)
		return future
	}
	if len(candidates) == 0 {
		future.fail(ErrNoWritablePartition)
		return future
	}

	req, err := buildSendMessageRequest(ci.cfg, msg, candidates[0], time.Now())
	if err != nil {
		future.fail(err)
		return future
	}

	st := &attemptState{
		client:      ci,
		cfg:         ci.cfg,
		candidates:  candidates,
		request:     req,
		attempt:     0,
		maxAttempts: maxAttempts,
		future:      future,
	}
	go st.step(ctx)
	return future
}

// step runs one attempt and, on a retriable failure, rebuilds the
// request around the next candidate and re-enters itself. Attempts are
// strictly serial: attempt k+1 starts only after attempt k completes.
func (st *attemptState) step(ctx context.Context) {
	partition := st.candidates[st.attempt%len(st.candidates)]
	req := withPartition(st.request, partition.ID)

	md, err := sign(st.cfg, time.Now())
	if err != nil {
		// Signing error terminates the whole send immediately, no retry.
		st.future.fail(err)
		return
	}

	spanCtx, span := startSendSpan(ctx, st.cfg, req)
	injectTraceContext(spanCtx, req)
	st.client.hooks.sendStart(req.TopicName, req.SystemAttribute.MessageID, partition.ID, st.attempt)

	// ioTimeoutMillis bounds this one RPC; it is distinct from the
	// caller-facing deadline enforced separately by the synchronous and
	// asynchronous send surfaces.
	rpcCtx, cancel := context.WithTimeout(spanCtx, st.cfg.IOTimeout)
	resp, sendErr := st.client.transport.SendMessage(rpcCtx, partition.Target, req, md)
	cancel()

	if sendErr == nil && resp == nil {
		sendErr = newErr(KindBrokerRejected, "send", nil)
	} else if sendErr == nil && !resp.OK {
		sendErr = newErr(KindBrokerRejected, "send", nil)
	} else if sendErr != nil && !errors.As(sendErr, new(*ClientError)) {
		sendErr = newErr(KindTransportFailure, "send", sendErr)
	}
	st.client.hooks.sendEnd(req.TopicName, req.SystemAttribute.MessageID, partition.ID, st.attempt, sendErr)

	if sendErr == nil {
		endSendSpan(span, nil)
		st.future.resolve(SendResult{
			MessageID:     resp.MessageID,
			PartitionID:   resp.PartitionID,
			QueueOffset:   resp.QueueOffset,
			TransactionID: resp.TransactionID,
		})
		return
	}

	endSendSpan(span, sendErr)
	st.client.isolation.isolate(partition.Target.Endpoints)

	if st.attempt+1 >= st.maxAttempts {
		st.future.fail(sendErr)
		return
	}

	st.attempt++
	st.step(ctx)
}
