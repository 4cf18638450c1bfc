package rmq

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// dialSeed opens the seed connection a ClientInstance dials on creation.
// TLS credential wiring is a config-layer concern out of scope here;
// insecure transport credentials are the placeholder until a real
// credential provider is plugged in.
func dialSeed(addr string) (*grpc.ClientConn, error) {
	return grpc.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// gRPC method names preserved for wire compatibility.
const (
	methodSendMessage    = "/apache.rocketmq.v2.MessagingService/SendMessage"
	methodQueryRoute     = "/apache.rocketmq.v2.MessagingService/QueryRoute"
	methodEndTransaction = "/apache.rocketmq.v2.MessagingService/EndTransaction"
	methodHeartbeat      = "/apache.rocketmq.v2.MessagingService/Heartbeat"
)

// Transport is the external collaborator boundary: a unary call with a
// deadline, returning a future-like response or error. Nothing in this
// package depends on a concrete wire codec; tests inject a fake.
type Transport interface {
	SendMessage(ctx context.Context, target RpcTarget, req *SendMessageRequest, md map[string]string) (*SendMessageResponse, error)
	QueryRoute(ctx context.Context, target RpcTarget, topic string, md map[string]string) (*TopicRouteData, error)
	EndTransaction(ctx context.Context, target RpcTarget, req *EndTransactionRequest, md map[string]string) (*EndTransactionResponse, error)
	Heartbeat(ctx context.Context, target RpcTarget, md map[string]string) error
}

// grpcTransport adapts Transport onto a grpc.ClientConnInterface: real
// gRPC plumbing (dial, per-call metadata injection, deadline, status
// code classification), deliberately not a generated protobuf client:
// the codec itself is out of scope here.
type grpcTransport struct {
	conn grpc.ClientConnInterface
}

// NewGRPCTransport wraps any grpc.ClientConnInterface (a *grpc.ClientConn
// or a test double) as a Transport.
func NewGRPCTransport(conn grpc.ClientConnInterface) Transport {
	return &grpcTransport{conn: conn}
}

func outgoingContext(ctx context.Context, md map[string]string) context.Context {
	if len(md) == 0 {
		return ctx
	}
	pairs := make([]string, 0, len(md)*2)
	for k, v := range md {
		pairs = append(pairs, k, v)
	}
	return metadata.NewOutgoingContext(ctx, metadata.Pairs(pairs...))
}

func (t *grpcTransport) SendMessage(ctx context.Context, target RpcTarget, req *SendMessageRequest, md map[string]string) (*SendMessageResponse, error) {
	resp := new(SendMessageResponse)
	ctx = outgoingContext(ctx, md)
	if err := t.conn.Invoke(ctx, methodSendMessage, req, resp); err != nil {
		return nil, classifyTransportError(err)
	}
	return resp, nil
}

func (t *grpcTransport) QueryRoute(ctx context.Context, target RpcTarget, topic string, md map[string]string) (*TopicRouteData, error) {
	resp := new(TopicRouteData)
	ctx = outgoingContext(ctx, md)
	if err := t.conn.Invoke(ctx, methodQueryRoute, topic, resp); err != nil {
		return nil, classifyTransportError(err)
	}
	return resp, nil
}

func (t *grpcTransport) EndTransaction(ctx context.Context, target RpcTarget, req *EndTransactionRequest, md map[string]string) (*EndTransactionResponse, error) {
	resp := new(EndTransactionResponse)
	ctx = outgoingContext(ctx, md)
	if err := t.conn.Invoke(ctx, methodEndTransaction, req, resp); err != nil {
		return nil, classifyTransportError(err)
	}
	return resp, nil
}

func (t *grpcTransport) Heartbeat(ctx context.Context, target RpcTarget, md map[string]string) error {
	ctx = outgoingContext(ctx, md)
	return classifyTransportError(t.conn.Invoke(ctx, methodHeartbeat, struct{}{}, new(struct{})))
}

// classifyTransportError sorts a gRPC error into the retry-relevant
// taxonomy: deadline/unavailable/aborted/canceled are transport failures
// (retriable up to maxAttempts); any other non-OK status is treated as
// a broker rejection (same retry policy).
func classifyTransportError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return newErr(KindTransportFailure, "transport", err)
	}
	switch st.Code() {
	case codes.OK:
		return nil
	case codes.DeadlineExceeded, codes.Unavailable, codes.Aborted, codes.Canceled:
		return newErr(KindTransportFailure, "transport", err)
	default:
		return newErr(KindBrokerRejected, "transport", err)
	}
}
