package rmq

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/zhiyin2021/rocketmq-clients/pkg/rmq"

// startSendSpan opens a tracing span recording topic, message id, group,
// tag, keys, born-host, and message type, when messageTracingEnabled is
// set. It is a no-op (returning the input context and a noop span)
// otherwise, so callers never need a nil check.
func startSendSpan(ctx context.Context, cfg *Config, req *SendMessageRequest) (context.Context, trace.Span) {
	if !cfg.MessageTracingEnabled {
		return ctx, trace.SpanFromContext(context.Background())
	}
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, "rmq.send",
		trace.WithAttributes(
			attribute.String("messaging.destination", req.TopicName),
			attribute.String("messaging.message_id", req.SystemAttribute.MessageID),
			attribute.String("messaging.rocketmq.producer_group", req.SystemAttribute.ProducerGroup),
			attribute.String("messaging.rocketmq.tag", req.SystemAttribute.Tag),
			attribute.StringSlice("messaging.rocketmq.keys", req.SystemAttribute.Keys),
			attribute.String("net.host.ip", req.SystemAttribute.BornHost),
			attribute.String("messaging.rocketmq.message_type", req.SystemAttribute.MessageType.String()),
		),
	)
}

// injectTraceContext writes the span's context onto req as a W3C
// traceparent string via the standard TextMapPropagator, so it rides
// along as the outgoing traceContext system attribute.
func injectTraceContext(ctx context.Context, req *SendMessageRequest) {
	carrier := propagation.MapCarrier{}
	propagation.TraceContext{}.Inject(ctx, carrier)
	if tp, ok := carrier["traceparent"]; ok {
		req.SystemAttribute.TraceContext = tp
	}
}

func endSendSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	} else {
		span.SetStatus(otelcodes.Ok, "")
	}
	span.End()
}
