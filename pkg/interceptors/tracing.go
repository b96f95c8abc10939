package interceptors

import (
	"context"
	"errors"
	"strings"

	"connectrpc.com/connect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingInterceptor instruments RPCs with OpenTelemetry spans.
type TracingInterceptor struct {
	tracer trace.Tracer
}

// NewTracingInterceptor creates a tracing interceptor.
func NewTracingInterceptor(tracer trace.Tracer) *TracingInterceptor {
	if tracer == nil {
		tracer = otel.Tracer("hostledger/interceptors")
	}
	return &TracingInterceptor{tracer: tracer}
}

func (i *TracingInterceptor) start(ctx context.Context, spec connect.Spec, peer connect.Peer) (context.Context, trace.Span) {
	ctx, span := i.tracer.Start(ctx, spec.Procedure, trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		attribute.String("rpc.system", "connect"),
		attribute.String("rpc.service", serviceFromProcedure(spec.Procedure)),
		attribute.String("rpc.method", methodFromProcedure(spec.Procedure)),
		attribute.String("net.peer.addr", peer.Addr),
	)
	if id := RequestIDFromContext(ctx); id != "" {
		span.SetAttributes(attribute.String("request.id", id))
	}
	return ctx, span
}

func finish(span trace.Span, err error) {
	if err != nil {
		code := connect.CodeUnknown
		var connectErr *connect.Error
		if errors.As(err, &connectErr) {
			code = connectErr.Code()
		}
		span.SetAttributes(attribute.String("rpc.connect.code", code.String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "ok")
	}
	span.End()
}

// WrapUnary implements connect.Interceptor.
func (i *TracingInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			return next(ctx, req)
		}
		ctx, span := i.start(ctx, req.Spec(), req.Peer())
		resp, err := next(ctx, req)
		finish(span, err)
		return resp, err
	}
}

// WrapStreamingClient implements connect.Interceptor.
func (i *TracingInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

// WrapStreamingHandler implements connect.Interceptor.
func (i *TracingInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		ctx, span := i.start(ctx, conn.Spec(), conn.Peer())
		err := next(ctx, conn)
		finish(span, err)
		return err
	}
}

// "/hostledger.v1.ReservationService/ImportFiles" -> "hostledger.v1.ReservationService"
func serviceFromProcedure(procedure string) string {
	procedure = strings.TrimPrefix(procedure, "/")
	if i := strings.LastIndex(procedure, "/"); i > 0 {
		return procedure[:i]
	}
	return procedure
}

func methodFromProcedure(procedure string) string {
	if i := strings.LastIndex(procedure, "/"); i >= 0 {
		return procedure[i+1:]
	}
	return procedure
}
