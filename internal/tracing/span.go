package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/docloader/internal/metrics"
	"github.com/torosent/docloader/internal/store"
)

// StartOperationSpan starts a client span named "<operation> <target>".
func StartOperationSpan(ctx context.Context, tracer trace.Tracer, operation, target, key string) (context.Context, trace.Span) {
	spanName := operation
	if target != "" {
		spanName = operation + " " + target
	}
	ctx, span := tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("db.operation", operation),
	)
	if target != "" {
		span.SetAttributes(attribute.String("docloader.target", target))
	}
	if key != "" {
		span.SetAttributes(attribute.String("docloader.key", key))
	}
	return ctx, span
}

// EndSpan finishes a span, recording error status and outcome label.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	span.SetAttributes(attribute.String("docloader.outcome", metrics.Classify(err)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type tracedTarget struct {
	store.Target
	tracer trace.Tracer
}

// WrapTarget records one span per operation issued against target.
func WrapTarget(target store.Target, tracer trace.Tracer) store.Target {
	if tracer == nil {
		return target
	}
	return &tracedTarget{Target: target, tracer: tracer}
}

func (t *tracedTarget) Insert(ctx context.Context, key string, doc interface{}) error {
	ctx, span := StartOperationSpan(ctx, t.tracer, "insert", t.Name(), key)
	err := t.Target.Insert(ctx, key, doc)
	EndSpan(span, err)
	return err
}

func (t *tracedTarget) Upsert(ctx context.Context, key string, doc interface{}) error {
	ctx, span := StartOperationSpan(ctx, t.tracer, "upsert", t.Name(), key)
	err := t.Target.Upsert(ctx, key, doc)
	EndSpan(span, err)
	return err
}

func (t *tracedTarget) Get(ctx context.Context, key string) error {
	ctx, span := StartOperationSpan(ctx, t.tracer, "get", t.Name(), key)
	err := t.Target.Get(ctx, key)
	EndSpan(span, err)
	return err
}

func (t *tracedTarget) Remove(ctx context.Context, key string) error {
	ctx, span := StartOperationSpan(ctx, t.tracer, "remove", t.Name(), key)
	err := t.Target.Remove(ctx, key)
	EndSpan(span, err)
	return err
}

type tracedQuerier struct {
	querier store.Querier
	tracer  trace.Tracer
}

// WrapQuerier records one span per query statement.
func WrapQuerier(querier store.Querier, tracer trace.Tracer) store.Querier {
	if tracer == nil || querier == nil {
		return querier
	}
	return &tracedQuerier{querier: querier, tracer: tracer}
}

func (q *tracedQuerier) Query(ctx context.Context, statement string) ([][]byte, error) {
	ctx, span := StartOperationSpan(ctx, q.tracer, "query", "", "")
	span.SetAttributes(attribute.String("db.statement", statement))
	rows, err := q.querier.Query(ctx, statement)
	EndSpan(span, err, attribute.Int("docloader.rows", len(rows)))
	return rows, err
}
