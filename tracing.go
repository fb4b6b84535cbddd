package btr

import (
	gocontext "context"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"
)

var noopTracer opentracing.Tracer = opentracing.NoopTracer{}

// tracer resolves the Tracer a node should use for its own spans: the one
// attached to any span already present on the supplied go context, or the
// package-wide noop tracer otherwise. Generalizes littlealbert's
// childSpanFromContext (tracing.go) from a single root span per Run to a
// span per node per tick.
func tracer(gctx gocontext.Context) opentracing.Tracer {
	if span := opentracing.SpanFromContext(gctx); span != nil {
		return span.Tracer()
	}
	return noopTracer
}

// startTickSpan opens a span for one node's update call, named after its
// kind and id, following the "btr::" namespacing convention littlealbert
// uses for its own spans ("littlealbert::...").
func startTickSpan(gctx gocontext.Context, nodeID string, kind NodeKind) (opentracing.Span, gocontext.Context) {
	return opentracing.StartSpanFromContextWithTracer(
		gctx,
		tracer(gctx),
		"btr::"+kind.String()+"::tick",
		opentracing.Tag{Key: "node_id", Value: nodeID},
	)
}

// finishTickSpan records the outcome of one tick on span, mirroring
// littlealbert's root.LogFields call in run.go.
func finishTickSpan(span opentracing.Span, status Status, err error) {
	fields := []log.Field{
		log.String("node_status", status.String()),
	}
	if err != nil {
		fields = append(fields, log.Error(err))
	}
	span.LogFields(fields...)
	span.Finish()
}
