// Package trace records the phases of a compilation as nested spans.
//
// The driver opens a span per pipeline pass (parse, check, emit, cache)
// and each backend opens a module-scope span per lowered module. Tracing
// is enabled from the command line:
//
//	odinc emit-ir --trace=- --trace-level=detail ./src
//
// A Tracer travels through the pipeline in a context.Context:
//
//	ctx = trace.WithTracer(ctx, t)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "check", trace.CurrentSpan(ctx).SpanID)
//	defer span.End("")
//
// StreamTracer writes events as they happen, RingTracer keeps the most
// recent ones for a dump after a crash, and MultiTracer combines both.
package trace
