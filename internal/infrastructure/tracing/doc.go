/*
Package tracing provides lightweight request tracing.

Spans carry ULID-based trace and span ids through context.Context. Finished spans are
handed to a buffered collector goroutine that writes them to the structured log.

# Usage

	tracer := tracing.New("docbridge", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "documents.readFile")
	defer span.End()

# Propagation

X-Trace-ID identifies the whole request flow and X-Span-ID the caller's span. The
response carries the trace id and the id of the span opened for the request.
*/
package tracing
