package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(t *testing.T) (*Tracer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return New("test", zap.New(core)), logs
}

func TestStartSpanJoinsTrace(t *testing.T) {
	tracer := New("test", nil)
	defer tracer.Close()

	root, ctx := tracer.StartSpan(context.Background(), "root")
	assert.True(t, strings.HasPrefix(string(root.TraceID), "trc_"))
	assert.True(t, strings.HasPrefix(string(root.SpanID), "spn_"))
	assert.Empty(t, root.ParentID)

	child, childCtx := tracer.StartSpan(ctx, "child")
	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Equal(t, root.SpanID, child.ParentID)
	assert.Equal(t, root.TraceID, GetTraceID(childCtx))
	assert.Equal(t, child.SpanID, GetSpanID(childCtx))
	assert.Equal(t, root.SpanID, GetSpanID(ctx))
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))
	assert.Equal(t, ctx, WithTraceID(ctx, ""))

	ctx = WithRemoteParent(ctx, "trc_remote", "spn_remote")
	assert.Equal(t, TraceID("trc_remote"), GetTraceID(ctx))
	assert.Equal(t, SpanID("spn_remote"), GetSpanID(ctx))

	tracer := New("test", nil)
	defer tracer.Close()
	span, _ := tracer.StartSpan(ctx, "op")
	assert.Equal(t, TraceID("trc_remote"), span.TraceID)
	assert.Equal(t, SpanID("spn_remote"), span.ParentID)
}

func TestEndRecordsDuration(t *testing.T) {
	tracer, logs := observed(t)
	clock := time.Unix(100, 0)
	tracer.now = func() time.Time { return clock }

	span, _ := tracer.StartSpan(context.Background(), "documents.readFile")
	span.SetTag("action", "readFile")
	clock = clock.Add(250 * time.Millisecond)
	span.End()
	clock = clock.Add(time.Second)
	span.End()
	tracer.Close()

	assert.Equal(t, 250*time.Millisecond, span.Duration)
	entries := logs.FilterMessage("span completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "documents.readFile", fields["operation"])
	assert.Equal(t, "readFile", fields["action"])
	assert.Equal(t, "test", fields["service"])
}

func TestCloseDrainsAndDrops(t *testing.T) {
	tracer, logs := observed(t)

	ok, _ := tracer.StartSpan(context.Background(), "ok")
	ok.End()
	broken, _ := tracer.StartSpan(context.Background(), "broken")
	broken.SetError(errors.New("boom"))
	broken.End()

	tracer.Close()
	tracer.Close()
	late, _ := tracer.StartSpan(context.Background(), "late")
	late.End()

	assert.Equal(t, 1, logs.FilterMessage("span completed").Len())
	errored := logs.FilterMessage("span completed with error").All()
	require.Len(t, errored, 1)
	assert.Equal(t, "broken", errored[0].ContextMap()["operation"])
	assert.Equal(t, "boom", errored[0].ContextMap()["error"])
	assert.Zero(t, logs.FilterField(zap.String("operation", "late")).Len())
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer, logs := observed(t)

	var seen TraceID
	var parent SpanID
	r := gin.New()
	r.Use(HTTPMiddleware(tracer))
	r.GET("/health", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		parent = GetSpanID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(TraceHeader, "trc_incoming")
	req.Header.Set(SpanHeader, "spn_caller")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	tracer.Close()

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, TraceID("trc_incoming"), seen)
	assert.Equal(t, "trc_incoming", w.Header().Get(TraceHeader))
	assert.Equal(t, string(parent), w.Header().Get(SpanHeader))

	entries := logs.FilterMessage("span completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET /health", fields["operation"])
	assert.Equal(t, "spn_caller", fields["parent_id"])
	assert.EqualValues(t, http.StatusNoContent, fields["status"])
}
