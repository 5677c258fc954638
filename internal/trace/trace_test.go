package trace

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tc := New()
	if len(tc.TraceID) != 32 {
		t.Errorf("trace ID should be 32 chars, got %d", len(tc.TraceID))
	}
	if len(tc.SpanID) != 16 {
		t.Errorf("span ID should be 16 chars, got %d", len(tc.SpanID))
	}
	if tc.ParentSpanID != "" {
		t.Error("new trace should not have a parent span")
	}
}

func TestIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := New().TraceID
		if seen[id] {
			t.Fatal("generated duplicate trace ID")
		}
		seen[id] = true
	}
}

func TestChild(t *testing.T) {
	parent := New()
	child := parent.Child()

	if child.TraceID != parent.TraceID {
		t.Error("child should inherit trace ID")
	}
	if child.SpanID == parent.SpanID {
		t.Error("child should have a new span ID")
	}
	if child.ParentSpanID != parent.SpanID {
		t.Error("child's parent should be the parent's span ID")
	}

	if orphan := (Context{}).Child(); len(orphan.TraceID) != 32 || orphan.ParentSpanID != "" {
		t.Errorf("child of empty context should start a trace, got %+v", orphan)
	}
}

func TestContextRoundTrip(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("empty context should carry no trace")
	}

	ctx, tc := EnsureContext(context.Background())
	got, ok := FromContext(ctx)
	if !ok || got != tc {
		t.Fatalf("FromContext = %+v, %v", got, ok)
	}

	_, again := EnsureContext(ctx)
	if again.TraceID != tc.TraceID {
		t.Error("EnsureContext should keep the existing trace")
	}
}

func TestSpans(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "capture")
	_, child := StartSpan(ctx, "screenshot")

	if child.Ctx.TraceID != parent.Ctx.TraceID {
		t.Error("child should inherit trace ID")
	}
	if child.Ctx.ParentSpanID != parent.Ctx.SpanID {
		t.Error("child's parent should be the parent span")
	}

	if child.Duration() != 0 {
		t.Error("unfinished span should have zero duration")
	}
	time.Sleep(time.Millisecond)
	child.Finish()
	if child.Duration() <= 0 {
		t.Error("finished span should have positive duration")
	}
}

func TestLoggerCarriesTrace(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx, span := StartSpan(context.Background(), "capture")
	Logger(ctx).Info("hello")
	span.Set("attempts", 3)
	span.Finish()

	out := buf.String()
	if !strings.Contains(out, "trace_id="+span.Ctx.TraceID) {
		t.Errorf("log should carry trace ID:\n%s", out)
	}
	if !strings.Contains(out, "span=capture") || !strings.Contains(out, "attempts=3") {
		t.Errorf("span log missing fields:\n%s", out)
	}

	if Logger(context.Background()) != slog.Default() {
		t.Error("Logger without trace should be the default logger")
	}
}
