// Package trace correlates the log lines of one visual check.
// A check gets a trace ID; each capture and screenshot inside it is a span.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"
)

type ctxKey struct{}

// Context holds the identifiers of the current span.
type Context struct {
	TraceID      string
	SpanID       string
	ParentSpanID string
}

// New starts a fresh trace.
func New() Context {
	return Context{TraceID: randomHex(16), SpanID: randomHex(8)}
}

// Child returns a span context below c.
func (c Context) Child() Context {
	if c.TraceID == "" {
		return New()
	}
	return Context{TraceID: c.TraceID, SpanID: randomHex(8), ParentSpanID: c.SpanID}
}

// FromContext extracts the span context, if any.
func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(ctxKey{}).(Context)
	return tc, ok
}

// WithContext stores tc in ctx.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// EnsureContext returns the existing trace or starts one.
func EnsureContext(ctx context.Context) (context.Context, Context) {
	if tc, ok := FromContext(ctx); ok {
		return ctx, tc
	}
	tc := New()
	return WithContext(ctx, tc), tc
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (c Context) args() []any {
	args := []any{"trace_id", c.TraceID, "span_id", c.SpanID}
	if c.ParentSpanID != "" {
		args = append(args, "parent_span_id", c.ParentSpanID)
	}
	return args
}

// Span times one step of a check.
type Span struct {
	Name  string
	Ctx   Context
	Start time.Time
	End   time.Time
	attrs []any
}

// StartSpan opens a child span of whatever ctx carries.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	parent, _ := FromContext(ctx)
	s := &Span{Name: name, Ctx: parent.Child(), Start: time.Now()}
	return WithContext(ctx, s.Ctx), s
}

// Set records a key/value attribute logged when the span finishes.
func (s *Span) Set(key string, val any) {
	s.attrs = append(s.attrs, key, val)
}

// Finish closes the span and logs it at debug level.
func (s *Span) Finish() {
	s.End = time.Now()
	args := append(s.Ctx.args(), "span", s.Name, "duration", s.Duration())
	slog.Debug("span finished", append(args, s.attrs...)...)
}

// Duration is zero until the span is finished.
func (s *Span) Duration() time.Duration {
	if s.End.IsZero() {
		return 0
	}
	return s.End.Sub(s.Start)
}

// Logger returns the default logger annotated with the trace in ctx.
func Logger(ctx context.Context) *slog.Logger {
	tc, ok := FromContext(ctx)
	if !ok {
		return slog.Default()
	}
	return slog.Default().With(tc.args()...)
}
