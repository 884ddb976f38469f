package logger

import "context"

type ctxKey struct{}

// LogContext carries the request fields that *Ctx log calls prepend to their
// arguments. Empty fields are omitted.
type LogContext struct {
	TraceID   string
	SpanID    string
	RequestID string
	Method    string
	Key       string // logical resource key, "/" for the entry document
	Version   string // coordinator version
	ClientIP  string
}

// NewLogContext starts a LogContext for a request from clientIP.
func NewLogContext(clientIP string) *LogContext {
	return &LogContext{ClientIP: clientIP}
}

// WithContext attaches lc to ctx.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, lc)
}

// FromContext returns the LogContext attached to ctx, or nil.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(ctxKey{}).(*LogContext)
	return lc
}

// Clone returns a shallow copy. A nil receiver yields nil.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	c := *lc
	return &c
}

func (lc *LogContext) derive(set func(*LogContext)) *LogContext {
	c := lc.Clone()
	if c != nil {
		set(c)
	}
	return c
}

// WithKey returns a copy scoped to a resource key.
func (lc *LogContext) WithKey(key string) *LogContext {
	return lc.derive(func(c *LogContext) { c.Key = key })
}

// WithVersion returns a copy scoped to a coordinator version.
func (lc *LogContext) WithVersion(version string) *LogContext {
	return lc.derive(func(c *LogContext) { c.Version = version })
}

// WithTrace returns a copy carrying the span identifiers.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	return lc.derive(func(c *LogContext) {
		c.TraceID = traceID
		c.SpanID = spanID
	})
}

func (lc *LogContext) fields() []any {
	if lc == nil {
		return nil
	}
	pairs := [...]struct{ key, val string }{
		{KeyTraceID, lc.TraceID},
		{KeySpanID, lc.SpanID},
		{KeyRequestID, lc.RequestID},
		{KeyMethod, lc.Method},
		{KeyResource, lc.Key},
		{KeyVersion, lc.Version},
		{KeyClientIP, lc.ClientIP},
	}
	out := make([]any, 0, 2*len(pairs))
	for _, p := range pairs {
		if p.val != "" {
			out = append(out, p.key, p.val)
		}
	}
	return out
}
