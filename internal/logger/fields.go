package logger

import (
	"log/slog"
)

// Standard field keys for structured logging. Use these keys consistently so
// lifecycle and request logs can be aggregated and queried.
const (
	// Distributed tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Requests
	KeyRequestID = "request_id"
	KeyMethod    = "method"
	KeyURL       = "url"
	KeyResource  = "resource" // Logical resource key
	KeyStatus    = "status"
	KeyClientIP  = "client_ip"
	KeySource    = "source" // hit, network, fallback, passthrough

	// Coordinator lifecycle
	KeyVersion   = "version"   // Coordinator version id
	KeyDigest    = "digest"    // Manifest digest
	KeyPhase     = "phase"     // install, activate, fetch, message
	KeyState     = "state"     // installing, installed, activating, activated, redundant
	KeyMessage   = "message"   // Control message name
	KeyPartition = "partition" // Cache partition name

	// Reconciliation
	KeyRetained  = "retained"
	KeyEvicted   = "evicted"
	KeyPromoted  = "promoted"
	KeyMissing   = "missing"
	KeyResources = "resources"

	// Operation metadata
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyBytes      = "bytes"
	KeyStoreType  = "store_type"
	KeyPath       = "path"
)

// Err returns a slog.Attr for an error; nil errors yield an empty attr.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Resource returns a slog.Attr for a logical resource key
func Resource(key string) slog.Attr {
	return slog.String(KeyResource, key)
}

// Partition returns a slog.Attr for a cache partition name
func Partition(name string) slog.Attr {
	return slog.String(KeyPartition, name)
}

// Version returns a slog.Attr for a coordinator version id
func Version(id string) slog.Attr {
	return slog.String(KeyVersion, id)
}

// Source returns a slog.Attr describing where a response came from
func Source(src string) slog.Attr {
	return slog.String(KeySource, src)
}

// Status returns a slog.Attr for an HTTP status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// DurationMs returns a slog.Attr for operation duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}
