package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys. These follow OpenTelemetry semantic conventions where
// applicable; offline cache specific keys use the "offlinecache." prefix.
const (
	// ========================================================================
	// Client attributes
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	// ========================================================================
	// HTTP attributes
	// ========================================================================
	AttrHTTPMethod = "http.request.method"
	AttrHTTPStatus = "http.response.status_code"
	AttrURL        = "url.full"

	// ========================================================================
	// Coordinator attributes
	// ========================================================================
	AttrVersion     = "offlinecache.version"
	AttrPhase       = "offlinecache.phase"
	AttrResourceKey = "offlinecache.resource"
	AttrFetchSource = "offlinecache.source" // hit, network, fallback
	AttrResources   = "offlinecache.resources"
	AttrMessage     = "offlinecache.message"

	// ========================================================================
	// Storage attributes
	// ========================================================================
	AttrPartition = "cache.partition"
	AttrStoreType = "store.type"
)

// Span names for internal operations.
// Format: <component>.<operation>
const (
	SpanCoordinatorInstall  = "coordinator.install"
	SpanCoordinatorActivate = "coordinator.activate"
	SpanCoordinatorFetch    = "coordinator.fetch"
	SpanCoordinatorDownload = "coordinator.download_offline"
	SpanProxyRequest        = "proxy.request"
)

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for client address (ip:port)
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// HTTPMethod returns an attribute for the request method
func HTTPMethod(method string) attribute.KeyValue {
	return attribute.String(AttrHTTPMethod, method)
}

// HTTPStatus returns an attribute for the response status code
func HTTPStatus(code int) attribute.KeyValue {
	return attribute.Int(AttrHTTPStatus, code)
}

// URL returns an attribute for the full request URL
func URL(u string) attribute.KeyValue {
	return attribute.String(AttrURL, u)
}

// CoordinatorVersion returns an attribute for a coordinator version id
func CoordinatorVersion(id string) attribute.KeyValue {
	return attribute.String(AttrVersion, id)
}

// ResourceKey returns an attribute for a logical resource key
func ResourceKey(key string) attribute.KeyValue {
	return attribute.String(AttrResourceKey, key)
}

// FetchSource returns an attribute for where a response came from
func FetchSource(source string) attribute.KeyValue {
	return attribute.String(AttrFetchSource, source)
}

// Resources returns an attribute for a resource count
func Resources(n int) attribute.KeyValue {
	return attribute.Int(AttrResources, n)
}

// Message returns an attribute for a control message
func Message(msg string) attribute.KeyValue {
	return attribute.String(AttrMessage, msg)
}

// Partition returns an attribute for a cache partition name
func Partition(name string) attribute.KeyValue {
	return attribute.String(AttrPartition, name)
}

// StoreType returns an attribute for the storage backend type
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// StartCoordinatorSpan starts a span for a coordinator phase ("install",
// "activate", "fetch", ...) tagged with the coordinator version.
func StartCoordinatorSpan(ctx context.Context, phase, version string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		attribute.String(AttrPhase, phase),
		CoordinatorVersion(version),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "coordinator."+phase, trace.WithAttributes(allAttrs...))
}

// StartProxySpan starts a server span for a proxied request.
func StartProxySpan(ctx context.Context, method, url string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		HTTPMethod(method),
		URL(url),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanProxyRequest, trace.WithSpanKind(trace.SpanKindServer), trace.WithAttributes(allAttrs...))
}

// EndSpan records err (when non-nil) and ends span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
