// Package proxy is the HTTP front end that stands between clients and the
// origin. GET requests for resources the active coordinator owns are served
// through it; everything else is reverse-proxied to the origin unchanged.
package proxy

import (
	"context"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/offlinecache/internal/logger"
	"github.com/marmos91/offlinecache/internal/telemetry"
	"github.com/marmos91/offlinecache/pkg/bufpool"
	"github.com/marmos91/offlinecache/pkg/coordinator"
	"github.com/marmos91/offlinecache/pkg/fetch"
	"github.com/marmos91/offlinecache/pkg/manifest"
)

// HeaderSource reports where a handled response came from: "hit",
// "network" or "fallback". Passed-through responses do not carry it.
const HeaderSource = "X-Offline-Cache"

// Fetcher routes a request through the active coordinator. Implemented by
// *runtime.Runtime.
type Fetcher interface {
	Fetch(ctx context.Context, req fetch.Request) (*coordinator.Result, bool, error)
}

// Headers never forwarded to the origin on a coordinator fetch. Hop-by-hop
// headers belong to the client connection; the rest would make the origin
// answer with a body that cannot be shared between clients.
var strippedHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
	"Accept-Encoding",
	"If-None-Match",
	"If-Modified-Since",
	"If-Match",
	"If-Unmodified-Since",
	"If-Range",
	"Range",
}

// Handler serves intercepted requests.
type Handler struct {
	origin  manifest.Origin
	fetcher Fetcher
	reverse *httputil.ReverseProxy
}

// NewHandler creates a Handler for origin.
func NewHandler(origin manifest.Origin, fetcher Fetcher) (*Handler, error) {
	target, err := url.Parse(origin.String())
	if err != nil {
		return nil, err
	}
	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.WarnCtx(r.Context(), "passthrough request failed", logger.KeyURL, r.URL.String(), logger.Err(err))
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		},
		BufferPool: bufpool.Proxy(),
	}
	return &Handler{origin: origin, fetcher: fetcher, reverse: rp}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := h.origin.String() + r.URL.RequestURI()
	ip := clientIP(r)

	ctx, span := telemetry.StartProxySpan(r.Context(), r.Method, target, telemetry.ClientIP(ip))
	defer span.End()

	lc := logger.NewLogContext(ip)
	lc.RequestID = middleware.GetReqID(ctx)
	lc.Method = r.Method
	lc = lc.WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
	ctx = logger.WithContext(ctx, lc)

	res, handled, err := h.fetcher.Fetch(ctx, fetch.Request{
		Method: r.Method,
		URL:    target,
		Header: forwardHeaders(r.Header),
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.WarnCtx(ctx, "coordinator fetch failed", logger.KeyURL, target, logger.Err(err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	if !handled {
		logger.DebugCtx(ctx, "passing request through", logger.KeyURL, target)
		h.reverse.ServeHTTP(w, r.WithContext(ctx))
		return
	}

	span.SetAttributes(telemetry.ResourceKey(res.Key), telemetry.FetchSource(string(res.Source)),
		telemetry.HTTPStatus(res.Response.Status))
	w.Header().Set(HeaderSource, string(res.Source))
	if err := res.Response.Write(w); err != nil {
		logger.DebugCtx(ctx, "failed to write response", logger.Resource(res.Key), logger.Err(err))
	}
}

func forwardHeaders(in http.Header) http.Header {
	out := in.Clone()
	for _, k := range strippedHeaders {
		out.Del(k)
	}
	return out
}

// clientIP returns the client address without port. RealIP middleware has
// already rewritten RemoteAddr when a forwarding header was present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
