package cachestore

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Response is a stored HTTP response. The body is held in full.
type Response struct {
	Status   int         `json:"status"`
	Header   http.Header `json:"header,omitempty"`
	Body     []byte      `json:"body,omitempty"`
	StoredAt time.Time   `json:"stored_at"`
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Clone returns a deep copy, so callers cannot mutate stored entries.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	c := &Response{
		Status:   r.Status,
		Header:   r.Header.Clone(),
		StoredAt: r.StoredAt,
	}
	if r.Body != nil {
		c.Body = make([]byte, len(r.Body))
		copy(c.Body, r.Body)
	}
	return c
}

// clientHeaders are response headers addressed to one client. They are
// never stored in a shared partition.
var clientHeaders = []string{"Set-Cookie", "Set-Cookie2"}

// Shareable returns a copy of r without per-client headers, fit for a
// partition that serves every client.
func (r *Response) Shareable() *Response {
	c := r.Clone()
	if c == nil {
		return nil
	}
	for _, k := range clientHeaders {
		c.Header.Del(k)
	}
	return c
}

// FromHTTP reads resp fully and closes its body.
func FromHTTP(resp *http.Response) (*Response, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &Response{
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: time.Now().UTC(),
	}, nil
}

// Write copies the response to w. Hop-by-hop framing headers are rewritten
// for the buffered body.
func (r *Response) Write(w http.ResponseWriter) error {
	h := w.Header()
	for k, vs := range r.Header {
		if k == "Content-Length" || k == "Transfer-Encoding" || k == "Connection" {
			continue
		}
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	h.Set("Content-Length", strconv.Itoa(len(r.Body)))
	w.WriteHeader(r.Status)
	_, err := w.Write(r.Body)
	return err
}
