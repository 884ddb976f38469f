package cachestore

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestKey(t *testing.T) {
	k := NewRequestKey(" get ", "https://app.example/a b")
	assert.Equal(t, "GET", k.Method)
	assert.Equal(t, "GET https://app.example/a b", k.String())

	parsed, err := ParseRequestKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, parsed)

	assert.Equal(t, "GET", NewRequestKey("", "u").Method)

	_, err = ParseRequestKey("GET")
	assert.Error(t, err)
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("offline-temp-cache"))
	assert.ErrorIs(t, ValidateName(""), ErrInvalidName)
	assert.ErrorIs(t, ValidateName("a\x00b"), ErrInvalidName)
}

func TestResponse(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		assert.True(t, (&Response{Status: 200}).OK())
		assert.True(t, (&Response{Status: 204}).OK())
		assert.False(t, (&Response{Status: 304}).OK())
		assert.False(t, (&Response{Status: 404}).OK())
		var nilResp *Response
		assert.False(t, nilResp.OK())
	})

	t.Run("CloneIsDeep", func(t *testing.T) {
		r := &Response{Status: 200, Header: http.Header{"X": {"1"}}, Body: []byte("abc")}
		c := r.Clone()
		c.Body[0] = 'z'
		c.Header.Set("X", "2")
		assert.Equal(t, "abc", string(r.Body))
		assert.Equal(t, "1", r.Header.Get("X"))
	})

	t.Run("ShareableDropsCookies", func(t *testing.T) {
		r := &Response{Status: 200, Header: http.Header{
			"Content-Type": {"text/html"},
			"Set-Cookie":   {"session=abc"},
			"Set-Cookie2":  {"legacy=1"},
		}}
		s := r.Shareable()
		assert.Empty(t, s.Header.Values("Set-Cookie"))
		assert.Empty(t, s.Header.Values("Set-Cookie2"))
		assert.Equal(t, "text/html", s.Header.Get("Content-Type"))
		assert.Equal(t, "session=abc", r.Header.Get("Set-Cookie"), "original untouched")

		var nilResp *Response
		assert.Nil(t, nilResp.Shareable())
	})

	t.Run("FromHTTP", func(t *testing.T) {
		resp := &http.Response{
			StatusCode: 201,
			Header:     http.Header{"Content-Type": {"text/plain"}},
			Body:       io.NopCloser(strings.NewReader("hello")),
		}
		r, err := FromHTTP(resp)
		require.NoError(t, err)
		assert.Equal(t, 201, r.Status)
		assert.Equal(t, "hello", string(r.Body))
		assert.False(t, r.StoredAt.IsZero())
	})

	t.Run("Write", func(t *testing.T) {
		r := &Response{
			Status: 200,
			Header: http.Header{"Content-Type": {"application/javascript"}, "Content-Length": {"999"}},
			Body:   []byte("var a;"),
		}
		rec := httptest.NewRecorder()
		require.NoError(t, r.Write(rec))
		assert.Equal(t, 200, rec.Code)
		assert.Equal(t, "application/javascript", rec.Header().Get("Content-Type"))
		assert.Equal(t, "6", rec.Header().Get("Content-Length"))
		assert.Equal(t, "var a;", rec.Body.String())
	})
}
