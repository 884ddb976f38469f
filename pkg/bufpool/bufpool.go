// Package bufpool pools the byte buffers used to stream response bodies.
//
// Buffers come in three size classes. Requests above the largest class are
// allocated directly and never pooled, so an occasional huge asset does not
// stay resident.
//
//	buf := bufpool.Get(size)
//	defer bufpool.Put(buf)
package bufpool

import (
	"net/http/httputil"
	"sync"
)

const (
	// SmallSize fits headers and small JSON bodies.
	SmallSize = 4 << 10

	// CopySize matches the chunk size io.Copy and httputil.ReverseProxy use.
	CopySize = 32 << 10

	// LargeSize fits bundled scripts and images.
	LargeSize = 1 << 20
)

// Pool is a tiered set of sync.Pools keyed by buffer capacity.
type Pool struct {
	classes [3]class
}

type class struct {
	size int
	pool sync.Pool
}

// NewPool creates a pool with the SmallSize, CopySize and LargeSize classes.
func NewPool() *Pool {
	p := &Pool{}
	for i, size := range []int{SmallSize, CopySize, LargeSize} {
		p.classes[i].size = size
		p.classes[i].pool.New = func() any {
			buf := make([]byte, size)
			return &buf
		}
	}
	return p
}

// Get returns a slice of length size. Its capacity is the size class it was
// drawn from.
func (p *Pool) Get(size int) []byte {
	for i := range p.classes {
		c := &p.classes[i]
		if size <= c.size {
			buf := *(c.pool.Get().(*[]byte))
			return buf[:size]
		}
	}
	return make([]byte, size)
}

// Put returns buf to its size class. Buffers not obtained from Get are
// dropped.
func (p *Pool) Put(buf []byte) {
	for i := range p.classes {
		c := &p.classes[i]
		if cap(buf) == c.size {
			full := buf[:c.size]
			c.pool.Put(&full)
			return
		}
	}
}

// Proxy adapts the pool to httputil.BufferPool, handing out CopySize
// buffers.
func (p *Pool) Proxy() httputil.BufferPool {
	return proxyPool{p}
}

type proxyPool struct{ p *Pool }

func (pp proxyPool) Get() []byte     { return pp.p.Get(CopySize) }
func (pp proxyPool) Put(buf []byte) { pp.p.Put(buf) }

var global = NewPool()

// Get draws from the package-level pool.
func Get(size int) []byte { return global.Get(size) }

// Put returns buf to the package-level pool.
func Put(buf []byte) { global.Put(buf) }

// Proxy returns the package-level pool as an httputil.BufferPool.
func Proxy() httputil.BufferPool { return global.Proxy() }
