package bufpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetSizeClasses(t *testing.T) {
	p := NewPool()

	tests := []struct {
		name    string
		size    int
		wantCap int
	}{
		{"zero", 0, SmallSize},
		{"small", 100, SmallSize},
		{"small boundary", SmallSize, SmallSize},
		{"copy", SmallSize + 1, CopySize},
		{"large", CopySize + 1, LargeSize},
		{"large boundary", LargeSize, LargeSize},
		{"oversized", LargeSize + 1, LargeSize + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := p.Get(tt.size)
			assert.Len(t, buf, tt.size)
			assert.Equal(t, tt.wantCap, cap(buf))
			p.Put(buf)
		})
	}
}

func TestPutReuse(t *testing.T) {
	p := NewPool()

	buf := p.Get(10)
	buf[0] = 0xAB
	p.Put(buf)

	// sync.Pool may drop entries at any time, so only the shape is asserted.
	again := p.Get(20)
	assert.Len(t, again, 20)
	assert.Equal(t, SmallSize, cap(again))
}

func TestPutIgnoresForeignBuffers(t *testing.T) {
	p := NewPool()
	assert.NotPanics(t, func() {
		p.Put(nil)
		p.Put(make([]byte, 123))
		p.Put(make([]byte, LargeSize*2))
	})
}

func TestProxyPool(t *testing.T) {
	bp := NewPool().Proxy()

	buf := bp.Get()
	assert.Len(t, buf, CopySize)
	bp.Put(buf)

	assert.Len(t, Proxy().Get(), CopySize)
}

func TestConcurrentAccess(t *testing.T) {
	p := NewPool()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				buf := p.Get((n*j)%LargeSize + 1)
				p.Put(buf)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
