// Package bufpool recycles the byte buffers used to stream file bodies.
//
// Buffers come in fixed size tiers. A request is served from the smallest
// tier that fits; larger requests are allocated and never pooled.
package bufpool

import (
	"io"
	"sync"
)

const (
	SmallSize = 4 << 10

	// CopySize is the buffer used by Copy.
	CopySize = 32 << 10

	LargeSize = 1 << 20
)

type tier struct {
	size int
	pool sync.Pool
}

// Pool is a tiered buffer pool. The zero value is not usable; use New.
type Pool struct {
	tiers []*tier
}

// New creates a pool with the given tier sizes, which must be ascending.
// No sizes means SmallSize, CopySize and LargeSize.
func New(sizes ...int) *Pool {
	if len(sizes) == 0 {
		sizes = []int{SmallSize, CopySize, LargeSize}
	}
	p := &Pool{}
	for _, size := range sizes {
		t := &tier{size: size}
		t.pool.New = func() any {
			buf := make([]byte, t.size)
			return &buf
		}
		p.tiers = append(p.tiers, t)
	}
	return p
}

// Get returns a buffer of length size.
func (p *Pool) Get(size int) []byte {
	for _, t := range p.tiers {
		if size <= t.size {
			buf := *t.pool.Get().(*[]byte)
			return buf[:size]
		}
	}
	return make([]byte, size)
}

// Put returns buf to its tier. Buffers whose capacity matches no tier are
// dropped.
func (p *Pool) Put(buf []byte) {
	for _, t := range p.tiers {
		if cap(buf) == t.size {
			full := buf[:t.size]
			t.pool.Put(&full)
			return
		}
	}
}

var global = New()

// Get returns a buffer from the shared pool.
func Get(size int) []byte { return global.Get(size) }

// Put returns a buffer to the shared pool.
func Put(buf []byte) { global.Put(buf) }

// Copy is io.Copy with a pooled buffer.
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	buf := Get(CopySize)
	defer Put(buf)
	return io.CopyBuffer(dst, src, buf)
}
