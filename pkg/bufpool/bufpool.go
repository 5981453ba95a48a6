// Package bufpool provides a single-class buffer pool for transfer chunks.
//
// Stream blocks move data in chunks of one fixed size (the flush threshold),
// so a single sync.Pool class covers the hot path: every threshold-sized
// chunk a sink flushes is returned to the pool once the background writer has
// appended it, avoiding repeated large allocations at a steady transfer rate.
//
// Requests larger than the pool's class are allocated directly and never
// pooled; undersized buffers are served from the pooled class and sliced
// down, so the final short chunk of a stream still reuses pooled memory.
package bufpool

import "sync"

// Pool hands out byte slices backed by fixed-capacity pooled buffers.
type Pool struct {
	size int
	pool sync.Pool
}

// New creates a pool whose class size is size bytes.
func New(size int) *Pool {
	p := &Pool{size: size}
	p.pool = sync.Pool{
		New: func() any {
			buf := make([]byte, p.size)
			return &buf
		},
	}
	return p
}

// Size returns the pool's class size in bytes.
func (p *Pool) Size() int {
	return p.size
}

// Get returns a slice of length n. For n up to the class size the slice is
// backed by a pooled buffer; larger requests are allocated directly.
func (p *Pool) Get(n int) []byte {
	if n > p.size {
		return make([]byte, n)
	}
	buf := *p.pool.Get().(*[]byte)
	return buf[:n]
}

// Put returns a buffer obtained from Get. Only buffers whose capacity matches
// the class size are pooled; everything else is left for the GC.
func (p *Pool) Put(buf []byte) {
	if buf == nil || cap(buf) != p.size {
		return
	}
	full := buf[:cap(buf)]
	p.pool.Put(&full)
}
