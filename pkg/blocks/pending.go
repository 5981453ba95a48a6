package blocks

import "github.com/mxl-space/gr-hdfs/pkg/bufpool"

// pendingBuffer accumulates pushed bytes that have not yet been handed to the
// transfer queue. It is an arena with an explicit write cursor: the backing
// array grows to the stream's high-water mark once and is reused, instead of
// reslicing a growable buffer on every flush.
//
// Callers serialize access; the sink guards its pendingBuffer with a mutex
// because the pipeline thread writes it and the shutdown path drains it.
type pendingBuffer struct {
	buf []byte
	n   int
}

// append copies b into the arena, growing it geometrically if needed.
func (p *pendingBuffer) append(b []byte) {
	need := p.n + len(b)
	if need > cap(p.buf) {
		newCap := 2 * cap(p.buf)
		if newCap < need {
			newCap = need
		}
		grown := make([]byte, newCap)
		copy(grown, p.buf[:p.n])
		p.buf = grown
	}
	p.buf = p.buf[:cap(p.buf)]
	copy(p.buf[p.n:], b)
	p.n = need
}

// len returns the number of buffered bytes.
func (p *pendingBuffer) len() int {
	return p.n
}

// take removes the leading n bytes into a chunk from pool and shifts the
// remainder to the front of the arena.
func (p *pendingBuffer) take(n int, pool *bufpool.Pool) []byte {
	chunk := pool.Get(n)
	copy(chunk, p.buf[:n])
	copy(p.buf, p.buf[n:p.n])
	p.n -= n
	return chunk
}

// takeAll removes everything buffered, for the final shutdown flush.
func (p *pendingBuffer) takeAll(pool *bufpool.Pool) []byte {
	return p.take(p.n, pool)
}
