package blocks

import (
	"sync"
	"time"
)

// chunkQueue is an unbounded FIFO of byte chunks with exactly one producer
// and one consumer role. FIFO order is the only ordering guarantee the blocks
// rely on: chunks are appended to (or copied out of) the remote file strictly
// in dequeue order.
//
// pop waits on a notification channel instead of polling, so it wakes as soon
// as an item arrives or cancellation fires; the wait bound exists only to let
// callers re-check their own loop conditions.
type chunkQueue struct {
	mu     sync.Mutex
	chunks [][]byte
	notify chan struct{} // capacity 1, coalesced wakeup for the single consumer
}

func newChunkQueue() *chunkQueue {
	return &chunkQueue{notify: make(chan struct{}, 1)}
}

// push appends a chunk at the tail.
func (q *chunkQueue) push(c []byte) {
	q.mu.Lock()
	q.chunks = append(q.chunks, c)
	q.mu.Unlock()
	q.wake()
}

// pushFront inserts a chunk at the head, making it the next chunk consumed.
// Used to return the unused tail of a split chunk and trailing partial-item
// bytes to the front of consumption order.
func (q *chunkQueue) pushFront(c []byte) {
	q.mu.Lock()
	q.chunks = append([][]byte{c}, q.chunks...)
	q.mu.Unlock()
	q.wake()
}

func (q *chunkQueue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// len returns the number of queued chunks.
func (q *chunkQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.chunks)
}

// bytes returns the total number of queued bytes.
func (q *chunkQueue) bytes() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	total := 0
	for _, c := range q.chunks {
		total += len(c)
	}
	return total
}

// tryPop removes and returns the head chunk without waiting.
func (q *chunkQueue) tryPop() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.chunks) == 0 {
		return nil, false
	}
	c := q.chunks[0]
	q.chunks[0] = nil
	q.chunks = q.chunks[1:]
	return c, true
}

// pop removes and returns the head chunk, waiting up to wait for one to
// arrive. It returns early, with whatever is queued, when cancel is closed:
// queued chunks remain retrievable after cancellation so the consumer can
// drain, but pop never blocks once cancel has fired.
func (q *chunkQueue) pop(cancel <-chan struct{}, wait time.Duration) ([]byte, bool) {
	if c, ok := q.tryPop(); ok {
		return c, true
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-q.notify:
			if c, ok := q.tryPop(); ok {
				return c, true
			}
			// Spurious wakeup: the token outlived its chunk. Keep waiting.
		case <-cancel:
			return q.tryPop()
		case <-timer.C:
			return nil, false
		}
	}
}
