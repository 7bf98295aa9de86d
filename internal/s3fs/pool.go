package s3fs

import (
	"sync"
	"sync/atomic"
)

// BufferPool recycles part-sized byte slices across multipart uploads, so a
// stream of part-sized writes doesn't allocate a fresh buffer per part.
type BufferPool struct {
	pool     sync.Pool
	partSize int

	gets   int64
	misses int64
}

// NewBufferPool returns a pool that hands out buffers of exactly partSize.
func NewBufferPool(partSize int) *BufferPool {
	p := &BufferPool{partSize: partSize}
	p.pool.New = func() any {
		atomic.AddInt64(&p.misses, 1)
		return make([]byte, 0, partSize)
	}
	return p
}

// Get returns a zero-length buffer with capacity partSize. Every call counts
// against gets; pool.New counts against misses, so Stats can report hits as
// the difference instead of re-deriving "came from the pool" from the
// buffer's capacity, which a fresh allocation and a reused one share.
func (p *BufferPool) Get() []byte {
	atomic.AddInt64(&p.gets, 1)
	buf := p.pool.Get().([]byte)
	return buf[:0]
}

// Put returns buf to the pool for reuse. Buffers with the wrong capacity
// (the pool's part size changed, or the caller grew it) are dropped instead
// of pooled, so the pool never hands out an undersized buffer.
func (p *BufferPool) Put(buf []byte) {
	if cap(buf) != p.partSize {
		return
	}
	p.pool.Put(buf) //nolint:staticcheck // slice reused at fixed capacity, not retained past Put
}

// Stats reports pool hit/miss counters, for the metrics collector. hits is
// gets minus misses: every Get that didn't trigger a fresh allocation.
func (p *BufferPool) Stats() (hits, misses int64) {
	misses = atomic.LoadInt64(&p.misses)
	gets := atomic.LoadInt64(&p.gets)
	hits = gets - misses
	if hits < 0 {
		hits = 0
	}
	return hits, misses
}
