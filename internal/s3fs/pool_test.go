package s3fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferPoolFirstGetIsMissNotHit(t *testing.T) {
	p := NewBufferPool(1024)

	buf := p.Get()
	assert.Equal(t, 1024, cap(buf))

	hits, misses := p.Stats()
	assert.Equal(t, int64(0), hits)
	assert.Equal(t, int64(1), misses)
}

func TestBufferPoolReuseCountsAsHit(t *testing.T) {
	p := NewBufferPool(1024)

	buf := p.Get()
	p.Put(buf)

	_ = p.Get()

	hits, misses := p.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestBufferPoolWrongSizedPutIsDropped(t *testing.T) {
	p := NewBufferPool(1024)

	p.Put(make([]byte, 0, 512))
	buf := p.Get()

	hits, misses := p.Stats()
	assert.Equal(t, 1024, cap(buf))
	assert.Equal(t, int64(0), hits)
	assert.Equal(t, int64(1), misses)
}
