package common

import (
	"bytes"
	"sync"
)

// BufferPool recycles byte buffers. Buffers that grew past maxRetained are
// dropped on Put so one large upload does not pin its memory in the pool.
type BufferPool struct {
	pool        sync.Pool
	maxRetained int
}

// NewBufferPool creates a pool of buffers pre-sized to initialCapacity.
func NewBufferPool(initialCapacity, maxRetained int) *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, initialCapacity))
			},
		},
		maxRetained: maxRetained,
	}
}

// Get returns an empty buffer.
func (bp *BufferPool) Get() *bytes.Buffer {
	return bp.pool.Get().(*bytes.Buffer)
}

// Put resets buf and returns it to the pool unless it is oversized.
func (bp *BufferPool) Put(buf *bytes.Buffer) {
	if buf == nil {
		return
	}
	if bp.maxRetained > 0 && buf.Cap() > bp.maxRetained {
		return
	}
	buf.Reset()
	bp.pool.Put(buf)
}

// DefaultBufferPool starts at 64KB and keeps buffers up to 16MB.
var DefaultBufferPool = NewBufferPool(64*1024, 16*1024*1024)
