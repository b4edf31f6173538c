package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferPool_GetReturnsEmptyBuffer(t *testing.T) {
	pool := NewBufferPool(16, 1024)

	buf := pool.Get()
	buf.WriteString("hello")
	pool.Put(buf)

	again := pool.Get()
	assert.Equal(t, 0, again.Len())
}

func TestBufferPool_DropsOversizedBuffers(t *testing.T) {
	pool := NewBufferPool(16, 32)

	buf := pool.Get()
	buf.Write(make([]byte, 1024))
	assert.NotPanics(t, func() { pool.Put(buf) })
	assert.NotPanics(t, func() { pool.Put(nil) })

	assert.Equal(t, 0, pool.Get().Len())
}
