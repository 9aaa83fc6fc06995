package server

import "sync"

// bytePool recycles the fixed-size buffers used to drain a readable
// socket, adapted from the teacher's BytePool (memory.go): a
// sync.Pool seeded with readBufSize buffers instead of allocating one
// per readable event.
type bytePool struct {
	pool sync.Pool
}

func newBytePool() *bytePool {
	return &bytePool{
		pool: sync.Pool{
			New: func() any {
				return make([]byte, readBufSize)
			},
		},
	}
}

func (bp *bytePool) get() []byte {
	return bp.pool.Get().([]byte)
}

func (bp *bytePool) put(buf []byte) {
	bp.pool.Put(buf[:cap(buf)])
}
