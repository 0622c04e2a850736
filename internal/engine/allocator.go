package engine

// Allocator hands out staging buffers for WriteCoalesced. Every buffer
// returned by Get is passed back to Put exactly once, whatever the outcome of
// the write.
type Allocator interface {
	Get(size int) []byte
	Put(b []byte)
}

// HeapAllocator allocates a fresh staging buffer for every group. Put drops
// the reference; no buffer outlives the send that asked for it.
type HeapAllocator struct{}

func (HeapAllocator) Get(size int) []byte {
	return make([]byte, size)
}

func (HeapAllocator) Put([]byte) {}
