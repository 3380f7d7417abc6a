package khub

import (
	"sync"
	"sync/atomic"
)

// Message is an immutable, length-known outbound payload with shared
// ownership. The same message may sit in any number of send queues at once;
// each holder keeps its own reference and the backing buffer is recycled
// only when the last reference is released.
type Message struct {
	buf  []byte
	size int
	refs int32
}

var messageBufPool = sync.Pool{
	New: func() interface{} {
		return make([]byte, 0, 512)
	},
}

// NewMessage copies payload into a pooled buffer and returns a message with
// a single reference owned by the caller.
func NewMessage(payload []byte) *Message {
	buf := messageBufPool.Get().([]byte)
	if cap(buf) < len(payload) {
		buf = make([]byte, 0, len(payload))
	}
	buf = buf[:len(payload)]
	copy(buf, payload)

	return &Message{
		buf:  buf,
		size: len(payload),
		refs: 1,
	}
}

// NewTextMessage is a convenience wrapper for string payloads.
func NewTextMessage(text string) *Message {
	return NewMessage([]byte(text))
}

// Incref acquires an additional reference and returns the message itself.
func (m *Message) Incref() *Message {
	if atomic.AddInt32(&m.refs, 1) <= 1 {
		panic("khub: incref on released message")
	}
	return m
}

// Decref releases one reference. The backing buffer goes back to the pool
// when the last reference is dropped; using the message afterwards is a bug.
func (m *Message) Decref() {
	refs := atomic.AddInt32(&m.refs, -1)
	if refs < 0 {
		panic("khub: message released twice")
	}
	if refs == 0 {
		buf := m.buf
		m.buf = nil
		messageBufPool.Put(buf[:0])
	}
}

// Len returns the payload length in bytes.
func (m *Message) Len() int {
	return m.size
}

// Bytes returns the payload. Callers must not modify the returned slice.
func (m *Message) Bytes() []byte {
	return m.buf[:m.size]
}

// Refs returns the current reference count.
func (m *Message) Refs() int {
	return int(atomic.LoadInt32(&m.refs))
}
