package khub

import (
	"github.com/eapache/queue"
)

// SendQueue is the per-connection outbound queue: a FIFO of shared message
// handles plus the byte accounting the owner uses for backpressure decisions.
// It performs no I/O itself; draining goes through an injected Writer, so the
// identical logic sits behind a plain socket, a TLS session or a test double.
//
// A SendQueue is not synchronized. It is designed for exclusive access by a
// single logical owner at a time; see IoSession for the locking that makes
// Enqueue safe to call while a flush is in progress elsewhere.
type SendQueue struct {
	fifo *queue.Queue
	// size is the byte sum of every queued message, offset how much of the
	// head has already reached the transport. size-offset is the pending
	// byte count. offset is always 0 when the queue is empty.
	size   int
	offset int
}

func NewSendQueue() *SendQueue {
	return &SendQueue{
		fifo: queue.New(),
	}
}

// Destroy releases the queue's reference to every remaining message. Bytes
// not yet flushed are dropped; no partial-message completion is attempted.
func (q *SendQueue) Destroy() {
	for q.fifo.Length() > 0 {
		q.fifo.Remove().(*Message).Decref()
	}
	q.size = 0
	q.offset = 0
}

// Enqueue appends m to the tail, acquiring a reference on behalf of the
// queue. The caller keeps its own reference.
func (q *SendQueue) Enqueue(m *Message) {
	q.fifo.Add(m.Incref())
	q.size += m.Len()
}

// Remove drops a specific queued message before it reaches the transport,
// releasing the queue's reference. Removal of a head that has already been
// partially flushed is refused: the peer has seen a truncated frame and the
// only correct continuation is either finishing it or closing the
// connection. Returns whether the message was removed.
func (q *SendQueue) Remove(m *Message) bool {
	n := q.fifo.Length()
	if n == 0 {
		return false
	}

	if q.fifo.Peek().(*Message) == m && q.offset > 0 {
		return false
	}

	removed := false
	for i := 0; i < n; i++ {
		head := q.fifo.Remove().(*Message)
		if head == m && !removed {
			removed = true
			continue
		}
		q.fifo.Add(head)
	}

	if removed {
		q.size -= m.Len()
		m.Decref()
	}
	return removed
}

// Flush drains from the head as far as w allows and returns the number of
// bytes handed to the transport during this call. A non-positive writer
// return means no progress right now; the unflushed state is kept exactly
// as-is and the owner retries after the next writable-readiness event. One
// call may drain several short messages in sequence.
func (q *SendQueue) Flush(w Writer) int {
	sent := 0

	for q.fifo.Length() > 0 {
		head := q.fifo.Peek().(*Message)

		if head.Len() > q.offset {
			n := w.WriteNonblock(head.Bytes()[q.offset:])
			if n <= 0 {
				break
			}

			q.offset += n
			sent += n

			if q.offset < head.Len() {
				break
			}
		}

		// Head fully flushed (or empty): pop and release.
		q.fifo.Remove()
		q.size -= head.Len()
		q.offset = 0
		head.Decref()
	}

	return sent
}

// IsEmpty reports whether no messages are queued.
func (q *SendQueue) IsEmpty() bool {
	return q.size == 0
}

// Size returns the byte sum of all queued messages.
func (q *SendQueue) Size() int {
	return q.size
}

// Pending returns the number of bytes not yet handed to the transport. This
// is the authoritative backpressure signal for the owner.
func (q *SendQueue) Pending() int {
	return q.size - q.offset
}
