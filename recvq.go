package khub

// RecvQueue holds the not-yet-consumed tail of a read between two read
// callbacks, so the splitter can resume an incomplete frame once more bytes
// arrive. It is a single slot: Set overwrites, it never appends. The owning
// session is expected to drain it with Get before storing a new remainder.
type RecvQueue struct {
	buf  []byte
	size int
}

func NewRecvQueue() *RecvQueue {
	return &RecvQueue{}
}

// Set stores a copy of data, discarding whatever was stored before. An empty
// input just clears the slot. Returns the number of bytes stored.
func (q *RecvQueue) Set(data []byte) int {
	q.buf = nil
	q.size = 0

	if len(data) == 0 {
		return 0
	}

	q.buf = make([]byte, len(data))
	copy(q.buf, data)
	q.size = len(data)
	return q.size
}

// Get copies the stored bytes into dst and clears the slot, returning the
// number of bytes copied. dst must be large enough for Size() bytes; a
// smaller destination is a caller bug, not a runtime condition.
func (q *RecvQueue) Get(dst []byte) int {
	if cap(dst) < q.size {
		panic("khub: recvq destination smaller than stored data")
	}

	if q.size == 0 {
		return 0
	}

	n := q.size
	copy(dst[:n], q.buf)
	q.buf = nil
	q.size = 0
	return n
}

// Size returns the number of stored bytes.
func (q *RecvQueue) Size() int {
	return q.size
}
