package khub

import (
	"net"
	"time"
)

// Writer is the single capability a SendQueue needs from the transport: one
// attempt at a non-blocking write. It returns the number of bytes accepted;
// zero or less means no progress right now. The queue does not distinguish
// would-block from a hard error -- that distinction, where needed, is the
// writer implementation's concern, surfaced to the owner, not to the queue.
type Writer interface {
	WriteNonblock(p []byte) int
}

// WriterFunc adapts a plain function to the Writer interface.
type WriterFunc func(p []byte) int

func (f WriterFunc) WriteNonblock(p []byte) int {
	return f(p)
}

// ConnWriter adapts a net.Conn (plain TCP or TLS alike) to the Writer
// capability. Each attempt is bounded by a write deadline so a stalled peer
// reads as would-block instead of hanging the caller; a deadline expiry is
// reported as lack of progress while any other error is retained for the
// owner to inspect through Err.
type ConnWriter struct {
	conn    net.Conn
	timeout time.Duration
	err     error
}

func NewConnWriter(conn net.Conn, timeout time.Duration) *ConnWriter {
	return &ConnWriter{
		conn:    conn,
		timeout: timeout,
	}
}

func (w *ConnWriter) WriteNonblock(p []byte) int {
	if w.err != nil {
		return 0
	}

	if w.timeout > 0 {
		if err := w.conn.SetWriteDeadline(time.Now().Add(w.timeout)); err != nil {
			w.err = err
			return 0
		}
	}

	n, err := w.conn.Write(p)
	if err != nil {
		if ne, ok := err.(net.Error); !ok || !ne.Timeout() {
			w.err = err
		}
	}
	return n
}

// Err returns the first hard (non-timeout) error seen by this writer.
func (w *ConnWriter) Err() error {
	return w.err
}
