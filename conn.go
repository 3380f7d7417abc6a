package khub

import (
	"net"
	"sync/atomic"
	"time"
)

// Conn wraps a net.Conn with per-direction byte counters and deadline
// handling. The counters feed the hub-level traffic statistics.
type Conn struct {
	net.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
	bytesIn      int64
	bytesOut     int64
}

func (c *Conn) SetReadTimeout(d time.Duration) (err error) {
	c.readTimeout = d

	if d == 0 {
		if err = c.Conn.SetReadDeadline(time.Time{}); err != nil {
			return
		}
	}
	return
}

func (c *Conn) SetWriteTimeout(d time.Duration) (err error) {
	c.writeTimeout = d

	if d == 0 {
		if err = c.Conn.SetWriteDeadline(time.Time{}); err != nil {
			return
		}
	}
	return
}

func (c *Conn) Read(b []byte) (n int, err error) {
	if c.readTimeout > 0 {
		if err = c.Conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return
		}
	}
	n, err = c.Conn.Read(b)
	atomic.AddInt64(&c.bytesIn, int64(n))
	return
}

func (c *Conn) Write(b []byte) (n int, err error) {
	if c.writeTimeout > 0 {
		if err = c.Conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return
		}
	}
	n, err = c.Conn.Write(b)
	atomic.AddInt64(&c.bytesOut, int64(n))
	return
}

func (c *Conn) GetReadBytes() int64 {
	return atomic.LoadInt64(&c.bytesIn)
}

func (c *Conn) GetWriteBytes() int64 {
	return atomic.LoadInt64(&c.bytesOut)
}
