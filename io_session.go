package khub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrPeerDead      = errors.New("peer dead")
	ErrSendQueueFull = errors.New("send queue full")
	ErrFloodDetected = errors.New("inbound flood detected")
	ErrFrameTooLarge = errors.New("frame too large")
)

// IoSession binds one connection to its RecvQueue and SendQueue and runs the
// three per-session goroutines: readLoop (bytes in, frame reassembly),
// writeLoop (queue drain on demand) and handleLoop (frame dispatch).
//
// The queues themselves carry no locking; sendMu makes the session the
// single logical owner required by SendQueue, so Send may be called from any
// goroutine while writeLoop drains.
type IoSession struct {
	id        uint64
	srv       IoService
	conf      *IoConfig
	handler   IoHandler
	splitter  Splitter
	conn      *Conn
	attrs     map[interface{}]interface{}
	attrsLock sync.RWMutex

	recvq   *RecvQueue
	recvCh  chan []byte
	sendMu  sync.Mutex
	sendq   *SendQueue
	wakeCh  chan struct{}
	limiter *rate.Limiter

	idleCount      uint32
	readFrameCount uint32
	sentMsgCount   uint32

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	connected uint32
	closed    uint32
}

func NewIoSession(ctx context.Context, srv IoService, conn net.Conn) *IoSession {
	var (
		id             = srv.NextSessionId()
		conf           = srv.IoConfig()
		newctx, cancel = context.WithCancel(ctx)
	)

	s := &IoSession{
		id:       id,
		srv:      srv,
		handler:  srv.IoHandler(),
		conf:     conf,
		splitter: srv.Splitter(),
		conn:     &Conn{Conn: conn},
		attrs:    make(map[interface{}]interface{}),
		recvq:    NewRecvQueue(),
		recvCh:   make(chan []byte, conf.RecvQueueSize),
		sendq:    NewSendQueue(),
		wakeCh:   make(chan struct{}, 1),
		ctx:      newctx,
		cancel:   cancel,
	}

	if conf.FloodRate > 0 {
		burst := conf.FloodBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(conf.FloodRate), burst)
	}

	_ = s.conn.SetReadTimeout(conf.ReadTimeout)

	return s
}

func (s *IoSession) Id() uint64 {
	return s.id
}

func (s *IoSession) IoService() IoService {
	return s.srv
}

func (s *IoSession) Context() context.Context {
	return s.ctx
}

func (s *IoSession) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

func (s *IoSession) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

func (s *IoSession) GetAttr(key interface{}) (v interface{}) {
	s.attrsLock.RLock()
	v = s.attrs[key]
	s.attrsLock.RUnlock()
	return
}

func (s *IoSession) SetAttr(key, value interface{}) {
	s.attrsLock.Lock()
	s.attrs[key] = value
	s.attrsLock.Unlock()
}

func (s *IoSession) RemoveAttr(key interface{}) {
	s.attrsLock.Lock()
	delete(s.attrs, key)
	s.attrsLock.Unlock()
}

func (s *IoSession) Open() {
	s.srv.AddRef()
	s.wg.Add(3)
	go s.handleLoop()
	go s.readLoop()
	go s.writeLoop()

	// Parent cancellation must unblock a read parked on the socket.
	go func() {
		<-s.ctx.Done()
		s.Close()
	}()

	atomic.StoreUint32(&s.connected, 1)

	if err := s.handler.OnConnected(s); err != nil {
		s.Close()
	}
}

func (s *IoSession) Close() {
	if !atomic.CompareAndSwapUint32(&s.closed, 0, 1) {
		return
	}

	atomic.StoreUint32(&s.connected, 0)
	s.cancel()
	s.conn.Close()

	go func() {
		s.wg.Wait()

		close(s.recvCh)

		// Unflushed bytes are dropped here; every remaining message
		// handle is released exactly once.
		s.sendMu.Lock()
		s.sendq.Destroy()
		s.sendMu.Unlock()

		s.handler.OnDisconnected(s)
		s.srv.DecRef()
	}()
}

func (s *IoSession) IsConnected() bool {
	return atomic.LoadUint32(&s.connected) == 1
}

func (s *IoSession) IsClosed() bool {
	return atomic.LoadUint32(&s.closed) == 1
}

// Send queues m for delivery and wakes the write loop. The session takes its
// own reference; the caller's reference stays with the caller. Send never
// blocks: when the pending byte count would exceed MaxSendQueueBytes the
// message is rejected with ErrSendQueueFull and the caller decides whether
// the consumer is too slow to live.
func (s *IoSession) Send(m *Message) error {
	if s.IsClosed() {
		return ErrSessionClosed
	}

	s.sendMu.Lock()
	if max := s.conf.MaxSendQueueBytes; max > 0 && s.sendq.Pending()+m.Len() > max {
		s.sendMu.Unlock()
		return ErrSendQueueFull
	}
	s.sendq.Enqueue(m)
	s.sendMu.Unlock()

	atomic.AddUint32(&s.sentMsgCount, 1)

	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
	return nil
}

// PendingBytes returns the number of queued outbound bytes not yet handed to
// the transport.
func (s *IoSession) PendingBytes() int {
	s.sendMu.Lock()
	n := s.sendq.Pending()
	s.sendMu.Unlock()
	return n
}

func (s *IoSession) GetIdleCount() uint32 {
	return atomic.LoadUint32(&s.idleCount)
}

func (s *IoSession) String() string {
	return fmt.Sprintf("session %d, Read Byte Count: %d, Write Byte Count: %d, Read Frame Count: %d, Sent Msg Count: %d",
		s.id,
		s.conn.GetReadBytes(),
		s.conn.GetWriteBytes(),
		atomic.LoadUint32(&s.readFrameCount),
		atomic.LoadUint32(&s.sentMsgCount),
	)
}

func (s *IoSession) handleLoop() {
	var (
		frame []byte
		err   error
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("got panic in handle loop: error=%v, stack=%v", r, getPanicStack())
		}

		if err != nil {
			s.handler.OnError(s, err)
		}

		s.wg.Done()
		s.Close()
	}()

	for {
		select {
		case <-s.ctx.Done():
			return

		case frame = <-s.recvCh:
			if err = s.handler.OnFrame(s, frame); err != nil {
				return
			}
		}
	}
}

func (s *IoSession) readLoop() {
	var err error

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("got panic in read loop: error=%v, stack=%v", r, getPanicStack())
		}

		if !s.IsClosed() && err != nil && err != io.EOF {
			s.handler.OnError(s, err)
		}

		s.wg.Done()
		s.Close()
	}()

	buf := make([]byte, s.conf.RecvBufferSize)

	for {
		select {
		case <-s.ctx.Done():
			return

		default:
		}

		n, rerr := s.conn.Read(buf)

		if n > 0 {
			atomic.StoreUint32(&s.idleCount, 0)

			if err = s.feed(buf[:n]); err != nil {
				return
			}
		}

		if rerr != nil {
			if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				atomic.AddUint32(&s.idleCount, 1)

				if err = s.handler.OnIdle(s); err != nil {
					return
				}

				continue
			}

			err = rerr
			return
		}
	}
}

// feed runs one read's worth of bytes through frame reassembly: any stashed
// tail from the previous read is prepended, complete frames go to the
// handler loop and an incomplete tail goes back into the recv queue.
func (s *IoSession) feed(chunk []byte) error {
	data := chunk

	if stored := s.recvq.Size(); stored > 0 {
		merged := make([]byte, stored+len(chunk))
		off := s.recvq.Get(merged)
		copy(merged[off:], chunk)
		data = merged
	}

	frames, consumed := s.splitter.Split(data)

	if rest := len(data) - consumed; rest > 0 {
		if max := s.conf.MaxFrameSize; max > 0 && rest > max {
			return ErrFrameTooLarge
		}
		s.recvq.Set(data[consumed:])
	}

	for _, f := range frames {
		if s.limiter != nil && !s.limiter.Allow() {
			return ErrFloodDetected
		}

		// Frames alias the read buffer; copy before crossing goroutines.
		frame := make([]byte, len(f))
		copy(frame, f)

		atomic.AddUint32(&s.readFrameCount, 1)

		select {
		case <-s.ctx.Done():
			return nil
		case s.recvCh <- frame:
		}
	}

	return nil
}

func (s *IoSession) writeLoop() {
	var err error

	w := NewConnWriter(s.conn, s.conf.WriteTimeout)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("got panic in write loop: error=%v, stack=%v", r, getPanicStack())
		}

		if !s.IsClosed() && err != nil {
			s.handler.OnError(s, err)
		}

		s.wg.Done()
		s.Close()
	}()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.wakeCh:
		}

		if err = s.drain(w); err != nil {
			return
		}
	}
}

// drain flushes until the queue is empty or the peer stops accepting bytes.
// A whole write timeout elapsing without a single byte accepted marks the
// peer dead; that is the only stalled-consumer policy this layer applies.
func (s *IoSession) drain(w *ConnWriter) error {
	for {
		s.sendMu.Lock()
		n := s.sendq.Flush(w)
		pending := s.sendq.Pending()
		s.sendMu.Unlock()

		if err := w.Err(); err != nil {
			return err
		}

		if pending == 0 {
			return nil
		}

		if n == 0 {
			return ErrPeerDead
		}
	}
}
