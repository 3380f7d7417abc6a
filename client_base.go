package khub

import (
	"context"
	"errors"
	"net"
	"sync"
)

var (
	ErrClientClosed       = errors.New("client closed")
	ErrClientDisconnected = errors.New("client disconnected")
)

type DialFunc func(addr string) (net.Conn, error)

type ClientConfig struct {
	Io            IoConfig
	AutoReconnect bool
}

func NewClientConfig() *ClientConfig {
	conf := &ClientConfig{}
	conf.Io = *NewIoConfig()
	return conf
}

type ClientBase struct {
	*IoServiceBase
	sync.Mutex
	remoteAddr   string
	conf         *ClientConfig
	handler      IoHandler
	dial         DialFunc
	session      *IoSession
	sessionError error
	closed       bool

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func NewClientBase(ctx context.Context, dial DialFunc, conf *ClientConfig) *ClientBase {
	var (
		newctx, cancel = context.WithCancel(ctx)
		ioConf         = &IoConfig{}
	)

	*ioConf = conf.Io

	c := &ClientBase{
		IoServiceBase: NewIoServiceBase(ioConf),
		conf:          conf,
		dial:          dial,
		ctx:           newctx,
		cancel:        cancel,
	}
	c.IoServiceBase.SetIoHandler(c)

	return c
}

func (c *ClientBase) SetIoHandler(h IoHandler) {
	c.handler = h
}

func (c *ClientBase) Dial(addr string) (err error) {
	if c.dial == nil {
		panic("no dial func defined")
	}

	c.remoteAddr = addr
	return c.ensureConnected(true)
}

func (c *ClientBase) Close() {
	c.closeOnce.Do(func() {
		c.Lock()
		c.closed = true
		c.Unlock()

		session := c.GetSession()
		if session != nil {
			session.Close()
		}

		c.cancel()
	})
}

// Send queues m on the current session, reconnecting first when the link is
// down and AutoReconnect is enabled.
func (c *ClientBase) Send(m *Message) (err error) {
	if c.IsClosed() {
		return ErrClientClosed
	}

	if err = c.ensureConnected(false); err != nil {
		return
	}

	return c.GetSession().Send(m)
}

func (c *ClientBase) GetSession() (session *IoSession) {
	c.Lock()
	session = c.session
	c.Unlock()
	return
}

func (c *ClientBase) Disconnect() {
	session := c.GetSession()
	if session == nil {
		return
	}
	c.OnError(session, ErrClientDisconnected)
	session.Close()
}

func (c *ClientBase) IsConnected() bool {
	session := c.GetSession()
	return session != nil && session.IsConnected()
}

func (c *ClientBase) IsClosed() (closed bool) {
	c.Lock()
	closed = c.closed
	c.Unlock()
	return
}

func (c *ClientBase) OnConnected(session *IoSession) error {
	c.Lock()
	c.session = session
	c.sessionError = nil
	c.Unlock()

	if h := c.handler; h != nil {
		return h.OnConnected(session)
	}
	return nil
}

func (c *ClientBase) OnDisconnected(session *IoSession) {
	if c.IsClosed() {
		return
	}

	if h := c.handler; h != nil {
		h.OnDisconnected(session)
	}
}

func (c *ClientBase) OnIdle(session *IoSession) error {
	if h := c.handler; h != nil {
		return h.OnIdle(session)
	}
	return nil
}

func (c *ClientBase) OnError(session *IoSession, err error) {
	c.Lock()
	c.sessionError = err
	c.Unlock()

	if h := c.handler; h != nil {
		h.OnError(session, err)
	}
}

func (c *ClientBase) OnFrame(session *IoSession, frame []byte) error {
	if h := c.handler; h != nil {
		return h.OnFrame(session, frame)
	}
	return nil
}

func (c *ClientBase) ensureConnected(force bool) (err error) {
	var (
		conn    net.Conn
		session *IoSession
	)

	if c.IsConnected() {
		return
	}

	if !force {
		if !c.conf.AutoReconnect {
			return ErrClientDisconnected
		}
	}

	if conn, err = c.dial(c.remoteAddr); err != nil {
		return
	}

	session = NewIoSession(c.ctx, c, conn)
	session.Open()
	return
}
