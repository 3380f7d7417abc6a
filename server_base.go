package khub

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"golang.org/x/net/netutil"
)

var ErrServerClosed = errors.New("server closed")

type ListenFunc func(addr string) (net.Listener, error)

type ServerConfig struct {
	Io            IoConfig
	MaxConnection int
}

func NewServerConfig() *ServerConfig {
	conf := &ServerConfig{}
	conf.Io = *NewIoConfig()
	return conf
}

type ServerBase struct {
	*IoServiceBase
	listen ListenFunc
	conf   *ServerConfig

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewServerBase(ctx context.Context, listen ListenFunc, conf *ServerConfig) *ServerBase {
	var (
		newctx, cancel = context.WithCancel(ctx)
		ioConf         = &IoConfig{}
	)

	*ioConf = conf.Io

	srv := &ServerBase{
		IoServiceBase: NewIoServiceBase(ioConf),
		listen:        listen,
		conf:          conf,
		ctx:           newctx,
		cancel:        cancel,
	}
	return srv
}

func (srv *ServerBase) ListenAndServe(addr string) error {
	if srv.listen == nil {
		panic("no listen func defined")
	}

	ln, err := srv.listen(addr)
	if err != nil {
		return err
	}

	return srv.Serve(ln)
}

func (srv *ServerBase) Serve(l net.Listener) error {
	defer l.Close()

	if srv.conf.MaxConnection > 0 {
		l = netutil.LimitListener(l, srv.conf.MaxConnection)
	}

	var (
		tempDelay time.Duration
		conn      net.Conn
		err       error
	)

	for {
		if conn, err = l.Accept(); err != nil {

			select {
			case <-srv.ctx.Done():
				return ErrServerClosed
			default:
			}

			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else {
					tempDelay *= 2
				}
				if max := 1 * time.Second; tempDelay > max {
					tempDelay = max
				}
				defaultLogger.Printf("Accept error: %v; retrying in %v", err, tempDelay)
				time.Sleep(tempDelay)
				continue
			}

			return err
		}

		tempDelay = 0
		session := srv.newSession(conn)
		srv.wg.Add(1)
		go srv.serve(session)
	}
}

func (srv *ServerBase) Close() {
	srv.closeOnce.Do(func() {
		srv.cancel()
		srv.wg.Wait()
	})
}

func (srv *ServerBase) AddRef() {
	srv.wg.Add(1)
}

func (srv *ServerBase) DecRef() {
	srv.wg.Done()
}

func (srv *ServerBase) newSession(conn net.Conn) *IoSession {
	return NewIoSession(srv.ctx, srv, conn)
}

func (srv *ServerBase) serve(session *IoSession) {
	defer func() {
		if r := recover(); r != nil {
			defaultLogger.Printf("got panic in serve session: error=%v, stack=%v", r, getPanicStack())
		}
		srv.wg.Done()
	}()

	session.Open()
}
