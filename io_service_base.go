package khub

import "sync/atomic"

type IoServiceBase struct {
	nextSessionId uint64
	conf          *IoConfig
	splitter      Splitter
	handler       IoHandler
}

func NewIoServiceBase(conf *IoConfig) *IoServiceBase {
	return &IoServiceBase{
		conf:     conf,
		splitter: LineSplitter{},
	}
}

func (srv *IoServiceBase) SetIoHandler(h IoHandler) {
	srv.handler = h
}

func (srv *IoServiceBase) Splitter() Splitter {
	return srv.splitter
}

func (srv *IoServiceBase) SetSplitter(s Splitter) {
	srv.splitter = s
}

func (srv *IoServiceBase) IoHandler() IoHandler {
	return srv.handler
}

func (srv *IoServiceBase) IoConfig() *IoConfig {
	return srv.conf
}

func (srv *IoServiceBase) AddRef() {
}

func (srv *IoServiceBase) DecRef() {
}

func (srv *IoServiceBase) NextSessionId() uint64 {
	return atomic.AddUint64(&srv.nextSessionId, 1)
}
