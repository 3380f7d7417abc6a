package khub

import (
	"context"
	"net"
	"time"
)

type TCPClientConfig struct {
	Io            IoConfig
	DialTimeout   time.Duration
	AutoReconnect bool
}

func NewTCPClientConfig() *TCPClientConfig {
	conf := &TCPClientConfig{}
	conf.Io = *NewIoConfig()
	conf.DialTimeout = 30 * time.Second
	return conf
}

type TCPClient struct {
	*ClientBase
}

func TCPDialFunc(timeout time.Duration) DialFunc {
	return func(addr string) (conn net.Conn, err error) {
		if timeout > 0 {
			return net.DialTimeout("tcp", addr, timeout)
		}
		return net.Dial("tcp", addr)
	}
}

func NewTCPClient(ctx context.Context, conf *TCPClientConfig) *TCPClient {
	clientConf := &ClientConfig{}
	clientConf.Io = conf.Io
	clientConf.AutoReconnect = conf.AutoReconnect

	c := &TCPClient{
		ClientBase: NewClientBase(ctx, TCPDialFunc(conf.DialTimeout), clientConf),
	}
	return c
}
