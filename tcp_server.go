package khub

import (
	"context"
	"net"
)

type TCPServerConfig ServerConfig

type TCPServer struct {
	*ServerBase
}

func TCPListen(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

func NewTCPServerConfig() *TCPServerConfig {
	return (*TCPServerConfig)(NewServerConfig())
}

func NewTCPServer(ctx context.Context, conf *TCPServerConfig) *TCPServer {
	srv := &TCPServer{
		ServerBase: NewServerBase(ctx, TCPListen, (*ServerConfig)(conf)),
	}
	return srv
}
