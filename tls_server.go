package khub

import (
	"context"
	"crypto/tls"
	"net"
)

// TLSServer serves hub sessions over TLS. Sessions, queues and flush logic
// are identical to the plain TCP case; only the listener differs.
type TLSServer struct {
	*ServerBase
}

func TLSListen(tlsConf *tls.Config) ListenFunc {
	return func(addr string) (net.Listener, error) {
		return tls.Listen("tcp", addr, tlsConf)
	}
}

func NewTLSServer(ctx context.Context, conf *ServerConfig, tlsConf *tls.Config) *TLSServer {
	srv := &TLSServer{
		ServerBase: NewServerBase(ctx, TLSListen(tlsConf), conf),
	}
	return srv
}
