package khub

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoHandler struct {
	IoHandlerAdapter
}

func (h *echoHandler) OnFrame(s *IoSession, frame []byte) error {
	m := NewTextMessage(string(frame) + "\n")
	err := s.Send(m)
	m.Decref()
	return err
}

func startEchoServer(t *testing.T) (srv *TCPServer, addr string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv = NewTCPServer(context.Background(), NewTCPServerConfig())
	srv.SetIoHandler(&echoHandler{})

	go srv.Serve(ln)

	t.Cleanup(func() {
		srv.Close()
		ln.Close()
	})
	return srv, ln.Addr().String()
}

func TestTCPServerEcho(t *testing.T) {
	_, addr := startEchoServer(t)

	handler := newFrameCollector()
	client := NewTCPClient(context.Background(), NewTCPClientConfig())
	client.SetIoHandler(handler)
	require.NoError(t, client.Dial(addr))
	defer client.Close()

	m := NewTextMessage("ping\n")
	require.NoError(t, client.Send(m))
	m.Decref()

	assert.Equal(t, "ping", waitFrame(t, handler.frames))
}

func TestTCPServerEchoManyFramesOneFlush(t *testing.T) {
	_, addr := startEchoServer(t)

	handler := newFrameCollector()
	client := NewTCPClient(context.Background(), NewTCPClientConfig())
	client.SetIoHandler(handler)
	require.NoError(t, client.Dial(addr))
	defer client.Close()

	// Several short messages queued back to back; the server echoes each
	// as its own frame regardless of how flushes batched them.
	for _, text := range []string{"one\n", "two\n", "three\n"} {
		m := NewTextMessage(text)
		require.NoError(t, client.Send(m))
		m.Decref()
	}

	assert.Equal(t, "one", waitFrame(t, handler.frames))
	assert.Equal(t, "two", waitFrame(t, handler.frames))
	assert.Equal(t, "three", waitFrame(t, handler.frames))
}

func TestClientSendWhenDisconnected(t *testing.T) {
	client := NewTCPClient(context.Background(), NewTCPClientConfig())
	defer client.Close()

	m := NewTextMessage("nowhere\n")
	defer m.Decref()
	assert.ErrorIs(t, client.Send(m), ErrClientDisconnected)
}

func TestServerMaxConnection(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	conf := NewTCPServerConfig()
	conf.MaxConnection = 1

	srv := NewTCPServer(context.Background(), conf)
	srv.SetIoHandler(&echoHandler{})
	go srv.Serve(ln)
	t.Cleanup(func() {
		srv.Close()
		ln.Close()
	})

	first, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer first.Close()

	// A second dial connects at the TCP level but is not served until the
	// first one goes away.
	second, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer second.Close()

	_, err = first.Write([]byte("hello\n"))
	require.NoError(t, err)

	buf := make([]byte, 16)
	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := first.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(buf[:n]))

	_, err = second.Write([]byte("waiting\n"))
	require.NoError(t, err)
	require.NoError(t, second.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, err = second.Read(buf)
	assert.Error(t, err)
}
