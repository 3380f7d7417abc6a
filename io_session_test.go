package khub

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frameCollector struct {
	IoHandlerAdapter
	frames chan string
	errs   chan error
}

func newFrameCollector() *frameCollector {
	return &frameCollector{
		frames: make(chan string, 32),
		errs:   make(chan error, 8),
	}
}

func (h *frameCollector) OnFrame(s *IoSession, frame []byte) error {
	h.frames <- string(frame)
	return nil
}

func (h *frameCollector) OnError(s *IoSession, err error) {
	select {
	case h.errs <- err:
	default:
	}
}

func newPipeSession(t *testing.T, conf *IoConfig, handler IoHandler) (*IoSession, net.Conn) {
	t.Helper()

	if conf == nil {
		conf = NewIoConfig()
	}

	srv := NewIoServiceBase(conf)
	srv.SetIoHandler(handler)

	local, remote := net.Pipe()
	session := NewIoSession(context.Background(), srv, local)
	session.Open()

	t.Cleanup(func() {
		session.Close()
		remote.Close()
	})
	return session, remote
}

func waitFrame(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case frame := <-ch:
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return ""
	}
}

func waitError(t *testing.T, ch chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
		return nil
	}
}

func TestSessionFrameReassembly(t *testing.T) {
	handler := newFrameCollector()
	_, remote := newPipeSession(t, nil, handler)

	// One frame split across three reads, plus the start of the next.
	for _, chunk := range []string{"hel", "lo\nwor", "ld\n"} {
		_, err := remote.Write([]byte(chunk))
		require.NoError(t, err)
	}

	assert.Equal(t, "hello", waitFrame(t, handler.frames))
	assert.Equal(t, "world", waitFrame(t, handler.frames))
}

func TestSessionSendReachesPeer(t *testing.T) {
	handler := newFrameCollector()
	session, remote := newPipeSession(t, nil, handler)

	m := NewTextMessage("status update\n")
	require.NoError(t, session.Send(m))
	m.Decref()

	line, err := bufio.NewReader(remote).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "status update\n", line)

	assert.Eventually(t, func() bool {
		return session.PendingBytes() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSessionSendQueueBackpressure(t *testing.T) {
	conf := NewIoConfig()
	conf.MaxSendQueueBytes = 8
	conf.WriteTimeout = 50 * time.Millisecond

	handler := newFrameCollector()
	session, _ := newPipeSession(t, conf, handler)

	// Nobody reads the remote end, so nothing drains.
	m1 := NewTextMessage("123456")
	require.NoError(t, session.Send(m1))
	m1.Decref()

	m2 := NewTextMessage("789012")
	err := session.Send(m2)
	m2.Decref()
	assert.ErrorIs(t, err, ErrSendQueueFull)
}

func TestSessionSlowConsumerDisconnect(t *testing.T) {
	conf := NewIoConfig()
	conf.WriteTimeout = 50 * time.Millisecond

	handler := newFrameCollector()
	session, _ := newPipeSession(t, conf, handler)

	m := NewTextMessage("nobody is reading this\n")
	require.NoError(t, session.Send(m))
	m.Decref()

	assert.ErrorIs(t, waitError(t, handler.errs), ErrPeerDead)
	assert.Eventually(t, session.IsClosed, 2*time.Second, 10*time.Millisecond)
}

func TestSessionFloodDisconnect(t *testing.T) {
	conf := NewIoConfig()
	conf.FloodRate = 1
	conf.FloodBurst = 2

	handler := newFrameCollector()
	_, remote := newPipeSession(t, conf, handler)

	_, err := remote.Write([]byte("one\ntwo\nthree\nfour\n"))
	// The session may already be tearing down by the time the write lands.
	_ = err

	assert.ErrorIs(t, waitError(t, handler.errs), ErrFloodDetected)
}

func TestSessionFrameTooLarge(t *testing.T) {
	conf := NewIoConfig()
	conf.RecvBufferSize = 16
	conf.MaxFrameSize = 32

	handler := newFrameCollector()
	_, remote := newPipeSession(t, conf, handler)

	big := make([]byte, 64)
	for i := range big {
		big[i] = 'a'
	}
	_, err := remote.Write(big)
	_ = err

	assert.ErrorIs(t, waitError(t, handler.errs), ErrFrameTooLarge)
}

func TestSessionCloseReleasesQueuedMessages(t *testing.T) {
	conf := NewIoConfig()
	conf.WriteTimeout = time.Hour // keep the write loop parked on the pipe

	handler := newFrameCollector()
	session, _ := newPipeSession(t, conf, handler)

	m := NewTextMessage("never delivered\n")
	require.NoError(t, session.Send(m))

	session.Close()

	assert.Eventually(t, func() bool {
		return m.Refs() == 1
	}, 2*time.Second, 10*time.Millisecond)
	m.Decref()

	assert.ErrorIs(t, session.Send(NewTextMessage("late\n")), ErrSessionClosed)
}
