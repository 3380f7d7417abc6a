package khub

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterFunc(t *testing.T) {
	var got []byte
	w := WriterFunc(func(p []byte) int {
		got = append(got, p...)
		return len(p)
	})

	assert.Equal(t, 5, w.WriteNonblock([]byte("hello")))
	assert.Equal(t, "hello", string(got))
}

func TestConnWriterWouldBlock(t *testing.T) {
	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()

	w := NewConnWriter(local, 20*time.Millisecond)

	// No reader on the remote end: the deadline expires and the attempt
	// reads as would-block, not as a hard error.
	n := w.WriteNonblock([]byte("stuck"))
	assert.Equal(t, 0, n)
	assert.NoError(t, w.Err())
}

func TestConnWriterDelivers(t *testing.T) {
	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()

	go func() {
		buf := make([]byte, 16)
		remote.Read(buf)
	}()

	w := NewConnWriter(local, time.Second)
	n := w.WriteNonblock([]byte("payload"))
	assert.Equal(t, 7, n)
	assert.NoError(t, w.Err())
}

func TestConnWriterHardError(t *testing.T) {
	local, remote := net.Pipe()
	remote.Close()

	w := NewConnWriter(local, time.Second)
	n := w.WriteNonblock([]byte("dead"))
	require.LessOrEqual(t, n, 0)
	assert.Error(t, w.Err())

	// The error is sticky; later attempts short-circuit.
	assert.Equal(t, 0, w.WriteNonblock([]byte("more")))
}
