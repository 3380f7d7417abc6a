package khub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	closed bool
}

func (c *stubClient) Dial(addr string) error { return nil }
func (c *stubClient) Close()                 { c.closed = true }
func (c *stubClient) Disconnect()            {}
func (c *stubClient) SetSplitter(Splitter)   {}
func (c *stubClient) SetIoHandler(IoHandler) {}
func (c *stubClient) Send(m *Message) error  { return nil }
func (c *stubClient) GetSession() *IoSession { return nil }
func (c *stubClient) IsClosed() bool         { return c.closed }
func (c *stubClient) IsConnected() bool      { return !c.closed }

type stubFactory struct {
	made int
}

func (f *stubFactory) NewClient() (Client, error) {
	f.made++
	return &stubClient{}, nil
}

func TestClientPoolReuse(t *testing.T) {
	factory := &stubFactory{}
	pool := NewClientPool(context.Background(), factory, ClientPoolConfig{
		IdleMin: 1,
		IdleMax: 2,
		Max:     2,
	})
	require.NoError(t, pool.Open())
	require.Equal(t, 1, factory.made)

	c := pool.Get()
	require.NoError(t, c.Send(nil))
	c.Close()

	// The freed client goes back to the pool instead of being replaced.
	c = pool.Get()
	require.NoError(t, c.Send(nil))
	assert.Equal(t, 1, factory.made)
	c.Close()

	pool.Close()
}

func TestClientPoolClosed(t *testing.T) {
	factory := &stubFactory{}
	pool := NewClientPool(context.Background(), factory, ClientPoolConfig{Max: 1})
	require.NoError(t, pool.Open())

	pool.Close()

	c := pool.Get()
	assert.ErrorIs(t, c.Send(nil), ErrClientPoolClosed)
	assert.True(t, c.IsClosed())

	// Closing an error client is harmless.
	c.Close()
}

func TestClientPoolDoubleCloseOfHandle(t *testing.T) {
	factory := &stubFactory{}
	pool := NewClientPool(context.Background(), factory, ClientPoolConfig{
		IdleMin: 1,
		IdleMax: 1,
		Max:     1,
	})
	require.NoError(t, pool.Open())
	defer pool.Close()

	c := pool.Get()
	c.Close()
	c.Close()

	assert.ErrorIs(t, c.Send(nil), ErrClientClosed)
}
