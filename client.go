package khub

// Client is a hub link from the connecting side: a single maintained session
// carrying a stream of outbound messages and inbound frames. There is no
// request/response pairing; replies arrive through the IoHandler.
type Client interface {
	Dial(addr string) error
	Close()
	Disconnect()
	SetSplitter(Splitter)
	SetIoHandler(h IoHandler)
	Send(m *Message) error
	GetSession() *IoSession
	IsClosed() bool
	IsConnected() bool
}
