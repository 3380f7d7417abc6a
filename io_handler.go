package khub

// IoHandler receives session lifecycle and inbound frame events. Frames are
// opaque byte slices owned by the handler once delivered.
type IoHandler interface {
	OnConnected(*IoSession) error
	OnDisconnected(*IoSession)
	OnIdle(*IoSession) error
	OnError(*IoSession, error)
	OnFrame(*IoSession, []byte) error
}
