package khub

import "time"

type IoConfig struct {
	// RecvBufferSize is the size of the per-session read buffer.
	RecvBufferSize int

	// RecvQueueSize is the depth of the inbound frame channel between the
	// read loop and the handler loop.
	RecvQueueSize int

	// MaxFrameSize bounds an unterminated frame tail. A peer exceeding it
	// is disconnected instead of growing the recv buffer without limit.
	MaxFrameSize int

	// MaxSendQueueBytes caps pending (unflushed) outbound bytes per
	// session; Send fails with ErrSendQueueFull beyond it. Zero disables
	// the cap.
	MaxSendQueueBytes int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// FloodRate and FloodBurst limit inbound frames per session, in frames
	// per second. A zero rate disables flood protection.
	FloodRate  float64
	FloodBurst int
}

func NewIoConfig() *IoConfig {
	return &IoConfig{
		RecvBufferSize:    4096,
		RecvQueueSize:     16,
		MaxFrameSize:      64 * 1024,
		MaxSendQueueBytes: 256 * 1024,
	}
}
