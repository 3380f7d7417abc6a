package khub

import "bytes"

// Splitter locates frame boundaries in a byte stream. It never interprets
// frame contents; parsing belongs to the layers above. Split returns the
// complete frames found at the front of data and the number of bytes
// consumed by them. Unconsumed bytes are an incomplete frame tail that the
// session stashes until the next read.
//
// The returned frames may alias data; the session copies them before they
// cross a goroutine boundary.
type Splitter interface {
	Split(data []byte) (frames [][]byte, consumed int)
}

// LineSplitter frames on '\n', the classic one-message-per-line hub wire
// format. The terminator is not part of the delivered frame; a trailing '\r'
// is stripped as well.
type LineSplitter struct{}

func (LineSplitter) Split(data []byte) (frames [][]byte, consumed int) {
	for {
		i := bytes.IndexByte(data[consumed:], '\n')
		if i < 0 {
			return frames, consumed
		}

		frame := data[consumed : consumed+i]
		if n := len(frame); n > 0 && frame[n-1] == '\r' {
			frame = frame[:n-1]
		}
		frames = append(frames, frame)
		consumed += i + 1
	}
}
