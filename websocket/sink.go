package websocket

import "sync"

// Sink is the outbound frame buffer of one connection.
// Push never blocks: a full or closed sink drops the frame.
type Sink struct {
	mu     sync.Mutex
	frames chan []byte
	closed bool
}

func NewSink(size int) *Sink {
	return &Sink{frames: make(chan []byte, size)}
}

func (s *Sink) Push(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.frames <- frame:
		return true
	default:
		return false
	}
}

// Frames is drained by the write pump until Close.
func (s *Sink) Frames() <-chan []byte {
	return s.frames
}

func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.frames)
}
