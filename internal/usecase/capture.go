package usecase

import (
	"errors"
	"io"
	"sync"

	"clinicalintel/internal/ports"
)

// captureSession buffers microphone chunks for one recording segment.
// Chunks are appended in arrival order and concatenated exactly once on
// finish; after that the session is terminal and a new one must be
// created for the next segment.
type captureSession struct {
	audio  ports.AudioSession
	cancel func()

	mu       sync.Mutex
	chunks   [][]byte
	readErr  error
	finished bool

	pumpDone chan struct{}
}

func newCaptureSession(audio ports.AudioSession, cancel func(), chunkSize int) *captureSession {
	if chunkSize < 256 {
		chunkSize = 4096
	}
	s := &captureSession{
		audio:    audio,
		cancel:   cancel,
		pumpDone: make(chan struct{}),
	}
	go s.pump(chunkSize)
	return s
}

// pump drains the device stream until EOF or error. Arrival order is
// preserved; chunks are never reordered or dropped.
func (s *captureSession) pump(chunkSize int) {
	defer close(s.pumpDone)

	buf := make([]byte, chunkSize)
	for {
		n, err := s.audio.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			s.mu.Lock()
			s.chunks = append(s.chunks, chunk)
			s.mu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.mu.Lock()
				s.readErr = err
				s.mu.Unlock()
			}
			return
		}
	}
}

// finish stops the device, waits for the pump to drain, and emits the
// single assembled payload. The buffer is cleared and the session becomes
// terminal; a second call returns nothing.
func (s *captureSession) finish() (payload []byte, stopErr error) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return nil, nil
	}
	s.finished = true
	s.mu.Unlock()

	stopErr = s.audio.Stop()
	<-s.pumpDone
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, chunk := range s.chunks {
		total += len(chunk)
	}
	payload = make([]byte, 0, total)
	for _, chunk := range s.chunks {
		payload = append(payload, chunk...)
	}
	s.chunks = nil

	if stopErr == nil {
		stopErr = s.readErr
	}
	return payload, stopErr
}

// discard tears the session down without assembling a payload.
func (s *captureSession) discard() {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.mu.Unlock()

	_ = s.audio.Stop()
	<-s.pumpDone
	s.cancel()

	s.mu.Lock()
	s.chunks = nil
	s.mu.Unlock()
}
