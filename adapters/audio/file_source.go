package audio

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// FileSource reads raw PCM16 little-endian audio from a file or named pipe.
// Pointing it at a fifo fed by an external recorder (arecord, sox) gives the
// server a local microphone without a hardware binding.
type FileSource struct {
	path string

	mu   sync.Mutex
	file *os.File
	done chan struct{}
}

var _ Source = (*FileSource)(nil)

// NewFileSource creates a source over the given path. The path is opened on
// Open, so a fifo may not exist yet at construction time.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Open starts reading 100ms frames from the path. The returned channel is
// closed when the input is exhausted or the source is closed.
func (s *FileSource) Open(sampleRate int) (<-chan []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		return nil, fmt.Errorf("audio source already open")
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio input: %w", err)
	}
	s.file = f
	s.done = make(chan struct{})

	// 100ms of PCM16 per frame.
	frameSize := sampleRate / 10 * 2
	frames := make(chan []byte)

	go readFrames(f, frameSize, frames, s.done)

	return frames, nil
}

// Close stops the reader and releases the input.
func (s *FileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	close(s.done)
	err := s.file.Close()
	s.file = nil
	s.done = nil
	return err
}

func readFrames(r io.Reader, frameSize int, frames chan<- []byte, done <-chan struct{}) {
	defer close(frames)

	for {
		buf := make([]byte, frameSize)
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			select {
			case frames <- buf[:n]:
			case <-done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}
