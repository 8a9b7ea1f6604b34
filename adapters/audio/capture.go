package audio

import (
	"encoding/binary"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hrdiansyah/serena/domain/repositories"
)

const (
	// DefaultSampleRate matches what the dialogue service expects on its
	// realtime input.
	DefaultSampleRate = 16000

	frameQueueSize = 32
)

// Source produces raw PCM16 frames from some input device. Implementations
// wrap actual capture hardware; tests use a scripted source.
type Source interface {
	// Open starts capture and returns a channel of raw frames. The channel
	// is closed when the source stops.
	Open(sampleRate int) (<-chan []byte, error)
	Close() error
}

// Capture adapts a Source to the AudioCapture interface with a bounded
// frame queue. When the consumer lags, the oldest frame is dropped so live
// audio never backs up.
type Capture struct {
	source     Source
	sampleRate int
	logger     *zap.Logger

	mu      sync.Mutex
	frames  chan repositories.AudioFrame
	done    chan struct{}
	running bool
}

var _ repositories.AudioCapture = (*Capture)(nil)

// NewCapture creates a capture pipeline over the given source.
func NewCapture(source Source, sampleRate int, logger *zap.Logger) *Capture {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Capture{
		source:     source,
		sampleRate: sampleRate,
		logger:     logger,
	}
}

// Start opens the source and begins forwarding frames.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("capture already running")
	}

	raw, err := c.source.Open(c.sampleRate)
	if err != nil {
		return fmt.Errorf("failed to open audio source: %w", err)
	}

	c.frames = make(chan repositories.AudioFrame, frameQueueSize)
	c.done = make(chan struct{})
	c.running = true

	go c.pump(raw, c.frames, c.done)

	c.logger.Info("Audio capture started", zap.Int("sample_rate", c.sampleRate))
	return nil
}

// Stop closes the source; the frame channel drains and closes after it.
func (c *Capture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	c.running = false
	close(c.done)

	if err := c.source.Close(); err != nil {
		c.logger.Warn("Failed to close audio source", zap.Error(err))
	}
	c.logger.Info("Audio capture stopped")
}

// Frames returns the capture output channel. Valid after Start.
func (c *Capture) Frames() <-chan repositories.AudioFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

func (c *Capture) pump(raw <-chan []byte, frames chan repositories.AudioFrame, done chan struct{}) {
	defer close(frames)

	dropped := 0
	for {
		select {
		case <-done:
			return
		case data, ok := <-raw:
			if !ok {
				return
			}
			frame := repositories.AudioFrame{Data: data, SampleRate: c.sampleRate}
			select {
			case frames <- frame:
			default:
				// Queue full. Drop the oldest frame to keep latency bounded.
				select {
				case <-frames:
					dropped++
					if dropped%100 == 1 {
						c.logger.Warn("Dropping audio frames, consumer is lagging",
							zap.Int("dropped", dropped))
					}
				default:
				}
				select {
				case frames <- frame:
				default:
				}
			}
		}
	}
}

// PeakAmplitude returns the loudest absolute sample in a PCM16 little-endian
// buffer. Used for microphone self tests.
func PeakAmplitude(pcm []byte) int {
	peak := 0
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := int(int16(binary.LittleEndian.Uint16(pcm[i:])))
		if sample < 0 {
			sample = -sample
		}
		if sample > peak {
			peak = sample
		}
	}
	return peak
}
