package audio

import (
	"encoding/binary"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// scriptedSource replays fixed frames.
type scriptedSource struct {
	frames  [][]byte
	openErr error
	closed  bool
}

func (s *scriptedSource) Open(sampleRate int) (<-chan []byte, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	out := make(chan []byte, len(s.frames))
	for _, frame := range s.frames {
		out <- frame
	}
	close(out)
	return out, nil
}

func (s *scriptedSource) Close() error {
	s.closed = true
	return nil
}

func TestCaptureForwardsFrames(t *testing.T) {
	source := &scriptedSource{frames: [][]byte{{1, 2}, {3, 4}, {5, 6}}}
	capture := NewCapture(source, 16000, zaptest.NewLogger(t))

	if err := capture.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer capture.Stop()

	var got [][]byte
	timeout := time.After(2 * time.Second)
	for {
		select {
		case frame, ok := <-capture.Frames():
			if !ok {
				if len(got) != 3 {
					t.Fatalf("Expected 3 frames, got %d", len(got))
				}
				if got[0][0] != 1 || got[2][1] != 6 {
					t.Errorf("Frames out of order: %v", got)
				}
				return
			}
			if frame.SampleRate != 16000 {
				t.Errorf("Expected sample rate 16000, got %d", frame.SampleRate)
			}
			got = append(got, frame.Data)
		case <-timeout:
			t.Fatal("Timed out waiting for frames")
		}
	}
}

func TestCaptureDoubleStartFails(t *testing.T) {
	capture := NewCapture(&scriptedSource{}, 16000, zaptest.NewLogger(t))

	if err := capture.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer capture.Stop()

	if err := capture.Start(); err == nil {
		t.Error("Expected error on second Start")
	}
}

func TestStopClosesSource(t *testing.T) {
	source := &scriptedSource{}
	capture := NewCapture(source, 0, zaptest.NewLogger(t))

	if err := capture.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	capture.Stop()

	if !source.closed {
		t.Error("Expected source to be closed after Stop")
	}
}

func TestPeakAmplitude(t *testing.T) {
	silence := make([]byte, 8)
	if peak := PeakAmplitude(silence); peak != 0 {
		t.Errorf("Expected zero peak for silence, got %d", peak)
	}

	loud := make([]byte, 4)
	negSample := int16(-12000)
	posSample := int16(8000)
	binary.LittleEndian.PutUint16(loud[0:], uint16(negSample))
	binary.LittleEndian.PutUint16(loud[2:], uint16(posSample))
	if peak := PeakAmplitude(loud); peak != 12000 {
		t.Errorf("Expected peak 12000, got %d", peak)
	}
}
