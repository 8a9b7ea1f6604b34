package stt

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/hrdiansyah/serena/domain/repositories"
)

var _ repositories.SpeechToText = &GoogleSpeechToText{}

func TestAudioEncoding(t *testing.T) {
	for _, name := range []string{"WAV", "LINEAR16", "FLAC", "MULAW", "OGG_OPUS", "WEBM_OPUS"} {
		if _, err := audioEncoding(name); err != nil {
			t.Errorf("audioEncoding(%q) returned error: %v", name, err)
		}
	}

	if _, err := audioEncoding("MP3"); err == nil {
		t.Error("Expected error for unsupported encoding")
	}
}

func TestMockTranscribeAudio(t *testing.T) {
	mock := NewMockSpeechToText(zaptest.NewLogger(t))

	config := repositories.AudioConfig{SampleRate: 16000, Encoding: "LINEAR16", Language: "en-US"}

	if _, err := mock.TranscribeAudio(context.Background(), nil, config); err == nil {
		t.Error("Expected error for empty audio")
	}

	text, err := mock.TranscribeAudio(context.Background(), make([]byte, 2000), config)
	if err != nil {
		t.Fatalf("TranscribeAudio failed: %v", err)
	}
	if text == "" {
		t.Error("Expected non-empty transcription")
	}
}

func TestMockStreamingRoundTrip(t *testing.T) {
	mock := NewMockSpeechToText(zaptest.NewLogger(t))

	stream, err := mock.InitTranscribeStreaming(context.Background(), repositories.AudioConfig{
		SampleRate: 16000, Encoding: "LINEAR16", Language: "en-US",
	})
	if err != nil {
		t.Fatalf("InitTranscribeStreaming failed: %v", err)
	}

	if err := stream.Stream(make([]byte, 12000)); err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	text, err := stream.End()
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if text == "" {
		t.Error("Expected non-empty transcription")
	}
}

func TestAwaitOutcomeDeliversBufferedResult(t *testing.T) {
	stream := &googleSpeechStream{
		ctx:     context.Background(),
		logger:  zaptest.NewLogger(t),
		outcome: make(chan transcriptionOutcome, 1),
	}
	stream.outcome <- transcriptionOutcome{text: "book a room"}

	// A buffered success must always win; run it repeatedly to catch any
	// reintroduced select race against a second channel.
	for i := 0; i < 50; i++ {
		text, err := stream.awaitOutcome()
		if err != nil {
			t.Fatalf("awaitOutcome failed: %v", err)
		}
		if text != "book a room" {
			t.Fatalf("Unexpected transcription: %q", text)
		}
		stream.outcome <- transcriptionOutcome{text: "book a room"}
	}
}

func TestAwaitOutcomePropagatesError(t *testing.T) {
	stream := &googleSpeechStream{
		ctx:     context.Background(),
		logger:  zaptest.NewLogger(t),
		outcome: make(chan transcriptionOutcome, 1),
	}
	stream.outcome <- transcriptionOutcome{err: context.DeadlineExceeded}

	if _, err := stream.awaitOutcome(); err == nil {
		t.Error("Expected receiver error to propagate")
	}
}

func TestAwaitOutcomeEmptyTranscription(t *testing.T) {
	stream := &googleSpeechStream{
		ctx:     context.Background(),
		logger:  zaptest.NewLogger(t),
		outcome: make(chan transcriptionOutcome, 1),
	}
	stream.outcome <- transcriptionOutcome{}

	if _, err := stream.awaitOutcome(); err == nil {
		t.Error("Expected error for empty transcription")
	}
}

func TestAwaitOutcomeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stream := &googleSpeechStream{
		ctx:     ctx,
		logger:  zaptest.NewLogger(t),
		outcome: make(chan transcriptionOutcome, 1),
	}

	if _, err := stream.awaitOutcome(); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestMockStreamingNoAudio(t *testing.T) {
	mock := NewMockSpeechToText(zaptest.NewLogger(t))

	stream, err := mock.InitTranscribeStreaming(context.Background(), repositories.AudioConfig{
		SampleRate: 16000, Encoding: "LINEAR16", Language: "en-US",
	})
	if err != nil {
		t.Fatalf("InitTranscribeStreaming failed: %v", err)
	}

	if _, err := stream.End(); err == nil {
		t.Error("Expected error when no audio was streamed")
	}
}
