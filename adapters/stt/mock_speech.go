package stt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hrdiansyah/serena/domain/repositories"
)

// MockSpeechToText is a scripted recognizer for tests and local development.
// Longer audio buffers stand in for longer guest utterances.
type MockSpeechToText struct {
	logger *zap.Logger
}

// MockSpeechToTextStream accumulates mock audio and produces a canned
// transcription on End.
type MockSpeechToTextStream struct {
	logger        *zap.Logger
	audioReceived bool
	transcription string
}

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) repositories.SpeechToText {
	return &MockSpeechToText{
		logger: logger,
	}
}

// InitTranscribeStreaming creates a new mock streaming session
func (s *MockSpeechToText) InitTranscribeStreaming(ctx context.Context, config repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	s.logger.Info("Initializing mock streaming transcription",
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding),
		zap.String("language", config.Language))

	return &MockSpeechToTextStream{
		logger: s.logger,
	}, nil
}

// Stream implements mock streaming audio processing
func (m *MockSpeechToTextStream) Stream(data []byte) error {
	m.logger.Debug("Processing mock audio chunk", zap.Int("size", len(data)))

	if len(data) > 0 {
		m.audioReceived = true
		m.transcription = cannedTranscription(len(data))
	}

	return nil
}

// End returns the mock transcription result
func (m *MockSpeechToTextStream) End() (string, error) {
	m.logger.Info("Ending mock transcription stream", zap.String("result", m.transcription))

	if !m.audioReceived {
		return "", fmt.Errorf("no audio data received")
	}

	if m.transcription == "" {
		return "", fmt.Errorf("no speech detected in audio")
	}

	return m.transcription, nil
}

// TranscribeAudio implements repositories.SpeechToText
func (s *MockSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	s.logger.Info("Processing speech-to-text",
		zap.Int("audioSize", len(audioData)),
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding))

	if len(audioData) == 0 {
		return "", fmt.Errorf("no audio data received")
	}
	return cannedTranscription(len(audioData)), nil
}

func cannedTranscription(audioSize int) string {
	switch {
	case audioSize > 10000:
		return "I would like to book a deluxe room for two guests from November first to November third."
	case audioSize > 5000:
		return "Yes, that works for me, thank you."
	case audioSize > 1000:
		return "Hello, I want to make a reservation."
	default:
		return "Hello"
	}
}
