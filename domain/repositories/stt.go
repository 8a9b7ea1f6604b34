package repositories

import "context"

// SpeechToText abstracts speech recognition services used on the device
// ingress path, where audio arrives outside the hosted dialogue stream.
type SpeechToText interface {
	// TranscribeAudio converts a complete audio buffer to text.
	TranscribeAudio(ctx context.Context, audioData []byte, config AudioConfig) (string, error)
	// InitTranscribeStreaming initializes a streaming transcription session.
	InitTranscribeStreaming(ctx context.Context, config AudioConfig) (SpeechToTextStreaming, error)
}

// AudioConfig represents audio configuration for speech recognition.
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}

// SpeechToTextStreaming is one in-progress streaming transcription.
type SpeechToTextStreaming interface {
	Stream(data []byte) error
	End() (string, error)
}
