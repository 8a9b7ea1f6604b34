package repositories

import "context"

// TextToSpeech voices agent replies on the device ingress path.
type TextToSpeech interface {
	ConvertTextToSpeech(ctx context.Context, text string) (<-chan []byte, error)
}
