package repositories

// AudioFrame is one chunk of captured PCM audio.
type AudioFrame struct {
	Data       []byte
	SampleRate int
}

// AudioCapture abstracts a local audio input with basic queueing. It is a
// thin device wrapper; the capture device itself lives behind it.
type AudioCapture interface {
	Start() error
	Stop()
	// Frames returns the stream of captured frames. The channel is closed
	// when capture stops.
	Frames() <-chan AudioFrame
}
