package repositories

import "context"

// DialogueEventType classifies events arriving from the hosted realtime
// conversational service.
type DialogueEventType string

const (
	// DialogueEventUserUtterance carries the completed transcription of one
	// guest utterance.
	DialogueEventUserUtterance DialogueEventType = "user_utterance"

	// DialogueEventAgentUtterance carries the completed transcription of one
	// receptionist (agent) reply.
	DialogueEventAgentUtterance DialogueEventType = "agent_utterance"
)

// DialogueEvent is one typed event from a dialogue session.
type DialogueEvent struct {
	Type       DialogueEventType
	Transcript string
}

// DialogueSession is one live bidirectional connection to the hosted
// conversational service. The service owns speech recognition, dialogue
// management and synthesis; this side only feeds input and consumes events.
type DialogueSession interface {
	// Events returns the ordered event stream for the session. The channel
	// is closed when the remote side ends the conversation.
	Events() <-chan DialogueEvent

	// SendText submits a completed guest utterance as text.
	SendText(ctx context.Context, text string) error

	// SendAudio streams a chunk of raw guest audio.
	SendAudio(ctx context.Context, chunk []byte) error

	Close() error
}

// DialogueService opens dialogue sessions.
type DialogueService interface {
	Connect(ctx context.Context) (DialogueSession, error)
}
