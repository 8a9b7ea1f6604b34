package dialogue

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/hrdiansyah/serena/domain/repositories"
)

const (
	defaultLiveModel = "gemini-2.0-flash-live-001"
	defaultVoice     = "Aoede"

	receptionistInstructions = "You are a friendly hotel receptionist. " +
		"Your job is to collect from the guest: name, check-in and check-out dates, " +
		"preferred room type, number of guests, and any special requests. " +
		"Confirm the reservation details succinctly."

	inputAudioMIMEType = "audio/pcm;rate=16000"
)

// GeminiLiveService opens realtime dialogue sessions against the Gemini Live
// API. The hosted service owns speech recognition, dialogue management and
// synthesis; this adapter only maps its message stream onto DialogueEvents.
type GeminiLiveService struct {
	client *genai.Client
	logger *zap.Logger
	model  string
	voice  string
}

var _ repositories.DialogueService = (*GeminiLiveService)(nil)

// NewGeminiLiveService creates the dialogue service.
func NewGeminiLiveService(ctx context.Context, apiKey string, logger *zap.Logger) (*GeminiLiveService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiLiveService{
		client: client,
		logger: logger,
		model:  defaultLiveModel,
		voice:  defaultVoice,
	}, nil
}

// Connect opens one live session with audio responses and transcription of
// both directions enabled.
func (s *GeminiLiveService) Connect(ctx context.Context) (repositories.DialogueSession, error) {
	config := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SystemInstruction:  genai.NewContentFromText(receptionistInstructions, genai.RoleUser),
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: s.voice},
			},
		},
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
	}

	live, err := s.client.Live.Connect(ctx, s.model, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect live session: %w", err)
	}

	session := &geminiLiveSession{
		live:   live,
		logger: s.logger,
		events: make(chan repositories.DialogueEvent, 16),
	}
	go session.receiveLoop()

	s.logger.Info("Live dialogue session connected", zap.String("model", s.model))

	return session, nil
}

// geminiLiveSession adapts the live message stream. Transcription fragments
// arrive incrementally; they are buffered per direction and emitted as one
// event per completed utterance.
type geminiLiveSession struct {
	live   *genai.Session
	logger *zap.Logger
	events chan repositories.DialogueEvent

	userBuf  strings.Builder
	agentBuf strings.Builder

	closeOnce sync.Once
}

var _ repositories.DialogueSession = (*geminiLiveSession)(nil)

func (s *geminiLiveSession) Events() <-chan repositories.DialogueEvent {
	return s.events
}

func (s *geminiLiveSession) SendText(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text cannot be empty")
	}
	err := s.live.SendClientContent(genai.LiveClientContentInput{
		Turns:        []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		TurnComplete: genai.Ptr(true),
	})
	if err != nil {
		return fmt.Errorf("failed to send text turn: %w", err)
	}
	return nil
}

func (s *geminiLiveSession) SendAudio(ctx context.Context, chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	err := s.live.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{Data: chunk, MIMEType: inputAudioMIMEType},
	})
	if err != nil {
		return fmt.Errorf("failed to send audio chunk: %w", err)
	}
	return nil
}

func (s *geminiLiveSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.live.Close()
	})
	return err
}

// receiveLoop pumps live server messages into the event channel until the
// remote side closes the stream.
func (s *geminiLiveSession) receiveLoop() {
	defer close(s.events)

	for {
		message, err := s.live.Receive()
		if err != nil {
			s.flushUser()
			s.flushAgent()
			s.logger.Info("Live dialogue stream ended", zap.Error(err))
			return
		}

		content := message.ServerContent
		if content == nil {
			continue
		}

		if content.InputTranscription != nil {
			s.userBuf.WriteString(content.InputTranscription.Text)
			if content.InputTranscription.Finished {
				s.flushUser()
			}
		}

		if content.OutputTranscription != nil {
			s.agentBuf.WriteString(content.OutputTranscription.Text)
		}

		if content.Interrupted {
			// The guest spoke over the agent; the partial reply is still a
			// completed agent turn from the transcript's point of view.
			s.flushAgent()
		}

		if content.TurnComplete {
			s.flushUser()
			s.flushAgent()
		}
	}
}

func (s *geminiLiveSession) flushUser() {
	text := strings.TrimSpace(s.userBuf.String())
	s.userBuf.Reset()
	if text == "" {
		return
	}
	s.events <- repositories.DialogueEvent{
		Type:       repositories.DialogueEventUserUtterance,
		Transcript: text,
	}
}

func (s *geminiLiveSession) flushAgent() {
	text := strings.TrimSpace(s.agentBuf.String())
	s.agentBuf.Reset()
	if text == "" {
		return
	}
	s.events <- repositories.DialogueEvent{
		Type:       repositories.DialogueEventAgentUtterance,
		Transcript: text,
	}
}
