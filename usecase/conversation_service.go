package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hrdiansyah/serena/domain/entities"
	"github.com/hrdiansyah/serena/domain/repositories"
	"github.com/hrdiansyah/serena/internal/transcript"
)

const (
	sessionStartMessage = "Conversation session started"
	sessionEndMessage   = "Conversation session ended"
)

// ConversationService orchestrates reservation conversations: it drives the
// dialogue session, keeps the transcript, and turns finished conversations
// into reservation records.
type ConversationService struct {
	dialogue          repositories.DialogueService
	extractor         repositories.ReservationExtractor
	store             repositories.ReservationStore
	translatorFactory transcript.TranslatorFactory
	capture           repositories.AudioCapture
	transcriptFile    string
	logger            *zap.Logger
}

// ConversationResult is what one finished session produced.
type ConversationResult struct {
	Reservation    *entities.ReservationRecord
	TranscriptPath string
	BilingualPath  string
	JSONPath       string
	Transcript     string
}

// NewConversationService creates a new conversation service. A nil capture
// disables local microphone input for hands-free sessions.
func NewConversationService(
	dialogue repositories.DialogueService,
	extractor repositories.ReservationExtractor,
	store repositories.ReservationStore,
	translatorFactory transcript.TranslatorFactory,
	capture repositories.AudioCapture,
	transcriptFile string,
	logger *zap.Logger,
) *ConversationService {
	return &ConversationService{
		dialogue:          dialogue,
		extractor:         extractor,
		store:             store,
		translatorFactory: translatorFactory,
		capture:           capture,
		transcriptFile:    transcriptFile,
		logger:            logger,
	}
}

// StartSession connects a dialogue session and opens a fresh transcript.
func (s *ConversationService) StartSession(ctx context.Context) (*ActiveConversation, error) {
	session, err := s.dialogue.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start dialogue session: %w", err)
	}

	transcriptLogger := transcript.NewLogger(s.transcriptFile, s.translatorFactory, s.logger)
	if err := transcriptLogger.AddEntry(ctx, entities.SpeakerSystem, sessionStartMessage); err != nil {
		s.logger.Warn("Failed to record session start", zap.Error(err))
	}

	s.logger.Info("Conversation session started",
		zap.String("transcript", transcriptLogger.Filename()))

	return &ActiveConversation{
		service:    s,
		session:    session,
		transcript: transcriptLogger,
	}, nil
}

// Run drives one complete hands-free session: it streams local microphone
// audio when capture is configured and consumes dialogue events until the
// remote side ends the conversation, then finalizes.
func (s *ConversationService) Run(ctx context.Context) (*ConversationResult, error) {
	conversation, err := s.StartSession(ctx)
	if err != nil {
		return nil, err
	}

	captureCtx, stopCapture := context.WithCancel(ctx)
	defer stopCapture()
	if s.capture != nil {
		if err := conversation.AttachCapture(captureCtx, s.capture); err != nil {
			s.logger.Warn("Microphone unavailable for this session", zap.Error(err))
		}
	}

	for {
		select {
		case <-ctx.Done():
			conversation.session.Close()
			return conversation.Finish(context.WithoutCancel(ctx))
		case event, ok := <-conversation.session.Events():
			if !ok {
				stopCapture()
				return conversation.Finish(ctx)
			}
			conversation.recordEvent(ctx, event)
		}
	}
}

// ActiveConversation is one in-flight session. It is not safe for
// concurrent use; the websocket hub serializes access per connection.
type ActiveConversation struct {
	service    *ConversationService
	session    repositories.DialogueSession
	transcript *transcript.Logger
	finished   bool
}

// Transcript exposes the session transcript logger.
func (c *ActiveConversation) Transcript() *transcript.Logger {
	return c.transcript
}

// SendAudio forwards one chunk of guest audio to the dialogue session.
func (c *ActiveConversation) SendAudio(ctx context.Context, chunk []byte) error {
	return c.session.SendAudio(ctx, chunk)
}

// AttachCapture streams microphone frames into the dialogue session until
// the capture stops or the context is cancelled. Used for hands-free
// sessions where the server host has a local microphone.
func (c *ActiveConversation) AttachCapture(ctx context.Context, capture repositories.AudioCapture) error {
	if err := capture.Start(); err != nil {
		return fmt.Errorf("failed to start audio capture: %w", err)
	}

	go func() {
		defer capture.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case frame, ok := <-capture.Frames():
				if !ok {
					return
				}
				if err := c.session.SendAudio(ctx, frame.Data); err != nil {
					c.service.logger.Warn("Failed to forward captured audio", zap.Error(err))
					return
				}
			}
		}
	}()

	return nil
}

// Converse sends one guest utterance and waits for the agent's reply. Both
// sides of the exchange are logged to the transcript.
func (c *ActiveConversation) Converse(ctx context.Context, userText string) (string, error) {
	if err := c.transcript.AddEntry(ctx, entities.SpeakerUser, userText); err != nil {
		return "", fmt.Errorf("failed to log user utterance: %w", err)
	}

	if err := c.session.SendText(ctx, userText); err != nil {
		return "", fmt.Errorf("failed to send utterance: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case event, ok := <-c.session.Events():
			if !ok {
				return "", fmt.Errorf("dialogue session ended before reply")
			}
			if event.Type == repositories.DialogueEventAgentUtterance {
				if err := c.transcript.AddEntry(ctx, entities.SpeakerReceptionist, event.Transcript); err != nil {
					return "", fmt.Errorf("failed to log agent reply: %w", err)
				}
				return event.Transcript, nil
			}
			// User echoes from the live transcription are already logged
			// on the text path; skip them here.
			if event.Type == repositories.DialogueEventUserUtterance && event.Transcript != userText {
				c.recordEvent(ctx, event)
			}
		}
	}
}

// Finish closes the session, persists the transcript, and extracts a
// reservation if the guest actually said anything.
func (c *ActiveConversation) Finish(ctx context.Context) (*ConversationResult, error) {
	if c.finished {
		return nil, fmt.Errorf("conversation already finished")
	}
	c.finished = true

	c.session.Close()

	if err := c.transcript.AddEntry(ctx, entities.SpeakerSystem, sessionEndMessage); err != nil {
		c.service.logger.Warn("Failed to record session end", zap.Error(err))
	}

	textPath, bilingualPath, err := c.transcript.SaveFullTranscript()
	if err != nil {
		return nil, fmt.Errorf("failed to save transcript: %w", err)
	}
	jsonPath, err := c.transcript.SaveJSONTranscript()
	if err != nil {
		return nil, fmt.Errorf("failed to save JSON transcript: %w", err)
	}

	result := &ConversationResult{
		TranscriptPath: textPath,
		BilingualPath:  bilingualPath,
		JSONPath:       jsonPath,
		Transcript:     c.transcript.Text(),
	}

	if !c.hasUserEntries() {
		c.service.logger.Info("No guest utterances recorded, skipping extraction")
		return result, nil
	}

	record, err := c.service.extractor.Extract(ctx, result.Transcript)
	if err != nil {
		return nil, fmt.Errorf("failed to extract reservation: %w", err)
	}

	if err := c.service.store.Append(*record); err != nil {
		return nil, fmt.Errorf("failed to store reservation: %w", err)
	}

	result.Reservation = record
	c.service.logger.Info("Conversation finished",
		zap.String("guest", record.GuestName),
		zap.String("transcript", textPath))

	return result, nil
}

func (c *ActiveConversation) recordEvent(ctx context.Context, event repositories.DialogueEvent) {
	var speaker entities.Speaker
	switch event.Type {
	case repositories.DialogueEventUserUtterance:
		speaker = entities.SpeakerUser
	case repositories.DialogueEventAgentUtterance:
		speaker = entities.SpeakerReceptionist
	default:
		return
	}
	if err := c.transcript.AddEntry(ctx, speaker, event.Transcript); err != nil {
		c.service.logger.Warn("Failed to log dialogue event", zap.Error(err))
	}
}

func (c *ActiveConversation) hasUserEntries() bool {
	for _, entry := range c.transcript.Entries() {
		if entry.Speaker == entities.SpeakerUser {
			return true
		}
	}
	return false
}
