package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/hrdiansyah/serena/domain/repositories"
)

// Service is a scripted DialogueService for tests and local development.
// Each Connect call replays the script as the event stream; utterances sent
// with SendText additionally produce one scripted agent reply each.
type Service struct {
	// Script is emitted in order as soon as the session connects.
	Script []repositories.DialogueEvent

	// Replies are returned one by one for successive SendText calls.
	Replies []string

	ConnectErr error

	mu   sync.Mutex
	last *Session
}

var _ repositories.DialogueService = (*Service)(nil)

func (s *Service) Connect(ctx context.Context) (repositories.DialogueSession, error) {
	if s.ConnectErr != nil {
		return nil, s.ConnectErr
	}

	session := &Session{
		events:  make(chan repositories.DialogueEvent, len(s.Script)+2*len(s.Replies)+1),
		replies: append([]string(nil), s.Replies...),
	}
	for _, event := range s.Script {
		session.events <- event
	}
	if len(session.replies) == 0 {
		close(session.events)
		session.closed = true
	}

	s.mu.Lock()
	s.last = session
	s.mu.Unlock()
	return session, nil
}

// LastSession returns the most recently connected session.
func (s *Service) LastSession() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Session is the scripted session handed out by Service.
type Session struct {
	mu      sync.Mutex
	events  chan repositories.DialogueEvent
	replies []string
	sent    []string
	audio   [][]byte
	closed  bool
}

var _ repositories.DialogueSession = (*Session)(nil)

func (s *Session) Events() <-chan repositories.DialogueEvent {
	return s.events
}

// SendText records the utterance and emits the matching user event followed
// by the next scripted agent reply.
func (s *Session) SendText(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("session is closed")
	}
	s.sent = append(s.sent, text)

	s.events <- repositories.DialogueEvent{
		Type:       repositories.DialogueEventUserUtterance,
		Transcript: text,
	}

	if len(s.replies) == 0 {
		return fmt.Errorf("no scripted reply left")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	s.events <- repositories.DialogueEvent{
		Type:       repositories.DialogueEventAgentUtterance,
		Transcript: reply,
	}

	if len(s.replies) == 0 {
		close(s.events)
		s.closed = true
	}
	return nil
}

func (s *Session) SendAudio(ctx context.Context, chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = append(s.audio, chunk)
	return nil
}

// Audio returns the chunks submitted via SendAudio.
func (s *Session) Audio() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.audio...)
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		close(s.events)
		s.closed = true
	}
	return nil
}

// Sent returns the utterances submitted via SendText.
func (s *Session) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}
