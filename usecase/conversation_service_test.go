package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	dialoguemock "github.com/hrdiansyah/serena/adapters/dialogue/mock"
	"github.com/hrdiansyah/serena/domain/entities"
	"github.com/hrdiansyah/serena/domain/repositories"
)

type stubExtractor struct {
	record     *entities.ReservationRecord
	err        error
	transcript string
}

func (s *stubExtractor) Extract(ctx context.Context, transcript string) (*entities.ReservationRecord, error) {
	s.transcript = transcript
	if s.err != nil {
		return nil, s.err
	}
	return s.record, nil
}

type stubStore struct {
	records []entities.ReservationRecord
	loadErr error
	addErr  error
}

func (s *stubStore) Load() ([]entities.ReservationRecord, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.records, nil
}

func (s *stubStore) Append(record entities.ReservationRecord) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.records = append(s.records, record)
	return nil
}

func sampleRecord() *entities.ReservationRecord {
	return &entities.ReservationRecord{
		Available:      true,
		CheckInDate:    "2025-11-01",
		CheckoutDate:   "2025-11-03",
		NumberOfGuests: 2,
		GuestName:      "Alice",
		RoomType:       "deluxe",
	}
}

func newTestService(t *testing.T, dialogue repositories.DialogueService, extractor *stubExtractor, store *stubStore) *ConversationService {
	t.Helper()
	transcriptFile := filepath.Join(t.TempDir(), "conversation.txt")
	return NewConversationService(dialogue, extractor, store, nil, nil, transcriptFile, zaptest.NewLogger(t))
}

func TestConverseLogsBothSides(t *testing.T) {
	dialogue := &dialoguemock.Service{Replies: []string{"Certainly, what dates?", "Booked!"}}
	extractor := &stubExtractor{record: sampleRecord()}
	store := &stubStore{}
	service := newTestService(t, dialogue, extractor, store)

	conversation, err := service.StartSession(context.Background())
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	reply, err := conversation.Converse(context.Background(), "I want a room")
	if err != nil {
		t.Fatalf("Converse failed: %v", err)
	}
	if reply != "Certainly, what dates?" {
		t.Errorf("Unexpected reply: %q", reply)
	}

	entries := conversation.Transcript().Entries()
	// SYSTEM start, USER, RECEPTIONIST
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[1].Speaker != entities.SpeakerUser || entries[1].Message != "I want a room" {
		t.Errorf("Unexpected user entry: %+v", entries[1])
	}
	if entries[2].Speaker != entities.SpeakerReceptionist {
		t.Errorf("Unexpected agent entry: %+v", entries[2])
	}
}

func TestFinishExtractsAndStores(t *testing.T) {
	dialogue := &dialoguemock.Service{Replies: []string{"Booked!"}}
	extractor := &stubExtractor{record: sampleRecord()}
	store := &stubStore{}
	service := newTestService(t, dialogue, extractor, store)

	conversation, err := service.StartSession(context.Background())
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if _, err := conversation.Converse(context.Background(), "Book me a deluxe room"); err != nil {
		t.Fatalf("Converse failed: %v", err)
	}

	result, err := conversation.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	if result.Reservation == nil {
		t.Fatal("Expected a reservation in the result")
	}
	if result.Reservation.GuestName != "Alice" {
		t.Errorf("Unexpected guest: %q", result.Reservation.GuestName)
	}
	if len(store.records) != 1 {
		t.Errorf("Expected 1 stored record, got %d", len(store.records))
	}
	if extractor.transcript == "" {
		t.Error("Extractor should have received the transcript text")
	}
	if result.TranscriptPath == "" || result.JSONPath == "" {
		t.Errorf("Expected transcript paths, got %+v", result)
	}
}

func TestFinishWithoutGuestSkipsExtraction(t *testing.T) {
	dialogue := &dialoguemock.Service{}
	extractor := &stubExtractor{record: sampleRecord()}
	store := &stubStore{}
	service := newTestService(t, dialogue, extractor, store)

	conversation, err := service.StartSession(context.Background())
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	result, err := conversation.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	if result.Reservation != nil {
		t.Error("Expected no reservation for a silent session")
	}
	if extractor.transcript != "" {
		t.Error("Extractor must not run for a silent session")
	}
	if len(store.records) != 0 {
		t.Error("Store must stay empty for a silent session")
	}
}

func TestFinishTwiceFails(t *testing.T) {
	dialogue := &dialoguemock.Service{}
	service := newTestService(t, dialogue, &stubExtractor{record: sampleRecord()}, &stubStore{})

	conversation, err := service.StartSession(context.Background())
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if _, err := conversation.Finish(context.Background()); err != nil {
		t.Fatalf("First Finish failed: %v", err)
	}
	if _, err := conversation.Finish(context.Background()); err == nil {
		t.Error("Expected error on second Finish")
	}
}

func TestFinishPropagatesExtractionError(t *testing.T) {
	dialogue := &dialoguemock.Service{Replies: []string{"Booked!"}}
	extractor := &stubExtractor{err: errors.New("model unavailable")}
	store := &stubStore{}
	service := newTestService(t, dialogue, extractor, store)

	conversation, err := service.StartSession(context.Background())
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if _, err := conversation.Converse(context.Background(), "Book me a room"); err != nil {
		t.Fatalf("Converse failed: %v", err)
	}

	if _, err := conversation.Finish(context.Background()); err == nil {
		t.Error("Expected extraction error to propagate")
	}
	if len(store.records) != 0 {
		t.Error("Nothing should be stored when extraction fails")
	}
}

func TestRunConsumesScriptedSession(t *testing.T) {
	dialogue := &dialoguemock.Service{Script: []repositories.DialogueEvent{
		{Type: repositories.DialogueEventAgentUtterance, Transcript: "Welcome to the hotel, how can I help?"},
		{Type: repositories.DialogueEventUserUtterance, Transcript: "A single room for tomorrow please"},
		{Type: repositories.DialogueEventAgentUtterance, Transcript: "Done, see you tomorrow"},
	}}
	extractor := &stubExtractor{record: sampleRecord()}
	store := &stubStore{}
	service := newTestService(t, dialogue, extractor, store)

	result, err := service.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Reservation == nil {
		t.Fatal("Expected a reservation")
	}
	if len(store.records) != 1 {
		t.Errorf("Expected 1 stored record, got %d", len(store.records))
	}
}

type stubCapture struct {
	mu      sync.Mutex
	frames  chan repositories.AudioFrame
	stopped bool
}

func (s *stubCapture) Start() error { return nil }

func (s *stubCapture) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

func (s *stubCapture) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *stubCapture) Frames() <-chan repositories.AudioFrame { return s.frames }

func TestAttachCaptureForwardsFrames(t *testing.T) {
	dialogue := &dialoguemock.Service{Replies: []string{"ignored"}}
	service := newTestService(t, dialogue, &stubExtractor{record: sampleRecord()}, &stubStore{})

	conversation, err := service.StartSession(context.Background())
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	capture := &stubCapture{frames: make(chan repositories.AudioFrame, 2)}
	capture.frames <- repositories.AudioFrame{Data: []byte{1, 2}, SampleRate: 16000}
	capture.frames <- repositories.AudioFrame{Data: []byte{3, 4}, SampleRate: 16000}
	close(capture.frames)

	if err := conversation.AttachCapture(context.Background(), capture); err != nil {
		t.Fatalf("AttachCapture failed: %v", err)
	}

	session, ok := conversation.session.(*dialoguemock.Session)
	if !ok {
		t.Fatal("Expected mock session")
	}

	deadline := time.After(2 * time.Second)
	for {
		if len(session.Audio()) == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("Expected 2 forwarded chunks, got %d", len(session.Audio()))
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRunWithConfiguredCapture(t *testing.T) {
	dialogue := &dialoguemock.Service{Script: []repositories.DialogueEvent{
		{Type: repositories.DialogueEventUserUtterance, Transcript: "A room for tonight"},
		{Type: repositories.DialogueEventAgentUtterance, Transcript: "Of course, one moment"},
	}}
	extractor := &stubExtractor{record: sampleRecord()}
	store := &stubStore{}

	capture := &stubCapture{frames: make(chan repositories.AudioFrame, 2)}
	capture.frames <- repositories.AudioFrame{Data: []byte{1, 2}, SampleRate: 16000}
	capture.frames <- repositories.AudioFrame{Data: []byte{3, 4}, SampleRate: 16000}
	close(capture.frames)

	transcriptFile := filepath.Join(t.TempDir(), "conversation.txt")
	service := NewConversationService(dialogue, extractor, store, nil, capture, transcriptFile, zaptest.NewLogger(t))

	result, err := service.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Reservation == nil {
		t.Fatal("Expected a reservation")
	}

	deadline := time.After(2 * time.Second)
	for {
		session := dialogue.LastSession()
		if capture.Stopped() && session != nil && len(session.Audio()) == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("Capture not drained: stopped=%v", capture.Stopped())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestStartSessionConnectError(t *testing.T) {
	dialogue := &dialoguemock.Service{ConnectErr: errors.New("network down")}
	service := newTestService(t, dialogue, &stubExtractor{}, &stubStore{})

	if _, err := service.StartSession(context.Background()); err == nil {
		t.Error("Expected connect error to propagate")
	}
}
