package entities

import "time"

// Speaker identifies who produced a transcript entry. The set is open; these
// are the labels the conversation driver emits.
type Speaker string

const (
	SpeakerSystem       Speaker = "SYSTEM"
	SpeakerUser         Speaker = "USER"
	SpeakerReceptionist Speaker = "RECEPTIONIST"
)

// Translatable reports whether entries from this speaker are eligible for
// translation enrichment. System bookkeeping entries never are.
func (s Speaker) Translatable() bool {
	return s == SpeakerUser || s == SpeakerReceptionist
}

// TranscriptEntry is one recorded conversational turn. Entries are immutable
// once created; the translation fields are either all present or all absent.
type TranscriptEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Speaker   Speaker   `json:"speaker"`
	Message   string    `json:"message"`

	Translated       *string `json:"translated,omitempty"`
	SourceLanguage   *string `json:"source_language,omitempty"`
	NeedsTranslation *bool   `json:"needs_translation,omitempty"`
}

// HasTranslation reports whether the entry carries translation metadata.
func (e TranscriptEntry) HasTranslation() bool {
	return e.Translated != nil && e.SourceLanguage != nil && e.NeedsTranslation != nil
}
