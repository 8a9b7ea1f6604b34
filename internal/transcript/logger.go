package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hrdiansyah/serena/domain/entities"
	"github.com/hrdiansyah/serena/domain/repositories"
)

const (
	lineTimeLayout = "15:04:05"

	bilingualBanner = "==================================================\n" +
		"BILINGUAL CONVERSATION TRANSCRIPT\n" +
		"==================================================\n"
)

// TranslatorFactory builds the translation adapter on demand. Keeping the
// construction behind a factory lets a failed initialization downgrade the
// logger to translation-disabled instead of failing it.
type TranslatorFactory func() (repositories.Translator, error)

// Logger records one conversation session. Every entry is appended to an
// in-memory sequence and to the transcript file as it arrives; readers can
// tail the file mid-session and see a valid prefix of the full transcript.
// When the session ends the accumulated record is exported as plain text,
// bilingual text and JSON.
//
// The logger is driven by a single event loop and does not support
// concurrent AddEntry calls.
type Logger struct {
	filename   string
	translator repositories.Translator
	entries    []entities.TranscriptEntry
	logger     *zap.Logger
}

// NewLogger creates a transcript logger for one session. An empty filename
// derives one from the current time. A nil factory disables translation;
// a factory that fails disables it too, with a warning, never an error.
func NewLogger(filename string, factory TranslatorFactory, logger *zap.Logger) *Logger {
	if filename == "" {
		filename = fmt.Sprintf("hotel_conversation_%s.txt", time.Now().Format("20060102_150405"))
	}

	l := &Logger{
		filename: filename,
		logger:   logger,
	}

	if factory != nil {
		translator, err := factory()
		if err != nil {
			logger.Warn("Translation unavailable, session continues without it",
				zap.Error(err))
		} else {
			l.translator = translator
		}
	}

	return l
}

// Filename returns the path of the incremental transcript file.
func (l *Logger) Filename() string {
	return l.filename
}

// TranslationEnabled reports whether entries are enriched with translations.
func (l *Logger) TranslationEnabled() bool {
	return l.translator != nil
}

// Entries returns a copy of the accumulated entry sequence.
func (l *Logger) Entries() []entities.TranscriptEntry {
	out := make([]entities.TranscriptEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// AddEntry records one speaker turn timestamped now.
func (l *Logger) AddEntry(ctx context.Context, speaker entities.Speaker, message string) error {
	return l.AddEntryAt(ctx, speaker, message, time.Now())
}

// AddEntryAt records one speaker turn. Guest-facing turns are enriched with
// translation metadata when translation is enabled; a failing translation
// call degrades to the original text and never surfaces to the caller. The
// entry is appended to the in-memory sequence and then to the transcript
// file; file errors propagate, since losing the append breaks the one
// durability guarantee this component provides.
func (l *Logger) AddEntryAt(ctx context.Context, speaker entities.Speaker, message string, timestamp time.Time) error {
	entry := entities.TranscriptEntry{
		Timestamp: timestamp,
		Speaker:   speaker,
		Message:   message,
	}

	if l.translator != nil && speaker.Translatable() {
		result, err := l.translator.TranslateToEnglish(ctx, message, "")
		if err != nil {
			l.logger.Warn("Translation failed, keeping original text",
				zap.String("speaker", string(speaker)),
				zap.Error(err))
			result = repositories.TranslationResult{
				Original:         message,
				Translated:       message,
				SourceLanguage:   repositories.LanguageUnknown,
				NeedsTranslation: false,
			}
		}
		translated := result.Translated
		sourceLanguage := result.SourceLanguage
		needsTranslation := result.NeedsTranslation
		entry.Translated = &translated
		entry.SourceLanguage = &sourceLanguage
		entry.NeedsTranslation = &needsTranslation
	}

	l.entries = append(l.entries, entry)

	return l.appendLine(entry)
}

// appendLine writes one formatted line, opening the file in append mode for
// this single write so that no handle is held across calls.
func (l *Logger) appendLine(entry entities.TranscriptEntry) error {
	f, err := os.OpenFile(l.filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open transcript file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, formatLine(entry)); err != nil {
		return fmt.Errorf("failed to append transcript line: %w", err)
	}

	return nil
}

func formatLine(entry entities.TranscriptEntry) string {
	return fmt.Sprintf("[%s] %s: %s", entry.Timestamp.Format(lineTimeLayout), entry.Speaker, entry.Message)
}

// SaveFullTranscript rewrites the transcript file from the complete in-memory
// sequence, so the file matches the accumulated entries even if an earlier
// incremental append was cut short. When translation is enabled it also
// writes the bilingual companion file and returns its path as the second
// value; otherwise the second value is empty.
func (l *Logger) SaveFullTranscript() (string, string, error) {
	var buf bytes.Buffer
	for _, entry := range l.entries {
		fmt.Fprintln(&buf, formatLine(entry))
	}

	if err := os.WriteFile(l.filename, buf.Bytes(), 0o644); err != nil {
		return "", "", fmt.Errorf("failed to rewrite transcript file: %w", err)
	}

	if l.translator == nil {
		return l.filename, "", nil
	}

	bilingualPath := l.basePath() + "_bilingual.txt"
	if err := os.WriteFile(bilingualPath, l.renderBilingual(), 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write bilingual transcript: %w", err)
	}

	return l.filename, bilingualPath, nil
}

// renderBilingual pairs each original message with its English translation.
// Entries that did not need translation keep only their original line.
func (l *Logger) renderBilingual() []byte {
	var buf bytes.Buffer
	buf.WriteString(bilingualBanner)
	buf.WriteString("\n")

	for _, entry := range l.entries {
		fmt.Fprintf(&buf, "[%s] %s:\n", entry.Timestamp.Format(time.RFC3339), entry.Speaker)
		fmt.Fprintf(&buf, "  Original: %s\n", entry.Message)
		if entry.HasTranslation() && *entry.NeedsTranslation {
			fmt.Fprintf(&buf, "  English:  %s\n", *entry.Translated)
			fmt.Fprintf(&buf, "  (Detected: %s)\n", *entry.SourceLanguage)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// SaveJSONTranscript serializes the complete in-memory sequence to the
// derived .json file, rewriting it in full, and returns its path.
func (l *Logger) SaveJSONTranscript() (string, error) {
	jsonPath := l.basePath() + ".json"

	entries := l.entries
	if entries == nil {
		entries = []entities.TranscriptEntry{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(entries); err != nil {
		return "", fmt.Errorf("failed to encode transcript entries: %w", err)
	}

	if err := os.WriteFile(jsonPath, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write JSON transcript: %w", err)
	}

	return jsonPath, nil
}

// Text returns the whole transcript as one string, one line per entry with
// full timestamps, suitable as extraction input.
func (l *Logger) Text() string {
	lines := make([]string, 0, len(l.entries))
	for _, entry := range l.entries {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s",
			entry.Timestamp.Format(time.RFC3339), entry.Speaker, entry.Message))
	}
	return strings.Join(lines, "\n")
}

func (l *Logger) basePath() string {
	return strings.TrimSuffix(l.filename, filepath.Ext(l.filename))
}
