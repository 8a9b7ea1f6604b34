package repositories

import "context"

// LanguageUnknown is the sentinel returned when detection fails or the text
// is too short to classify.
const LanguageUnknown = "Unknown"

// TranslationResult is the outcome of a detect-and-translate call.
// NeedsTranslation is false exactly when the source language is English or
// Unknown, in which case Translated equals Original.
type TranslationResult struct {
	Original         string `json:"original"`
	Translated       string `json:"translated"`
	SourceLanguage   string `json:"source_language"`
	NeedsTranslation bool   `json:"needs_translation"`
}

// Translator abstracts the hosted language detection and translation service.
type Translator interface {
	// DetectLanguage returns a language name, or LanguageUnknown when the
	// text is too short or detection fails. Detection failures are absorbed
	// here, not surfaced as errors.
	DetectLanguage(ctx context.Context, text string) (string, error)

	// TranslateToEnglish translates text to English, detecting the source
	// language first when sourceLanguage is empty. Transport and model
	// errors are returned to the caller, which is expected to fall back to
	// the original text.
	TranslateToEnglish(ctx context.Context, text, sourceLanguage string) (TranslationResult, error)
}
