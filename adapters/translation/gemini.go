package translation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/hrdiansyah/serena/domain/repositories"
)

const (
	defaultModel = "gemini-2.0-flash"

	// Detection looks at a bounded sample; whole transcripts are overkill
	// for identifying a language.
	maxDetectionSample = 200

	minDetectableRunes = 3

	detectionInstruction = "You are a language detection expert. Respond with ONLY " +
		"the language name (e.g., 'English', 'Spanish', 'French', 'German', " +
		"'Italian', 'Chinese', 'Japanese', etc.). If you cannot determine the " +
		"language, respond with 'Unknown'."

	translationInstruction = "You are a professional translator. Translate the " +
		"following text to English. Provide ONLY the translation, no explanations " +
		"or additional text."
)

// GeminiTranslator implements the Translator interface on the Gemini API.
// It helps hotel staff review conversations in languages they may not speak.
type GeminiTranslator struct {
	client *genai.Client
	logger *zap.Logger
	model  string
}

var _ repositories.Translator = (*GeminiTranslator)(nil)

// NewGeminiTranslator creates a translator backed by Gemini.
func NewGeminiTranslator(ctx context.Context, apiKey string, logger *zap.Logger) (*GeminiTranslator, error) {
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

	return &GeminiTranslator{
		client: client,
		logger: logger,
		model:  defaultModel,
	}, nil
}

// DetectLanguage identifies the language of the given text. Very short text
// and detection failures both come back as Unknown rather than an error, so
// a flaky detection never blocks the session.
func (g *GeminiTranslator) DetectLanguage(ctx context.Context, text string) (string, error) {
	if len([]rune(strings.TrimSpace(text))) < minDetectableRunes {
		return repositories.LanguageUnknown, nil
	}

	sample := []rune(text)
	if len(sample) > maxDetectionSample {
		sample = sample[:maxDetectionSample]
	}

	prompt := fmt.Sprintf("What language is this text in? Text: %s", string(sample))
	language, err := g.generate(ctx, detectionInstruction, prompt, 10)
	if err != nil {
		g.logger.Warn("Language detection failed", zap.Error(err))
		return repositories.LanguageUnknown, nil
	}

	return strings.TrimSpace(language), nil
}

// TranslateToEnglish translates text to English, detecting the source
// language first when none is given. English and Unknown text passes
// through untranslated. Model errors are returned; the transcript logger
// converts them to a pass-through fallback.
func (g *GeminiTranslator) TranslateToEnglish(ctx context.Context, text, sourceLanguage string) (repositories.TranslationResult, error) {
	if strings.TrimSpace(text) == "" {
		return passThrough(text, repositories.LanguageUnknown), nil
	}

	if sourceLanguage == "" {
		detected, err := g.DetectLanguage(ctx, text)
		if err != nil {
			return repositories.TranslationResult{}, err
		}
		sourceLanguage = detected
	}

	if !needsTranslation(sourceLanguage) {
		return passThrough(text, sourceLanguage), nil
	}

	prompt := fmt.Sprintf("Translate this %s text to English: %s", sourceLanguage, text)
	translated, err := g.generate(ctx, translationInstruction, prompt, 500)
	if err != nil {
		return repositories.TranslationResult{}, fmt.Errorf("translation request failed: %w", err)
	}

	return repositories.TranslationResult{
		Original:         text,
		Translated:       strings.TrimSpace(translated),
		SourceLanguage:   sourceLanguage,
		NeedsTranslation: true,
	}, nil
}

// generate runs one single-turn completion and returns the response text.
func (g *GeminiTranslator) generate(ctx context.Context, instruction, prompt string, maxTokens int32) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		MaxOutputTokens:   maxTokens,
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", err
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", fmt.Errorf("no content generated")
	}

	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		text += part.Text
	}
	if text == "" {
		return "", fmt.Errorf("empty response")
	}

	return text, nil
}

// needsTranslation is false for English and Unknown, case-insensitively.
func needsTranslation(language string) bool {
	switch strings.ToLower(language) {
	case "english", "unknown":
		return false
	}
	return true
}

func passThrough(text, language string) repositories.TranslationResult {
	return repositories.TranslationResult{
		Original:         text,
		Translated:       text,
		SourceLanguage:   language,
		NeedsTranslation: false,
	}
}
