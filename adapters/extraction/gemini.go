package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/hrdiansyah/serena/domain/entities"
	"github.com/hrdiansyah/serena/domain/repositories"
)

const (
	defaultModel = "gemini-2.0-flash"

	maxAttempts = 3

	extractionInstruction = `You are a hotel reservation assistant that extracts booking information from text.

Instructions:
1. Extract all relevant hotel booking information from the provided text
2. For dates, use YYYY-MM-DD format
3. If specific dates aren't mentioned, infer reasonable dates based on context (e.g., "next week", "tomorrow")
4. If availability isn't explicitly mentioned, assume Available=true
5. If guest count isn't specified, assume 1 guest
6. Extract the most likely room type mentioned (standard, deluxe, suite, etc.)
7. Include any special requests, dietary requirements, or preferences mentioned
8. If guest name isn't provided, use "Guest" as default

Be intelligent about extracting information even if it's not perfectly structured.`
)

// reservationSchema constrains the model output to the reservation record
// shape so that the response always decodes.
var reservationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"Available":        {Type: genai.TypeBoolean, Description: "True if a room is available, false otherwise"},
		"CheckInDate":      {Type: genai.TypeString, Description: "Check-in date (YYYY-MM-DD)"},
		"CheckoutDate":     {Type: genai.TypeString, Description: "Check-out date (YYYY-MM-DD)"},
		"NumberOfGuests":   {Type: genai.TypeInteger, Description: "Number of guests for the reservation"},
		"guest_name":       {Type: genai.TypeString, Description: "Name of the guest"},
		"room_type":        {Type: genai.TypeString, Description: "Requested room type"},
		"special_requests": {Type: genai.TypeString, Description: "Any special requests"},
	},
	Required: []string{"Available", "CheckInDate", "CheckoutDate", "NumberOfGuests", "guest_name", "room_type"},
}

// GeminiExtractor implements ReservationExtractor on the Gemini API using a
// structured JSON response schema.
type GeminiExtractor struct {
	client *genai.Client
	logger *zap.Logger
	model  string
}

var _ repositories.ReservationExtractor = (*GeminiExtractor)(nil)

// NewGeminiExtractor creates an extractor backed by Gemini.
func NewGeminiExtractor(ctx context.Context, apiKey string, logger *zap.Logger) (*GeminiExtractor, error) {
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

	return &GeminiExtractor{
		client: client,
		logger: logger,
		model:  defaultModel,
	}, nil
}

// Extract parses one conversation transcript into a reservation record.
func (g *GeminiExtractor) Extract(ctx context.Context, transcript string) (*entities.ReservationRecord, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("transcript is empty")
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(extractionInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    reservationSchema,
	}

	contents := []*genai.Content{genai.NewContentFromText(transcript, genai.RoleUser)}

	var response *genai.GenerateContentResponse
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		response, err = g.client.Models.GenerateContent(ctx, g.model, contents, config)
		if err == nil {
			break
		}

		g.logger.Warn("Extraction request failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * time.Second):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to extract hotel information: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no content generated for extraction")
	}

	var payload string
	for _, part := range response.Candidates[0].Content.Parts {
		payload += part.Text
	}

	record, err := decodeRecord(payload)
	if err != nil {
		return nil, err
	}

	g.logger.Info("Reservation extracted",
		zap.String("guest", record.GuestName),
		zap.String("check_in", record.CheckInDate),
		zap.String("check_out", record.CheckoutDate))

	return record, nil
}

// decodeRecord parses the model's JSON payload, fills the defaults the
// extraction prompt promises, and rejects records that would corrupt the
// reservation store.
func decodeRecord(payload string) (*entities.ReservationRecord, error) {
	var record entities.ReservationRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("failed to decode extraction response: %w", err)
	}

	if record.GuestName == "" {
		record.GuestName = "Guest"
	}
	if record.NumberOfGuests < 1 {
		record.NumberOfGuests = 1
	}

	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("extracted reservation is invalid: %w", err)
	}

	return &record, nil
}
