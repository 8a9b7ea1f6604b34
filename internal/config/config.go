package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds everything the server reads from the environment. Values are
// loaded once at startup; adapters receive what they need through
// constructors instead of reading the environment themselves.
type Config struct {
	Port string

	GeminiAPIKey string

	MongoURI      string
	MongoDatabase string

	JWTSecret string

	// Devices maps serial numbers to secret keys, parsed from
	// SERENA_DEVICES as "serial:secret,serial:secret".
	Devices map[string]string

	TranslationEnabled bool
	TranscriptFile     string
	ReservationFile    string

	// AudioInputPath points at a raw PCM16 file or named pipe fed by an
	// external recorder. Empty disables local microphone capture.
	AudioInputPath string

	ElevenLabsAPIKey    string
	ElevenLabsVoiceID   string
	ElevenLabsModelID   string
	ElevenLabsStability float64
	ElevenLabsClarity   float64
}

// Load reads the configuration from the environment and validates the
// required credentials.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		MongoURI:           getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:      getEnv("MONGODB_DATABASE", "serena"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TranslationEnabled: getEnvBool("TRANSLATION_ENABLED", true),
		TranscriptFile:     os.Getenv("TRANSCRIPT_FILE"),
		ReservationFile:    getEnv("RESERVATION_FILE", "hotel_requests.json"),
		AudioInputPath:     os.Getenv("AUDIO_INPUT"),
		ElevenLabsAPIKey:   os.Getenv("ELEVEN_LABS_API_KEY"),
		ElevenLabsVoiceID:  os.Getenv("ELEVEN_LABS_VOICE_ID"),
		ElevenLabsModelID:  os.Getenv("ELEVEN_LABS_MODEL_ID"),
	}

	if v := os.Getenv("ELEVEN_LABS_STABILITY"); v != "" {
		stability, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ELEVEN_LABS_STABILITY: %w", err)
		}
		cfg.ElevenLabsStability = stability
	}
	if v := os.Getenv("ELEVEN_LABS_CLARITY"); v != "" {
		clarity, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ELEVEN_LABS_CLARITY: %w", err)
		}
		cfg.ElevenLabsClarity = clarity
	}

	devices, err := parseDevices(os.Getenv("SERENA_DEVICES"))
	if err != nil {
		return nil, err
	}
	cfg.Devices = devices

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// parseDevices parses "serial:secret,serial:secret" pairs.
func parseDevices(raw string) (map[string]string, error) {
	devices := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return devices, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		serial, secret, found := strings.Cut(pair, ":")
		if !found || serial == "" || secret == "" {
			return nil, fmt.Errorf("invalid device credential entry: %q", pair)
		}
		devices[serial] = secret
	}
	return devices, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
