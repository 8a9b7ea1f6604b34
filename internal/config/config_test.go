package config

import "testing"

func TestLoadRequiresCredentials(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("Expected error when required credentials are missing")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("PORT", "")
	t.Setenv("MONGODB_URI", "")
	t.Setenv("MONGODB_DATABASE", "")
	t.Setenv("RESERVATION_FILE", "")
	t.Setenv("TRANSLATION_ENABLED", "")
	t.Setenv("SERENA_DEVICES", "")
	t.Setenv("AUDIO_INPUT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Port)
	}
	if cfg.MongoDatabase != "serena" {
		t.Errorf("Expected default database 'serena', got %q", cfg.MongoDatabase)
	}
	if cfg.ReservationFile != "hotel_requests.json" {
		t.Errorf("Expected default reservation file, got %q", cfg.ReservationFile)
	}
	if !cfg.TranslationEnabled {
		t.Error("Expected translation enabled by default")
	}
	if len(cfg.Devices) != 0 {
		t.Errorf("Expected no devices, got %v", cfg.Devices)
	}
	if cfg.AudioInputPath != "" {
		t.Errorf("Expected microphone capture disabled by default, got %q", cfg.AudioInputPath)
	}
}

func TestParseDevices(t *testing.T) {
	devices, err := parseDevices("SN-001:alpha, SN-002:beta")
	if err != nil {
		t.Fatalf("parseDevices failed: %v", err)
	}
	if devices["SN-001"] != "alpha" || devices["SN-002"] != "beta" {
		t.Errorf("Unexpected devices: %v", devices)
	}
}

func TestParseDevicesInvalid(t *testing.T) {
	for _, raw := range []string{"SN-001", "SN-001:", ":secret"} {
		if _, err := parseDevices(raw); err == nil {
			t.Errorf("Expected error for %q", raw)
		}
	}
}

func TestLoadInvalidVoiceSettings(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("ELEVEN_LABS_STABILITY", "not-a-number")

	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid stability value")
	}
}
