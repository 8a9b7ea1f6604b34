package device

import "testing"

func TestValidateDevice(t *testing.T) {
	repo := NewMemoryRepository(map[string]string{
		"SN-001": "secret-one",
		"SN-002": "secret-two",
	})

	device, err := repo.ValidateDevice("SN-001", "secret-one")
	if err != nil {
		t.Fatalf("ValidateDevice failed: %v", err)
	}
	if device.SerialNumber != "SN-001" {
		t.Errorf("Expected serial SN-001, got %q", device.SerialNumber)
	}
	if device.ID == "" {
		t.Error("Expected generated device ID")
	}
}

func TestValidateDeviceWrongSecret(t *testing.T) {
	repo := NewMemoryRepository(map[string]string{"SN-001": "secret-one"})

	if _, err := repo.ValidateDevice("SN-001", "wrong"); err == nil {
		t.Error("Expected error for wrong secret")
	}
}

func TestValidateDeviceUnknownSerial(t *testing.T) {
	repo := NewMemoryRepository(nil)

	if _, err := repo.ValidateDevice("SN-404", "whatever"); err == nil {
		t.Error("Expected error for unknown device")
	}
}

func TestRegister(t *testing.T) {
	repo := NewMemoryRepository(nil)

	if err := repo.Register("", "secret"); err == nil {
		t.Error("Expected error for empty serial")
	}
	if err := repo.Register("SN-003", ""); err == nil {
		t.Error("Expected error for empty secret")
	}

	if err := repo.Register("SN-003", "secret-three"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := repo.ValidateDevice("SN-003", "secret-three"); err != nil {
		t.Errorf("ValidateDevice after Register failed: %v", err)
	}
}
