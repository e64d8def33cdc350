package sign

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestSignature(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"plain", "hello", "GSEnRXqYKdGFioAtCbI1IpeIe4cX"},
		{"json body", `{"email":"a@b.c"}`, "Gb2ew+pjjJo8H954NQFhEmwA3V52"},
		{"signbody", "42|1700000000000", "Gfx32YrzcWpMugmTVk9ribhe+ZiD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Signature([]byte(tt.data)); got != tt.want {
				t.Errorf("Signature(%q) = %q, want %q", tt.data, got, tt.want)
			}
		})
	}
}

func TestDeviceIDFromSeed(t *testing.T) {
	seed := make([]byte, 20)
	for i := range seed {
		seed[i] = byte(i)
	}

	const want = "19000102030405060708090A0B0C0D0E0F101112139EA23B4731B63EAF61D1D7C517F9C306C61D0DE9"
	got := DeviceIDFromSeed(seed)
	if got != want {
		t.Fatalf("DeviceIDFromSeed = %q, want %q", got, want)
	}

	if !ValidDeviceID(got) {
		t.Error("derived device ID should validate")
	}

	refreshed, err := RefreshDeviceID(got)
	if err != nil {
		t.Fatalf("RefreshDeviceID failed: %v", err)
	}
	if refreshed != want {
		t.Errorf("RefreshDeviceID = %q, want %q", refreshed, want)
	}
}

func TestNewDeviceID(t *testing.T) {
	id, err := NewDeviceID()
	if err != nil {
		t.Fatalf("NewDeviceID failed: %v", err)
	}
	if len(id) != 82 {
		t.Errorf("device ID length = %d, want 82", len(id))
	}
	if !ValidDeviceID(id) {
		t.Errorf("generated device ID %q should validate", id)
	}
	if id != strings.ToUpper(id) {
		t.Error("device ID should be uppercase hex")
	}
}

func TestValidDeviceID_Rejects(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"empty", ""},
		{"not hex", "zz000102"},
		{"too short", "19000102030405"},
		{"tampered mac", "19000102030405060708090A0B0C0D0E0F101112139EA23B4731B63EAF61D1D7C517F9C306C61D0DEA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ValidDeviceID(tt.id) {
				t.Errorf("ValidDeviceID(%q) = true, want false", tt.id)
			}
		})
	}
}

func TestDecodeSID(t *testing.T) {
	// One version byte + JSON + 20 signature bytes, URL-safe base64.
	const sid = "AnsiMSI6bnVsbCwiMCI6MCwiMyI6MCwiMiI6InVzZXItMTIzIiwiNCI6IjIwMy4wLjExMy43IiwiNSI6MTY5MzkxMDQwMCwiNiI6MTAwfQAAAAAAAAAAAAAAAAAAAAAAAAAA"

	for _, token := range []string{sid, "sid=" + sid} {
		info, err := DecodeSID(token)
		if err != nil {
			t.Fatalf("DecodeSID failed: %v", err)
		}
		if info.UserID != "user-123" {
			t.Errorf("UserID = %q, want %q", info.UserID, "user-123")
		}
		if info.IPAddress != "203.0.113.7" {
			t.Errorf("IPAddress = %q, want %q", info.IPAddress, "203.0.113.7")
		}
		if info.CreatedAt != 1693910400 {
			t.Errorf("CreatedAt = %d, want 1693910400", info.CreatedAt)
		}
		if info.ClientType != 100 {
			t.Errorf("ClientType = %d, want 100", info.ClientType)
		}
	}
}

func TestDecodeSID_Invalid(t *testing.T) {
	if _, err := DecodeSID("not-base64!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
	if _, err := DecodeSID("AAAA"); err == nil {
		t.Error("expected error for truncated token")
	}
}

func TestTransactionID(t *testing.T) {
	id := TransactionID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("TransactionID %q is not a UUID: %v", id, err)
	}
}
