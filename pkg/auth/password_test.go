package auth

import (
	"strings"
	"testing"
)

func TestArgon2Hasher(t *testing.T) {
	var h Hasher = Argon2Hasher{}

	digest, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(digest, "$argon2id$v=19$m=65536,t=1,p=4$") {
		t.Errorf("digest = %q, want argon2id encoding", digest)
	}
	if !h.Compare("correct horse", digest) {
		t.Error("Compare() = false for the hashed password")
	}
	if h.Compare("wrong horse", digest) {
		t.Error("Compare() = true for a different password")
	}

	other, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if other == digest {
		t.Error("two hashes of the same password should use different salts")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"bcrypt", "$2a$10$abcdefghijklmnopqrstuv"},
		{"wrong version", "$argon2id$v=1$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{"bad params", "$argon2id$v=19$m=x,t=1,p=4$c2FsdA$aGFzaA"},
		{"bad salt", "$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA"},
		{"empty hash", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifyPassword("password", tt.hash) {
				t.Errorf("VerifyPassword() = true for %q", tt.hash)
			}
		})
	}
}

func TestArgon2Parameters(t *testing.T) {
	// Verify that Argon2 parameters are set correctly (OWASP recommended)
	if argon2Time != 1 {
		t.Errorf("argon2Time = %d, want 1", argon2Time)
	}
	if argon2Memory != 64*1024 {
		t.Errorf("argon2Memory = %d, want %d", argon2Memory, 64*1024)
	}
	if argon2Threads != 4 {
		t.Errorf("argon2Threads = %d, want 4", argon2Threads)
	}
	if argon2KeyLen != 32 {
		t.Errorf("argon2KeyLen = %d, want 32", argon2KeyLen)
	}
	if saltLen != 16 {
		t.Errorf("saltLen = %d, want 16", saltLen)
	}
}

func TestPasswordHashing_CaseSensitive(t *testing.T) {
	password := "TestPassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{
			name:     "exact match",
			password: "TestPassword123",
			want:     true,
		},
		{
			name:     "lowercase",
			password: "testpassword123",
			want:     false,
		},
		{
			name:     "uppercase",
			password: "TESTPASSWORD123",
			want:     false,
		},
		{
			name:     "mixed case different",
			password: "testPassword123",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerifyPassword(tt.password, hash)
			if got != tt.want {
				t.Errorf("VerifyPassword(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func TestPasswordStrength_EdgeCases(t *testing.T) {
	// Test that various password lengths and characters can be hashed
	tests := []struct {
		name     string
		password string
	}{
		{
			name:     "very short (1 char)",
			password: "a",
		},
		{
			name:     "empty string",
			password: "",
		},
		{
			name:     "medium length",
			password: "mediumPassword123",
		},
		{
			name:     "special characters",
			password: "p@ssw0rd!#$%^&*()",
		},
		{
			name:     "unicode",
			password: "pässwörd123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			if err != nil {
				t.Errorf("HashPassword failed for %q: %v", tt.name, err)
				return
			}

			if !VerifyPassword(tt.password, hash) {
				t.Errorf("VerifyPassword failed for %q", tt.name)
			}
		})
	}
}
