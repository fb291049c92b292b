package auth

import "testing"

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "" || hash == "correct horse" {
		t.Fatalf("expected a bcrypt hash, got %q", hash)
	}
}

func TestHashPassword_Salted(t *testing.T) {
	a, _ := HashPassword("same-password")
	b, _ := HashPassword("same-password")
	if a == b {
		t.Fatal("expected different hashes for the same password")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := CheckPassword(hash, "password123"); err != nil {
		t.Errorf("expected password to match: %v", err)
	}
	if err := CheckPassword(hash, "password124"); err == nil {
		t.Error("expected mismatch for wrong password")
	}
	if err := CheckPassword("not-a-hash", "password123"); err == nil {
		t.Error("expected error for malformed hash")
	}
}
