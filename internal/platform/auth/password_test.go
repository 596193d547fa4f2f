package auth

import "testing"

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("doctor123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "doctor123" {
		t.Fatal("expected hash to differ from plaintext")
	}
	if !CheckPassword(hash, "doctor123") {
		t.Error("expected password to match its hash")
	}
	if CheckPassword(hash, "doctor124") {
		t.Error("expected wrong password to fail")
	}
}

func TestHashPassword_TooShort(t *testing.T) {
	if _, err := HashPassword("abc"); err == nil {
		t.Error("expected error for short password")
	}
}

func TestCheckPassword_GarbageHash(t *testing.T) {
	if CheckPassword("not-a-bcrypt-hash", "anything") {
		t.Error("expected garbage hash to fail")
	}
}
