package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("segredo123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "segredo123" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword("segredo123", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("errado", hash) {
		t.Error("wrong password accepted")
	}
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	if CheckPassword("x", "not-a-bcrypt-hash") {
		t.Error("malformed hash accepted")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("segredo12345"); err != nil {
		t.Errorf("valid password rejected: %v", err)
	}
	if err := ValidatePassword("curto1"); err == nil {
		t.Error("short password accepted")
	}
	if err := ValidatePassword("semdigitosaqui"); err == nil {
		t.Error("password without digits accepted")
	}
	if err := ValidatePassword("123456789012"); err == nil {
		t.Error("password without letters accepted")
	}
}
