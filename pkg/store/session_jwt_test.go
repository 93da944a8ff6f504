package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestJWTSessionRoundTrip(t *testing.T) {
	s := NewJWTSessionStore("test-secret", time.Minute, NewMemoryTokenRevoker())
	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	userID, ok, err := s.GetUserIDByToken(token)
	if err != nil || !ok {
		t.Fatalf("validate session: ok=%v err=%v", ok, err)
	}
	if userID != "user-1" {
		t.Fatalf("unexpected user id: %q", userID)
	}
}

func TestJWTSessionRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTSessionStore("secret-a", time.Minute, nil)
	verifier := NewJWTSessionStore("secret-b", time.Minute, nil)
	token, err := issuer.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, err := verifier.GetUserIDByToken(token); ok || err == nil {
		t.Fatal("token signed with different secret was accepted")
	}
}

func TestJWTSessionDeleteRevokesToken(t *testing.T) {
	s := NewJWTSessionStore("test-secret", time.Minute, NewMemoryTokenRevoker())
	token, err := s.NewSession("user-2")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, err := s.GetUserIDByToken(token); ok || err == nil {
		t.Fatal("revoked token still accepted")
	}
}

func TestJWTSessionRedisRevoker(t *testing.T) {
	redis := miniredis.RunT(t)
	revoker := NewRedisTokenRevoker(redis.Addr(), "")
	s := NewJWTSessionStore("test-secret", time.Minute, revoker)

	token, err := s.NewSession("user-3")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, err := s.GetUserIDByToken(token); !ok || err != nil {
		t.Fatalf("fresh token rejected: ok=%v err=%v", ok, err)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatal("revoked token still accepted via redis revoker")
	}
}

func TestJWTSessionRejectsGarbage(t *testing.T) {
	s := NewJWTSessionStore("test-secret", time.Minute, nil)
	if _, ok, err := s.GetUserIDByToken("not-a-jwt"); ok || err == nil {
		t.Fatal("garbage token accepted")
	}
	if _, ok, err := s.GetUserIDByToken(""); ok || err == nil {
		t.Fatal("empty token accepted")
	}
}
