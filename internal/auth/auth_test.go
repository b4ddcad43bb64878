package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestTokens() *Tokens {
	return NewTokens([]byte(strings.Repeat("k", 32)), time.Hour)
}

func TestTokens_RoundTrip(t *testing.T) {
	tok := newTestTokens()

	token := tok.Issue(42)
	userID, err := tok.Verify(token)
	if err != nil {
		t.Fatalf("Verify() = %v", err)
	}
	if userID != 42 {
		t.Errorf("userID = %d, want 42", userID)
	}
}

func TestTokens_Expired(t *testing.T) {
	tok := newTestTokens()

	token := tok.issueAt(42, time.Now().Add(-2*time.Hour))
	if _, err := tok.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Verify(expired) = %v, want ErrTokenExpired", err)
	}
}

func TestTokens_WrongSecret(t *testing.T) {
	tok := newTestTokens()
	other := NewTokens([]byte(strings.Repeat("x", 32)), time.Hour)

	token := tok.Issue(42)
	if _, err := other.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Verify(wrong secret) = %v, want ErrTokenInvalid", err)
	}
}

func TestTokens_Tampered(t *testing.T) {
	tok := newTestTokens()

	token := tok.Issue(42)
	// Swap the user ID while keeping the original signature.
	tampered := "7" + token[strings.Index(token, ":"):]
	if _, err := tok.Verify(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Verify(tampered) = %v, want ErrTokenInvalid", err)
	}
}

func TestTokens_Malformed(t *testing.T) {
	tok := newTestTokens()

	for _, token := range []string{"", "garbage", "1:2", "a:b:c", "1:notanumber:sig"} {
		if _, err := tok.Verify(token); err == nil {
			t.Errorf("Verify(%q) = nil, want error", token)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword() = %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("hash equals plaintext")
	}

	if !CheckPassword("hunter22", hash) {
		t.Error("CheckPassword(correct) = false")
	}
	if CheckPassword("wrong", hash) {
		t.Error("CheckPassword(wrong) = true")
	}
}
