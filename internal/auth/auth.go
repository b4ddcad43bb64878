// Package auth provides password hashing and stateless bearer tokens for
// the API.
//
// Tokens are HMAC-SHA256 signed values of the form
// "<userID>:<expiry>:<signature>". They carry no server-side state: a token
// is valid iff the signature matches and the expiry is in the future.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors for token verification, checked with errors.Is().
var (
	// ErrTokenMalformed is returned when the token format cannot be parsed.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenInvalid is returned when the token signature does not match.
	ErrTokenInvalid = errors.New("token signature invalid")
	// ErrTokenExpired is returned when the token expiry has passed.
	ErrTokenExpired = errors.New("token expired")
)

// Tokens issues and verifies signed bearer tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens creates a token signer. The secret must be at least 32 bytes;
// config validation enforces that before this is reached.
func NewTokens(secret []byte, ttl time.Duration) *Tokens {
	return &Tokens{secret: secret, ttl: ttl}
}

// Issue creates a token for the given user, valid for the configured TTL.
func (t *Tokens) Issue(userID int64) string {
	return t.issueAt(userID, time.Now())
}

func (t *Tokens) issueAt(userID int64, now time.Time) string {
	expiry := now.Add(t.ttl).Unix()
	payload := fmt.Sprintf("%d:%d", userID, expiry)
	return payload + ":" + t.sign(payload)
}

// Verify checks a token's signature and expiry and returns the user ID.
func (t *Tokens) Verify(token string) (int64, error) {
	// Signature is the part after the last colon; the payload keeps its
	// internal colon.
	idx := strings.LastIndex(token, ":")
	if idx < 0 {
		return 0, ErrTokenMalformed
	}
	payload, signature := token[:idx], token[idx+1:]

	parts := strings.SplitN(payload, ":", 2)
	if len(parts) != 2 {
		return 0, ErrTokenMalformed
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, ErrTokenMalformed
	}
	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, ErrTokenMalformed
	}

	// Signature before expiry: don't leak timing information about expired
	// tokens with forged signatures.
	if !hmac.Equal([]byte(signature), []byte(t.sign(payload))) {
		return 0, ErrTokenInvalid
	}

	if time.Now().Unix() > expiry {
		return 0, ErrTokenExpired
	}

	return userID, nil
}

func (t *Tokens) sign(payload string) string {
	h := hmac.New(sha256.New, t.secret)
	h.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
