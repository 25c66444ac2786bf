package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type fakeBlacklist struct {
	revoked map[string]bool
	err     error
}

func (f fakeBlacklist) IsBlacklisted(_ context.Context, userID string) (bool, error) {
	return f.revoked[userID], f.err
}

func newTestValidator(t *testing.T, bl Blacklist) (*JWTValidator, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	v := &JWTValidator{issuer: "login", blacklist: bl}
	v.setPublicKey(&key.PublicKey)
	return v, key
}

func sign(t *testing.T, key *ecdsa.PrivateKey, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func validClaims(userID int64) Claims {
	return Claims{
		UserID:    userID,
		Username:  "elf",
		Activated: 1700000000,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "login",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestValidateToken(t *testing.T) {
	v, key := newTestValidator(t, fakeBlacklist{revoked: map[string]bool{"13": true}})
	ctx := context.Background()

	player, err := v.ValidateToken(ctx, sign(t, key, validClaims(42)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if player.ID != "42" || player.Username != "elf" || !player.IsActive() {
		t.Fatalf("unexpected player %+v", player)
	}

	tests := []struct {
		name   string
		mutate func(*Claims)
	}{
		{"wrong issuer", func(c *Claims) { c.Issuer = "other" }},
		{"expired", func(c *Claims) { c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute)) }},
		{"no expiry", func(c *Claims) { c.ExpiresAt = nil }},
		{"not activated", func(c *Claims) { c.Activated = 0 }},
		{"banned", func(c *Claims) { c.Activated = -1 }},
		{"blacklisted", func(c *Claims) { c.UserID = 13 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := validClaims(42)
			tt.mutate(&claims)
			if _, err := v.ValidateToken(ctx, sign(t, key, claims)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidateTokenWrongKey(t *testing.T) {
	v, _ := newTestValidator(t, nil)
	_, other := newTestValidator(t, nil)
	if _, err := v.ValidateToken(context.Background(), sign(t, other, validClaims(1))); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestValidateTokenBlacklistDown(t *testing.T) {
	v, key := newTestValidator(t, fakeBlacklist{err: errors.New("connection refused")})
	if _, err := v.ValidateToken(context.Background(), sign(t, key, validClaims(7))); err != nil {
		t.Fatalf("blacklist outage must not reject tokens: %v", err)
	}
}

func TestParsePublicKey(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	data := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	got, err := parsePublicKey(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.Equal(&key.PublicKey) {
		t.Fatal("parsed key differs")
	}
	if _, err := parsePublicKey([]byte("not pem")); err == nil {
		t.Fatal("expected error for garbage input")
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Sec-WebSocket-Protocol", "access_token, abc")
	if got := extractTokenFromHeader(r); got != "abc" {
		t.Fatalf("protocol header: got %q", got)
	}

	r = httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer def")
	if got := extractTokenFromHeader(r); got != "def" {
		t.Fatalf("authorization header: got %q", got)
	}

	r = httptest.NewRequest("GET", "/ws?token=ghi", nil)
	if got := extractTokenFromHeader(r); got != "ghi" {
		t.Fatalf("query: got %q", got)
	}

	r = httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Basic xyz")
	if got := extractTokenFromHeader(r); got != "" {
		t.Fatalf("expected no token, got %q", got)
	}
}
