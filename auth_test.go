package main

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestAccessToken_RoundTrip verifies a freshly issued token parses back to
// the same user ID.
func TestAccessToken_RoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := createAccessToken(user{ID: 42})
	if err != nil {
		t.Fatalf("createAccessToken: %v", err)
	}

	userID, err := parseAccessToken(token)
	if err != nil {
		t.Fatalf("parseAccessToken: %v", err)
	}
	if userID != 42 {
		t.Errorf("userID = %d, want 42", userID)
	}
}

// TestAccessToken_WrongSecret verifies tokens signed with a different secret
// are rejected.
func TestAccessToken_WrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret-one")
	token, err := createAccessToken(user{ID: 7})
	if err != nil {
		t.Fatalf("createAccessToken: %v", err)
	}

	t.Setenv("JWT_SECRET", "secret-two")
	if _, err := parseAccessToken(token); err == nil {
		t.Error("expected error for token signed with a different secret")
	}
}

// TestAccessToken_Garbage verifies arbitrary strings are rejected.
func TestAccessToken_Garbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	if _, err := parseAccessToken("not.a.token"); err == nil {
		t.Error("expected error for a garbage token")
	}
}

// TestAccessToken_Expired verifies an expired token is rejected.
func TestAccessToken_Expired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	claims := jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := parseAccessToken(token); err == nil {
		t.Error("expected error for an expired token")
	}
}

// TestAccessToken_RejectsNone verifies the alg allow-list: an unsigned
// ("none") token must not parse even with a valid payload.
func TestAccessToken_RejectsNone(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	claims := jwt.RegisteredClaims{Subject: "42"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := parseAccessToken(token); err == nil {
		t.Error("expected error for an unsigned token")
	}
	if !strings.Contains(token, ".") {
		t.Fatal("sanity: token should be a JWT")
	}
}

// TestNormalizeSex verifies registration stores a lowercase sex and falls
// back to "other" when the field is omitted.
func TestNormalizeSex(t *testing.T) {
	female := "Female"
	cases := []struct {
		name string
		in   *string
		want string
	}{
		{"omitted defaults to other", nil, "other"},
		{"lowercased", &female, "female"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeSex(tc.in); got != tc.want {
				t.Errorf("normalizeSex = %q, want %q", got, tc.want)
			}
		})
	}
}
