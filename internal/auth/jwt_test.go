package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-32-bytes-long!!"

func sign(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user-1",
		"email": "owner@example.com",
		"aud":   "pulseboard",
		"iss":   "pulseboard-auth",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func TestVerifier_Verify(t *testing.T) {
	t.Parallel()

	v := NewVerifier(testSecret, "pulseboard", "pulseboard-auth")

	p, err := v.Verify(sign(t, jwt.SigningMethodHS256, testSecret, validClaims()))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if p.UserID != "user-1" || p.Email != "owner@example.com" {
		t.Errorf("principal = %+v", p)
	}
	if p.ExpiresAt.IsZero() {
		t.Error("ExpiresAt not populated")
	}
}

func TestVerifier_Rejects(t *testing.T) {
	t.Parallel()

	v := NewVerifier(testSecret, "pulseboard", "pulseboard-auth")

	with := func(key string, value any) jwt.MapClaims {
		c := validClaims()
		if value == nil {
			delete(c, key)
		} else {
			c[key] = value
		}
		return c
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty", "", ErrTokenMissing},
		{"malformed", "not.a.jwt", ErrTokenInvalid},
		{"wrong secret", sign(t, jwt.SigningMethodHS256, "other-secret", validClaims()), ErrTokenInvalid},
		{"wrong algorithm", sign(t, jwt.SigningMethodHS512, testSecret, validClaims()), ErrTokenInvalid},
		{"expired", sign(t, jwt.SigningMethodHS256, testSecret, with("exp", time.Now().Add(-time.Hour).Unix())), ErrTokenExpired},
		{"no expiry", sign(t, jwt.SigningMethodHS256, testSecret, with("exp", nil)), ErrTokenInvalid},
		{"wrong audience", sign(t, jwt.SigningMethodHS256, testSecret, with("aud", "someone-else")), ErrTokenInvalid},
		{"wrong issuer", sign(t, jwt.SigningMethodHS256, testSecret, with("iss", "evil")), ErrTokenInvalid},
		{"no subject", sign(t, jwt.SigningMethodHS256, testSecret, with("sub", nil)), ErrTokenInvalid},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := v.Verify(tt.token); !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifier_OptionalAudienceAndIssuer(t *testing.T) {
	t.Parallel()

	v := NewVerifier(testSecret, "", "")
	claims := validClaims()
	delete(claims, "aud")
	delete(claims, "iss")

	if _, err := v.Verify(sign(t, jwt.SigningMethodHS256, testSecret, claims)); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                 "",
		"Bearer abc":       "abc",
		"bearer  abc ":     "abc",
		"Basic dXNlcjpwdw": "",
		"Bearer":           "",
	}
	for header, want := range tests {
		if got := BearerToken(header); got != want {
			t.Errorf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestPrincipalContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if PrincipalFromContext(ctx) != nil || UserIDFromContext(ctx) != "" {
		t.Fatal("empty context should carry no principal")
	}

	ctx = ContextWithPrincipal(ctx, &Principal{UserID: "user-9"})
	if got := UserIDFromContext(ctx); got != "user-9" {
		t.Errorf("UserIDFromContext() = %q, want user-9", got)
	}
}
