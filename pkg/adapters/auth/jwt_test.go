package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
)

func TestIssueAndVerify(t *testing.T) {
	v := NewJWTVerifier("testsecret", time.Hour)

	token, exp, err := v.Issue(domain.User{Email: "mod@example.com", Name: "Mod", Admin: true})
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry in the past: %v", exp)
	}

	u, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if u.Email != "mod@example.com" || !u.Admin || !u.Valid {
		t.Errorf("unexpected user: %+v", u)
	}
}

func TestVerifyRejects(t *testing.T) {
	v := NewJWTVerifier("testsecret", time.Hour)

	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("Failed to sign token: %v", err)
		}
		return s
	}
	valid := &Claims{Admin: true, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "mod@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
	}}
	expired := &Claims{Admin: true, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "mod@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-5 * time.Minute)),
	}}
	noSubject := &Claims{Admin: true}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong secret", sign(jwt.SigningMethodHS256, []byte("other"), valid)},
		{"expired", sign(jwt.SigningMethodHS256, []byte("testsecret"), expired)},
		{"unsigned", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)},
		{"wrong algorithm", sign(jwt.SigningMethodHS512, []byte("testsecret"), valid)},
		{"no subject", sign(jwt.SigningMethodHS256, []byte("testsecret"), noSubject)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if u, err := v.Verify(context.Background(), tt.token); err == nil {
				t.Errorf("expected rejection, got %+v", u)
			}
		})
	}
}

func TestVerifyWithoutSecret(t *testing.T) {
	v := NewJWTVerifier("", time.Hour)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{Admin: true, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "mod@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
	}}).SignedString([]byte(""))
	if err != nil {
		t.Fatal(err)
	}
	if u, err := v.Verify(context.Background(), forged); err == nil {
		t.Errorf("empty-secret verifier accepted %+v", u)
	}
}
