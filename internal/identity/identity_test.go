package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestCallerOwns(t *testing.T) {
	c := Caller{Subject: "alice@example.com"}
	if !c.Owns("alice@example.com") {
		t.Fatal("expected caller to own its wallet")
	}
	if c.Owns("bob@example.com") {
		t.Fatal("caller must not own another user's wallet")
	}
	if (Caller{}).Owns("") {
		t.Fatal("anonymous caller must not own anything")
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithCaller(context.Background(), Caller{Subject: "a", Role: RoleAdmin})
	c, ok := FromContext(ctx)
	if !ok || c.Subject != "a" || !c.IsAdmin() {
		t.Fatalf("unexpected caller %+v ok=%v", c, ok)
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("expected no caller on empty context")
	}
}

func TestVerifierRoundTrip(t *testing.T) {
	v, err := NewVerifier("secret")
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	token, err := v.Sign(Caller{Subject: "alice@example.com", Role: "admin"}, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	c, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if c.Subject != "alice@example.com" || c.Role != RoleAdmin {
		t.Fatalf("unexpected caller %+v", c)
	}
}

func TestVerifierRejects(t *testing.T) {
	v, _ := NewVerifier("secret")
	other, _ := NewVerifier("other")

	expired, _ := v.Sign(Caller{Subject: "a"}, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))})
	noExpiry, _ := v.Sign(Caller{Subject: "a"}, jwt.RegisteredClaims{})
	forged, _ := other.Sign(Caller{Subject: "a"}, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})
	noSubject, _ := v.Sign(Caller{}, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})

	for name, token := range map[string]string{
		"expired":    expired,
		"no expiry":  noExpiry,
		"forged":     forged,
		"no subject": noSubject,
		"garbage":    "not-a-token",
	} {
		if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected invalid token, got %v", name, err)
		}
	}

	if _, err := NewVerifier(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestVerifierDefaultsRoleToUser(t *testing.T) {
	v, _ := NewVerifier("secret")
	token, _ := v.Sign(Caller{Subject: "a", Role: "superuser"}, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})
	c, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if c.Role != RoleUser {
		t.Fatalf("expected USER role, got %s", c.Role)
	}
}
