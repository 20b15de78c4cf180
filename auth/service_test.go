package auth

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/viant/mcp-protocol/authorization"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func Test_Namespace(t *testing.T) {
	svc := New()

	ns, err := svc.Namespace(context.Background())
	if err != nil || ns != DefaultNamespace {
		t.Fatalf("no token: ns=%q err=%v", ns, err)
	}

	ctx := context.WithValue(context.Background(), authorization.TokenKey,
		signedToken(t, jwt.MapClaims{"email": "ann@example.com", "sub": "abc123"}))
	ns, err = svc.Namespace(ctx)
	if err != nil || ns != "ann@example.com" {
		t.Fatalf("email claim: ns=%q err=%v", ns, err)
	}

	ctx = context.WithValue(context.Background(), authorization.TokenKey,
		signedToken(t, jwt.MapClaims{"sub": "abc123"}))
	ns, err = svc.Namespace(ctx)
	if err != nil || ns != "abc123" {
		t.Fatalf("sub fallback: ns=%q err=%v", ns, err)
	}

	ctx = context.WithValue(context.Background(), authorization.TokenKey, "not-a-jwt")
	ns, err = svc.Namespace(ctx)
	if err != nil || ns != DefaultNamespace {
		t.Fatalf("unparseable token: ns=%q err=%v", ns, err)
	}

	ctx = context.WithValue(context.Background(), authorization.TokenKey, 42)
	if _, err = svc.Namespace(ctx); err == nil {
		t.Fatal("unsupported token type must error")
	}
}
