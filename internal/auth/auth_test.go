package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func withSecret(t *testing.T) {
	t.Helper()
	ResetSecretForTests()
	t.Setenv(secretEnvVariable, "unit-test-secret")
	t.Cleanup(ResetSecretForTests)
}

func TestGenerateAndValidate(t *testing.T) {
	withSecret(t)

	token, err := GenerateToken("transaction-service", []string{"Account:Read", "account:write", "account:read"}, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != "transaction-service" {
		t.Fatalf("subject=%q", claims.Subject)
	}
	if len(claims.Scopes) != 2 {
		t.Fatalf("scopes=%v, want deduplicated pair", claims.Scopes)
	}
	if !claims.HasScope(ScopeAccountRead) || !claims.HasScope(ScopeAccountWrite) {
		t.Fatalf("scopes missing: %v", claims.Scopes)
	}
	if claims.HasScope(ScopeTransaction) {
		t.Fatalf("unexpected transaction scope")
	}
}

func TestAdminImpliesAllScopes(t *testing.T) {
	withSecret(t)

	token, err := GenerateToken("gateway", []string{ScopeAdmin}, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	for _, scope := range []string{ScopeAccountRead, ScopeAccountWrite, ScopeTransaction} {
		if !claims.HasScope(scope) {
			t.Fatalf("admin token missing %s", scope)
		}
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	withSecret(t)

	token, err := GenerateToken("account-service", []string{ScopeAccountRead}, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + ".AAAA"
	if _, err := ParseAndValidate(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestGenerateTokenValidation(t *testing.T) {
	withSecret(t)

	if _, err := GenerateToken("", nil, time.Minute); err == nil {
		t.Fatalf("expected error for empty subject")
	}
	if _, err := GenerateToken("svc", nil, 0); err == nil {
		t.Fatalf("expected error for non-positive ttl")
	}
}

func TestClientRegistry(t *testing.T) {
	withSecret(t)

	reg := NewClientRegistry([]Client{
		{ID: "transaction-service", Secret: "s3cret", Scopes: []string{ScopeAccountRead, ScopeAccountWrite}},
	})

	c, err := reg.Authenticate("transaction-service", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	token, err := reg.Issue(c)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if !claims.HasScope(ScopeAccountWrite) {
		t.Fatalf("issued token missing registered scope")
	}

	if _, err := reg.Authenticate("transaction-service", "wrong"); !errors.Is(err, ErrUnknownClient) {
		t.Fatalf("got %v, want ErrUnknownClient", err)
	}
	if _, err := reg.Authenticate("nobody", "s3cret"); !errors.Is(err, ErrUnknownClient) {
		t.Fatalf("got %v, want ErrUnknownClient", err)
	}
}

func TestContextCaller(t *testing.T) {
	ctx := ContextWithCaller(context.Background(), "gateway", []string{ScopeTransaction})
	if sub, ok := SubjectFromContext(ctx); !ok || sub != "gateway" {
		t.Fatalf("subject=%q ok=%v", sub, ok)
	}
	if !HasScope(ctx, ScopeTransaction) {
		t.Fatalf("missing transaction scope")
	}
	if HasScope(ctx, ScopeAccountWrite) {
		t.Fatalf("unexpected account:write scope")
	}
}
