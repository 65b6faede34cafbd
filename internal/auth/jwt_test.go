package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/fadebook/fadebook/internal/auth"
)

func newTestManager() *auth.Manager {
	return auth.NewManager("access-secret", "refresh-secret", time.Hour, 30*24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	tok, err := m.GenerateAccessToken("user-1", "jane@example.com", "CUSTOMER")
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}

	claims, err := m.VerifyAccessToken(tok)
	if err != nil {
		t.Fatalf("verify access token: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Fatalf("unexpected user id: %q", claims.UserID)
	}
	if claims.Email != "jane@example.com" || claims.Role != "CUSTOMER" {
		t.Fatalf("unexpected identity claims: %+v", claims)
	}
}

func TestExpiredAccessTokenIsReportedAsExpired(t *testing.T) {
	// negative TTL mints an already-expired token
	expired := auth.NewManager("access-secret", "refresh-secret", -time.Minute, 30*24*time.Hour)

	tok, err := expired.GenerateAccessToken("user-1", "jane@example.com", "CUSTOMER")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = newTestManager().VerifyAccessToken(tok)

	if !errors.Is(err, auth.ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
}

func TestWrongSecretIsInvalidNotExpired(t *testing.T) {
	other := auth.NewManager("other-access", "other-refresh", time.Hour, time.Hour)

	tok, err := other.GenerateAccessToken("user-1", "jane@example.com", "CUSTOMER")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = newTestManager().VerifyAccessToken(tok)

	if !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("want ErrTokenInvalid, got %v", err)
	}
}

func TestTokenTypeConfusionIsRejected(t *testing.T) {
	m := newTestManager()

	refresh, _, err := m.GenerateRefreshToken("user-1")
	if err != nil {
		t.Fatalf("generate refresh: %v", err)
	}

	// a refresh token signed with the refresh secret can never pass the
	// access check: wrong secret, wrong type
	if _, err := m.VerifyAccessToken(refresh); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("refresh-as-access: want ErrTokenInvalid, got %v", err)
	}

	access, err := m.GenerateAccessToken("user-1", "jane@example.com", "CUSTOMER")
	if err != nil {
		t.Fatalf("generate access: %v", err)
	}

	if _, err := m.VerifyRefreshToken(access); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("access-as-refresh: want ErrTokenInvalid, got %v", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	raw, expiresAt, err := m.GenerateRefreshToken("user-9")
	if err != nil {
		t.Fatalf("generate refresh: %v", err)
	}

	if !expiresAt.After(time.Now().Add(29 * 24 * time.Hour)) {
		t.Fatalf("refresh expiry too soon: %v", expiresAt)
	}

	claims, err := m.VerifyRefreshToken(raw)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}

	if claims.UserID != "user-9" {
		t.Fatalf("unexpected user id: %q", claims.UserID)
	}

	// refresh claims carry identity only by id
	if claims.Email != "" || claims.Role != "" {
		t.Fatalf("refresh token should not carry email/role: %+v", claims)
	}
}

func TestRefreshTokensAreDistinctPerIssue(t *testing.T) {
	m := newTestManager()

	// back-to-back within the same second: the jti must still keep them
	// apart, otherwise overwriting the stored hash would not invalidate
	// the previous token
	first, _, err := m.GenerateRefreshToken("user-1")
	if err != nil {
		t.Fatalf("generate refresh: %v", err)
	}

	second, _, err := m.GenerateRefreshToken("user-1")
	if err != nil {
		t.Fatalf("generate refresh: %v", err)
	}

	if first == second {
		t.Fatal("two issued refresh tokens must never be identical")
	}
	if m.HashRefreshToken(first) == m.HashRefreshToken(second) {
		t.Fatal("stored hashes of distinct tokens must differ")
	}
}

func TestHashRefreshTokenIsDeterministicAndPeppered(t *testing.T) {
	m := newTestManager()

	raw, _, err := m.GenerateRefreshToken("user-1")
	if err != nil {
		t.Fatalf("generate refresh: %v", err)
	}

	if m.HashRefreshToken(raw) != m.HashRefreshToken(raw) {
		t.Fatal("hash should be deterministic")
	}

	other := auth.NewManager("access-secret", "different-pepper", time.Hour, time.Hour)

	if m.HashRefreshToken(raw) == other.HashRefreshToken(raw) {
		t.Fatal("hash should depend on the refresh secret")
	}
}
