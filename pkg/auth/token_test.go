package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/pipeline-crm/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func testIdentityConfig() config.IdentityConfig {
	return config.IdentityConfig{
		JWTSecret:       "secret",
		Issuer:          "https://auth.example.com/auth/v1",
		Audience:        "authenticated",
		TokenTTLMinutes: 30,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testIdentityConfig()
	now := time.Now().UTC()
	userID := uuid.NewString()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: userID, Email: "ana@example.com", JTI: "jti-1"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID() != userID {
		t.Fatalf("expected sub %s, got %s", userID, claims.UserID())
	}
	if claims.Email != "ana@example.com" {
		t.Fatalf("unexpected email %q", claims.Email)
	}
	if claims.ID != "jti-1" {
		t.Fatalf("expected jti preserved, got %q", claims.ID)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(cfg.TokenTTL())
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp.UTC(), claims.ExpiresAt.UTC(), diff)
	}
}

func TestMintGeneratesJTI(t *testing.T) {
	cfg := testIdentityConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: "user-1"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		t.Fatalf("expected generated uuid jti, got %q", claims.ID)
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := testIdentityConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: "user-1"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testIdentityConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{UserID: "user-1"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseAccessTokenWrongAudience(t *testing.T) {
	cfg := testIdentityConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: "user-1"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	other := cfg
	other.Audience = "service_role"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected audience mismatch error")
	}
}

func TestParseAccessTokenRequiresSubject(t *testing.T) {
	cfg := testIdentityConfig()
	claims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAccessToken(cfg, signed); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected missing subject error, got %v", err)
	}
}

func TestMintAccessTokenRequiresUser(t *testing.T) {
	if _, err := MintAccessToken(testIdentityConfig(), time.Now(), AccessTokenPayload{}); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected missing subject error, got %v", err)
	}
}
