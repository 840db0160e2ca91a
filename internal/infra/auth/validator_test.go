package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xela07ax/dashbot/internal/domain"
)

func TestVerifyPluginToken(t *testing.T) {
	v := NewPluginValidator("s3cret-plugin-token")

	tests := []struct {
		name   string
		header string
		wantOK bool
	}{
		{"exact token with prefix", "Bearer s3cret-plugin-token", true},
		{"raw token without prefix", "s3cret-plugin-token", true},
		{"trailing whitespace", "Bearer s3cret-plugin-token  ", true},
		{"wrong token", "Bearer nope", false},
		{"prefix of the token", "Bearer s3cret-plugin", false},
		{"token plus suffix", "Bearer s3cret-plugin-token-x", false},
		{"empty header", "", false},
		{"bare prefix", "Bearer ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.VerifyPluginToken(tt.header)
			if tt.wantOK && err != nil {
				t.Errorf("VerifyPluginToken(%q) = %v, want nil", tt.header, err)
			}
			if !tt.wantOK && err == nil {
				t.Errorf("VerifyPluginToken(%q) = nil, want error", tt.header)
			}
		})
	}
}

func signedToken(t *testing.T, method jwt.SigningMethod, secret []byte, expiresIn time.Duration) string {
	t.Helper()
	claims := &domain.SessionClaims{
		UserID: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "dashbot",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	s, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestVerifyToken(t *testing.T) {
	secret := []byte("jwt-test-secret")
	v := NewSessionValidator(secret)

	t.Run("valid token", func(t *testing.T) {
		claims, err := v.VerifyToken("Bearer " + signedToken(t, jwt.SigningMethodHS256, secret, time.Hour))
		if err != nil {
			t.Fatalf("VerifyToken: %v", err)
		}
		if claims.UserID != "u-1" {
			t.Errorf("UserID = %q, want u-1", claims.UserID)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		if _, err := v.VerifyToken(signedToken(t, jwt.SigningMethodHS256, secret, -time.Minute)); err == nil {
			t.Error("expired token accepted")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		if _, err := v.VerifyToken(signedToken(t, jwt.SigningMethodHS256, []byte("other"), time.Hour)); err == nil {
			t.Error("token signed with another secret accepted")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := v.VerifyToken("not-a-jwt"); err == nil {
			t.Error("garbage token accepted")
		}
	})
}
