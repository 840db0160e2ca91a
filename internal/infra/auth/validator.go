package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xela07ax/dashbot/internal/domain"
)

// PluginValidator проверяет общий bearer-токен внешнего агента.
// Сравнение — строго в константное время, чтобы не течь длиной/префиксом.
type PluginValidator struct {
	tokenHash [32]byte
}

func NewPluginValidator(token string) *PluginValidator {
	// Храним хэш, а не сам секрет: выравнивает длину для subtle
	// и не оставляет plaintext в куче процесса.
	return &PluginValidator{tokenHash: sha256.Sum256([]byte(token))}
}

// VerifyPluginToken принимает значение заголовка Authorization целиком.
func (v *PluginValidator) VerifyPluginToken(header string) error {
	token := strings.TrimPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ErrUnauthorized
	}

	presented := sha256.Sum256([]byte(token))
	if subtle.ConstantTimeCompare(presented[:], v.tokenHash[:]) != 1 {
		return domain.ErrUnauthorized
	}
	return nil
}

// SessionValidator содержит общую логику проверки браузерных JWT (HS256).
type SessionValidator struct {
	secret []byte
}

func NewSessionValidator(secret []byte) *SessionValidator {
	return &SessionValidator{secret: secret}
}

// VerifyToken проверяет JWT токен, подписанный общим секретом HS256.
func (v *SessionValidator) VerifyToken(tokenStr string) (*domain.SessionClaims, error) {
	tokenStr = strings.TrimPrefix(tokenStr, "Bearer ")
	tokenStr = strings.TrimSpace(tokenStr)

	token, err := jwt.ParseWithClaims(tokenStr, &domain.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*domain.SessionClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims")
	}

	return claims, nil
}
