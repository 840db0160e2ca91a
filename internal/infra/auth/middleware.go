package auth

import (
	"context"
	"net/http"

	"github.com/xela07ax/dashbot/internal/domain"
	"go.uber.org/zap"
)

// TokenValidator — интерфейс проверки браузерной сессии.
type TokenValidator interface {
	VerifyToken(tokenStr string) (*domain.SessionClaims, error)
}

// ctxKey — тип для ключей контекста (избегаем коллизий)
type ctxKey string

const userIDKey ctxKey = "user_id"

// UserID достает идентификатор авторизованного пользователя из контекста запроса.
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// NewSessionMiddleware защищает браузерный периметр.
// Токен принимаем из Authorization либо из query (?token=) — WebSocket
// в браузере не умеет ставить заголовки на upgrade-запрос.
func NewSessionMiddleware(v TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := r.Header.Get("Authorization")
			if tokenStr == "" {
				tokenStr = r.URL.Query().Get("token")
			}
			if tokenStr == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := v.VerifyToken(tokenStr)
			if err != nil {
				logger.Warn("session auth failure", zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Прокидываем данные в контекст
			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PluginTokenVerifier — интерфейс проверки bearer-токена плагина.
type PluginTokenVerifier interface {
	VerifyPluginToken(header string) error
}

// NewPluginMiddleware защищает периметр пушей внешнего агента.
func NewPluginMiddleware(v PluginTokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := v.VerifyPluginToken(r.Header.Get("Authorization")); err != nil {
				logger.Warn("plugin auth failure", zap.String("remote", r.RemoteAddr))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
