package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/xela07ax/dashbot/internal/domain"
	"golang.org/x/time/rate"
)

// TokenIssuer Описываем, что нам нужно от auth-сервиса
type TokenIssuer interface {
	GenerateToken(ctx context.Context, username, password string) (*domain.TokenResponse, error)
}

type AuthHandler struct {
	service TokenIssuer
	limiter *rate.Limiter // защита /auth/token от перебора
}

func NewAuthHandler(s TokenIssuer, rps float64, burst int) *AuthHandler {
	return &AuthHandler{
		service: s,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	resp, err := h.service.GenerateToken(r.Context(), req.Username, req.Password)
	if err != nil {
		// не уточняем, что именно неверно (логин или пароль) для защиты от перебора
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
