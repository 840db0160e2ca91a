package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xela07ax/dashbot/internal/domain"
)

// writeJSON сериализует ответ. Ошибку энкодера глотаем: заголовки уже ушли.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorBody — единый формат ошибок API. Current заполняется для конфликтов:
// вызывающий получает актуальное состояние и реконсилит свой UI.
type errorBody struct {
	Error   string      `json:"error"`
	Current interface{} `json:"current,omitempty"`
}

// writeError маппит таксономию доменных ошибок на HTTP-статусы.
func writeError(w http.ResponseWriter, err error) {
	writeErrorState(w, err, nil)
}

func writeErrorState(w http.ResponseWriter, err error, current interface{}) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		// Внутренности не показываем наружу
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg, Current: current})
}
