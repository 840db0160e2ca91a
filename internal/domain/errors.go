package domain

import "errors"

// Сентинельные ошибки ядра. Хендлеры маппят их на HTTP-статусы,
// сервисы оборачивают через fmt.Errorf("%w", ...), сохраняя цепочку.
var (
	// ErrNotFound — запрошенная сущность отсутствует (404)
	ErrNotFound = errors.New("not found")

	// ErrValidation — входные данные не прошли проверку (422).
	// Состояние при этом не мутируется.
	ErrValidation = errors.New("validation failed")

	// ErrConflict — конфликт состояния, например повторный ответ на карточку (409)
	ErrConflict = errors.New("conflict")

	// ErrForbidden — операция запрещена политикой, например kill основной сессии (403)
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized — невалидный токен или сессия (401)
	ErrUnauthorized = errors.New("unauthorized")
)
