package models

import "errors"

// Ошибки уровня приложения
var (
	// Ресурсы и БД
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource was modified concurrently")

	// Каталог упражнений недоступен (файл не читается, таблица пуста и т.п.)
	ErrDataUnavailable = errors.New("exercises data not available")

	// Аутентификация
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Токены
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// Запрос
	ErrInvalidInput   = errors.New("invalid input data")
	ErrInternalServer = errors.New("internal server error")
)
