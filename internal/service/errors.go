package service

import "errors"

// Ошибки валидации сервисного слоя
var (
	ErrInvalidURL      = errors.New("invalid destination url")
	ErrInvalidTitle    = errors.New("title must not be empty")
	ErrInvalidStatus   = errors.New("invalid link status")
	ErrInvalidAmount   = errors.New("amount must be a finite number")
	ErrInvalidCurrency = errors.New("currency must be a 3-letter code")
	ErrInvalidUser     = errors.New("invalid user data")
	ErrCodeGeneration  = errors.New("failed to generate unique short code")
	ErrProcessorClosed = errors.New("click processor is stopped")
)
