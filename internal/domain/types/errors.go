package types

import "errors"

var (
	// ожидаемые результаты переходов, не ретраятся
	ErrRideNotFound      = errors.New("ride not found")
	ErrInvalidTransition = errors.New("invalid ride status transition")
	ErrAlreadyTerminal   = errors.New("ride is already completed or cancelled")
	ErrNotOwner          = errors.New("actor does not own the ride")

	// адрес подачи обязателен, геокодер может заполнить его сам
	ErrAddressRequired = errors.New("pickup address is required")

	// ErrStatusConflict is returned by storage when the conditional update matched zero rows
	ErrStatusConflict = errors.New("ride status changed concurrently")

	ErrDatabaseFailed = errors.New("database operation failed")
	ErrInvalidStatus  = errors.New("invalid ride status")
	ErrNotFound       = errors.New("requested item not found")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
