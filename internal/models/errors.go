package models

import (
	"errors"
	"fmt"
)

// Категории ошибок бизнес-логики. Проверяются через errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrInvalidState     = errors.New("invalid state")
	ErrValidation       = errors.New("validation error")
	ErrAlreadyExists    = errors.New("already exists")
	ErrUnauthorized     = errors.New("unauthorized")
)

// Error несёт категорию ошибки и человеко-читаемое сообщение для клиента API.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Errorf создаёт Error заданной категории.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
