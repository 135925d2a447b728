package domain

import (
	"errors"
	"fmt"
)

const (
	CodeTransport    = "TRANSPORT_ERROR"
	CodeWriteFailed  = "WRITE_FAILED"
	CodePrecondition = "PRECONDITION_FAILED"
	CodeInvalidInput = "INVALID_INPUT"
	CodeNotFound     = "NOT_FOUND"
)

type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Это позволяет использовать errors.Is()
func (e *DomainError) Is(target error) bool {
	if t, ok := target.(*DomainError); ok {
		return e.Code == t.Code
	}
	return false
}

var (
	// ErrTransport - подписка или разовое чтение не удались, кэш остаётся прежним
	ErrTransport = &DomainError{
		Code:    CodeTransport,
		Message: "remote store is unavailable",
	}

	// ErrWriteFailed - запись мутации в хранилище не удалась
	ErrWriteFailed = &DomainError{
		Code:    CodeWriteFailed,
		Message: "remote write failed",
	}

	// ErrPrecondition - отсутствует обязательный идентификатор
	ErrPrecondition = &DomainError{
		Code:    CodePrecondition,
		Message: "required identifier is missing",
	}

	// ErrInvalidInput - некорректные входные данные
	ErrInvalidInput = &DomainError{
		Code:    CodeInvalidInput,
		Message: "invalid input",
	}

	// ErrNotFound - ресурс не найден
	ErrNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "resource not found",
	}
)

func NewTransportError(op string, err error) *DomainError {
	return &DomainError{
		Code:    CodeTransport,
		Message: fmt.Sprintf("failed to %s", op),
		Err:     err,
	}
}

func NewWriteFailure(path string, err error) *DomainError {
	return &DomainError{
		Code:    CodeWriteFailed,
		Message: fmt.Sprintf("failed to write %s", path),
		Err:     err,
	}
}

// NewPreconditionError создает ошибку для отсутствующего идентификатора (пользователь, группа, ключ)
func NewPreconditionError(what string) *DomainError {
	return &DomainError{
		Code:    CodePrecondition,
		Message: fmt.Sprintf("%s is required", what),
	}
}

func NewInvalidInputError(message string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidInput,
		Message: message,
	}
}

// NewNotFoundError создает ошибку NOT_FOUND с дополнительным контекстом
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// IsPermanent сообщает, что повтор операции не поможет
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPrecondition) || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNotFound)
}
