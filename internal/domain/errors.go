package domain

import "fmt"

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

// Это позволяет использовать errors.Is()
func (e *DomainError) Is(target error) bool {
	if t, ok := target.(*DomainError); ok {
		return e.Code == t.Code
	}
	return false
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	CodeNotFound        = "NOT_FOUND"
	CodeNotOwner        = "NOT_OWNER"
	CodeNotMember       = "NOT_MEMBER"
	CodeAlreadyMember   = "ALREADY_MEMBER"
	CodeAlreadyOwnsTeam = "ALREADY_OWNS_TEAM"
	CodeInvalidToken    = "INVALID_TOKEN"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeInvalidAsset    = "INVALID_ASSET"
	CodeForbidden       = "FORBIDDEN"
	CodeBusy            = "BUSY"
	CodeStorageFailure  = "STORAGE_FAILURE"
)

var (
	// ErrNotFound - ресурс не найден
	ErrNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "resource not found",
	}

	// ErrNotOwner - действие доступно только владельцу команды
	ErrNotOwner = &DomainError{
		Code:    CodeNotOwner,
		Message: "user is not the team owner",
	}

	// ErrNotMember - пользователь не состоит в команде
	ErrNotMember = &DomainError{
		Code:    CodeNotMember,
		Message: "user is not a team member",
	}

	// ErrAlreadyMember - пользователь уже состоит в команде
	ErrAlreadyMember = &DomainError{
		Code:    CodeAlreadyMember,
		Message: "user is already a team member",
	}

	// ErrAlreadyOwnsTeam - пользователь уже создал команду
	ErrAlreadyOwnsTeam = &DomainError{
		Code:    CodeAlreadyOwnsTeam,
		Message: "user already owns a team",
	}

	// ErrInvalidToken - токен приглашения не совпадает с текущим
	ErrInvalidToken = &DomainError{
		Code:    CodeInvalidToken,
		Message: "invite token is invalid",
	}

	ErrInvalidInput = &DomainError{
		Code:    CodeInvalidInput,
		Message: "invalid input",
	}

	ErrInvalidAsset = &DomainError{
		Code:    CodeInvalidAsset,
		Message: "invalid asset",
	}

	// ErrForbidden - операция запрещена политикой (например, выход владельца)
	ErrForbidden = &DomainError{
		Code:    CodeForbidden,
		Message: "operation is not allowed",
	}

	// ErrBusy - не удалось захватить блокировку за отведенное время
	ErrBusy = &DomainError{
		Code:    CodeBusy,
		Message: "resource is busy, retry later",
	}

	ErrStorageFailure = &DomainError{
		Code:    CodeStorageFailure,
		Message: "storage failure",
	}
)

// NewNotFoundError создает ошибку NOT_FOUND с дополнительным контекстом
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewInvalidInputError создает ошибку INVALID_INPUT с описанием проблемы
func NewInvalidInputError(message string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidInput,
		Message: message,
	}
}

func NewInvalidAssetError(message string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidAsset,
		Message: message,
	}
}

func NewForbiddenError(message string) *DomainError {
	return &DomainError{
		Code:    CodeForbidden,
		Message: message,
	}
}

// NewStorageError оборачивает ошибку хранилища, сохраняя причину для errors.Unwrap
func NewStorageError(op string, err error) *DomainError {
	return &DomainError{
		Code:    CodeStorageFailure,
		Message: op + " failed",
		Err:     err,
	}
}
