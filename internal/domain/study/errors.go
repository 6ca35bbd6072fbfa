package study

import (
	"fmt"

	"github.com/studytrack/study-dashboard/internal/domain/shared"
)

// ValidationError описывает отклонённое значение конкретного поля.
type ValidationError struct {
	Entity  string
	Field   string
	Message string
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Entity, e.Field, e.Message)
}

// Is позволяет проверять ошибку через errors.Is(err, shared.ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == shared.ErrValidation
}

func invalidField(entity, field, message string) error {
	return &ValidationError{Entity: entity, Field: field, Message: message}
}

// ModuleNotFound возвращает ошибку для неизвестного кода модуля.
func ModuleNotFound(op, code string) error {
	return shared.NewDomainError("module", op, shared.ErrNotFound, fmt.Sprintf("module %q not found", code))
}

// ModuleCodeTaken возвращает ошибку для занятого кода модуля.
func ModuleCodeTaken(op, code string) error {
	return shared.NewDomainError("module", op, shared.ErrAlreadyExists, fmt.Sprintf("module code %q already exists", code))
}

// SemesterNotFound возвращает ошибку для неизвестного номера семестра.
func SemesterNotFound(op string, number int) error {
	return shared.NewDomainError("semester", op, shared.ErrNotFound, fmt.Sprintf("semester %d not found", number))
}

// ExamResultNotFound возвращает ошибку для неизвестного id результата.
func ExamResultNotFound(op string, id int64) error {
	return shared.NewDomainError("exam_result", op, shared.ErrNotFound, fmt.Sprintf("exam result %d not found", id))
}

// EnrollmentNotFound возвращает ошибку для неизвестной тройки.
func EnrollmentNotFound(op string, key EnrollmentKey) error {
	return shared.NewDomainError("enrollment", op, shared.ErrNotFound, fmt.Sprintf("enrollment %s not found", key))
}

// EnrollmentExists возвращает ошибку, если тройка уже существует.
func EnrollmentExists(op string, key EnrollmentKey) error {
	return shared.NewDomainError("enrollment", op, shared.ErrAlreadyExists, fmt.Sprintf("enrollment %s already exists", key))
}
