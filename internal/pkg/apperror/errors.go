package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorCode string

const (
	ErrCodeNotFound                 ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized             ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden                ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest               ErrorCode = "BAD_REQUEST"
	ErrCodeConflict                 ErrorCode = "CONFLICT"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation               ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError            ErrorCode = "DATABASE_ERROR"
	ErrCodeInfrastructure           ErrorCode = "INFRASTRUCTURE_ERROR"
	ErrCodeDuplicateApplication     ErrorCode = "DUPLICATE_APPLICATION"
	ErrCodeCapacityExceeded         ErrorCode = "CAPACITY_EXCEEDED"
	ErrCodeGigNotOpen               ErrorCode = "GIG_NOT_OPEN"
	ErrCodeRequirementsNotConfirmed ErrorCode = "REQUIREMENTS_NOT_CONFIRMED"
	ErrCodeInvalidTransition        ErrorCode = "INVALID_TRANSITION"
	ErrCodeDuplicateReview          ErrorCode = "DUPLICATE_REVIEW"
	ErrCodeAlreadyAppealed          ErrorCode = "ALREADY_APPEALED"
)

// FieldError описывает нарушение правила для одного поля запроса.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
	Fields     []FieldError
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Field+": "+f.Message)
		}
		return fmt.Sprintf("%s: %s [%s]", e.Code, e.Message, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду, чтобы errors.Is работал с sentinel-значениями.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation собирает все нарушения в одну ошибку VALIDATION_ERROR.
func Validation(fields ...FieldError) *AppError {
	return &AppError{
		Code:       ErrCodeValidation,
		Message:    "данные не прошли проверку",
		HTTPStatus: codeToHTTPStatus(ErrCodeValidation),
		Fields:     fields,
	}
}

// FieldErrors накапливает ошибки по полям.
type FieldErrors []FieldError

func (fe *FieldErrors) Add(field, message string) {
	*fe = append(*fe, FieldError{Field: field, Message: message})
}

func (fe FieldErrors) Has(field string) bool {
	for _, f := range fe {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Err возвращает nil, если нарушений нет.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return Validation(fe...)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeValidation, ErrCodeGigNotOpen, ErrCodeRequirementsNotConfirmed, ErrCodeInvalidTransition:
		return http.StatusUnprocessableEntity
	case ErrCodeConflict, ErrCodeDuplicateApplication, ErrCodeCapacityExceeded, ErrCodeDuplicateReview, ErrCodeAlreadyAppealed:
		return http.StatusConflict
	case ErrCodeInfrastructure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки или INTERNAL_ERROR для чужих ошибок.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return HasCode(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return HasCode(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return HasCode(err, ErrCodeValidation)
}

// IsRetryable сообщает, можно ли безопасно повторить операцию.
func IsRetryable(err error) bool {
	return HasCode(err, ErrCodeInfrastructure)
}

var (
	ErrGigNotFound          = New(ErrCodeNotFound, "смена не найдена")
	ErrApplicationNotFound  = New(ErrCodeNotFound, "отклик не найден")
	ErrSkillNotFound        = New(ErrCodeNotFound, "навык не найден")
	ErrConversationNotFound = New(ErrCodeNotFound, "беседа не найдена")
	ErrMessageNotFound      = New(ErrCodeNotFound, "сообщение не найдено")
	ErrPenaltyNotFound      = New(ErrCodeNotFound, "взыскание не найдено")
	ErrNotificationNotFound = New(ErrCodeNotFound, "уведомление не найдено")
	ErrUserNotFound         = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthorized         = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden            = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials   = New(ErrCodeUnauthorized, "неверные учетные данные")

	ErrDuplicateApplication     = New(ErrCodeDuplicateApplication, "вы уже откликнулись на эту смену")
	ErrCapacityExceeded         = New(ErrCodeCapacityExceeded, "свободных мест не осталось")
	ErrGigNotOpen               = New(ErrCodeGigNotOpen, "смена не принимает отклики")
	ErrRequirementsNotConfirmed = New(ErrCodeRequirementsNotConfirmed, "все требования смены должны быть подтверждены")
	ErrDuplicateReview          = New(ErrCodeDuplicateReview, "отзыв по этому отклику уже оставлен")
	ErrAlreadyAppealed          = New(ErrCodeAlreadyAppealed, "апелляция по этому взысканию уже подана")
)

// InvalidTransition формирует ошибку недопустимого перехода состояния.
func InvalidTransition(message string) *AppError {
	return New(ErrCodeInvalidTransition, message)
}
