package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxNameLength         = 255
	MaxBioLength          = 1000
	MaxAvailabilityLength = 255
	MaxPhoneLength        = 32
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	phoneRegex       = regexp.MustCompile(`^\+?[0-9 ()-]{5,}$`)
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// NormalizeEmail приводит email к виду, в котором он хранится.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}
	localPart, domainPart := parts[0], parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}
	if !emailLocalRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}
	return nil
}

// ValidateName проверяет имя или фамилию.
func ValidateName(fieldName, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%s обязательно", fieldName)
	}
	return ValidateLength(fieldName, value, 0, MaxNameLength)
}

func ValidateOptional(fieldName string, value *string, max int) error {
	if value == nil {
		return nil
	}
	return ValidateLength(fieldName, strings.TrimSpace(*value), 0, max)
}

func ValidatePhone(phone *string) error {
	if phone == nil || *phone == "" {
		return nil
	}
	if len(*phone) > MaxPhoneLength || !phoneRegex.MatchString(*phone) {
		return fmt.Errorf("некорректный номер телефона")
	}
	return nil
}
