package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

const (
	MinPasswordLength = 8
	// bcrypt учитывает только первые 72 байта пароля.
	MaxPasswordBytes = 72
)

// PasswordProblems перечисляет все нарушения правил пароля сразу.
// Пустой результат означает, что пароль подходит.
func PasswordProblems(password, email string) []string {
	var problems []string
	if utf8.RuneCountInString(password) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf("не менее %d символов", MinPasswordLength))
	}
	if len(password) > MaxPasswordBytes {
		problems = append(problems, fmt.Sprintf("не более %d байт", MaxPasswordBytes))
	}

	var upper, lower, digit, space bool
	for _, r := range password {
		upper = upper || unicode.IsUpper(r)
		lower = lower || unicode.IsLower(r)
		digit = digit || unicode.IsDigit(r)
		space = space || unicode.IsSpace(r)
	}
	if !upper {
		problems = append(problems, "хотя бы одна заглавная буква")
	}
	if !lower {
		problems = append(problems, "хотя бы одна строчная буква")
	}
	if !digit {
		problems = append(problems, "хотя бы одна цифра")
	}
	if space {
		problems = append(problems, "без пробелов")
	}

	local, _, _ := strings.Cut(NormalizeEmail(email), "@")
	if len(local) >= 3 && strings.Contains(strings.ToLower(password), local) {
		problems = append(problems, "не должен содержать email")
	}
	return problems
}

// CheckPassword добавляет в errs одну ошибку поля со всеми нарушениями через «; ».
func CheckPassword(errs *apperror.FieldErrors, field, password, email string) {
	if problems := PasswordProblems(password, email); len(problems) > 0 {
		errs.Add(field, "пароль: "+strings.Join(problems, "; "))
	}
}
