package validation

import (
	"strings"
	"testing"

	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"anna@example.com", false},
		{"  Anna.Petrova+gigs@Example.RU ", false},
		{"", true},
		{"anna", true},
		{"anna@@example.com", true},
		{"anna@localhost", true},
		{"an na@example.com", true},
	}
	for _, tt := range tests {
		if err := ValidateEmail(tt.email); (err != nil) != tt.wantErr {
			t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
		}
	}
}

func TestPasswordProblems(t *testing.T) {
	tests := []struct {
		password string
		email    string
		want     int
	}{
		{"Secret123", "anna@example.com", 0},
		{"short1A", "", 1},
		{"alllowercase1", "", 1},
		{"ALLUPPERCASE1", "", 1},
		{"NoDigitsHere", "", 1},
		{"Pass word1", "", 1},
		{"Anna2024secret", "anna@example.com", 1},
		{"abc", "", 3},
		{"Aa1" + strings.Repeat("x", MaxPasswordBytes), "", 1},
	}
	for _, tt := range tests {
		if got := PasswordProblems(tt.password, tt.email); len(got) != tt.want {
			t.Errorf("PasswordProblems(%q) = %v, want %d problems", tt.password, got, tt.want)
		}
	}
}

func TestCheckPasswordCollectsFieldErrors(t *testing.T) {
	var errs apperror.FieldErrors
	CheckPassword(&errs, "password", "Secret123", "")
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}

	CheckPassword(&errs, "password", "abc", "")
	if len(errs) != 1 || errs[0].Field != "password" {
		t.Fatalf("expected one password error, got %v", errs)
	}
	if n := strings.Count(errs[0].Message, ";"); n != 2 {
		t.Errorf("expected three joined problems, got %q", errs[0].Message)
	}
}

func TestValidateNameAndOptional(t *testing.T) {
	if err := ValidateName("имя", "  "); err == nil {
		t.Error("expected error for blank name")
	}
	long := strings.Repeat("я", MaxBioLength+1)
	if err := ValidateOptional("о себе", &long, MaxBioLength); err == nil {
		t.Error("expected error for long bio")
	}
	if err := ValidateOptional("о себе", nil, MaxBioLength); err != nil {
		t.Errorf("nil must pass: %v", err)
	}
	phone := "+7 (900) 123-45-67"
	if err := ValidatePhone(&phone); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
