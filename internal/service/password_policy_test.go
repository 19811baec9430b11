package service

import (
	"testing"

	"github.com/edupass/internal/config"
)

func TestIsValidPassword(t *testing.T) {
	cases := []struct {
		name     string
		password string
		want     bool
	}{
		{"four classes", "Abc123!x", true},
		{"digit as separator", "strin(1)G", true},
		{"lowercase only", "string", false},
		{"missing special", "Abc12345", false},
		{"missing digit", "Abcdef!!", false},
		{"missing upper", "abc123!x", false},
		{"missing lower", "ABC123!X", false},
		{"empty", "", false},
		{"unicode letter counts as special", "Abc123好", true},
		{"space counts as special", "Abc 123", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsValidPassword(tc.password); got != tc.want {
				t.Fatalf("IsValidPassword(%q) = %v, want %v", tc.password, got, tc.want)
			}
		})
	}
}

func TestValidatePasswordPolicy(t *testing.T) {
	strict := config.PasswordPolicyConfig{
		RequireUpper:   true,
		RequireLower:   true,
		RequireNumber:  true,
		RequireSpecial: true,
	}

	if err := validatePassword(strict, "Abc123!x"); err != nil {
		t.Fatalf("expected valid password, got %v", err)
	}
	if err := validatePassword(strict, "abc123!x"); err == nil {
		t.Fatal("expected rejection for missing uppercase")
	}

	withLength := strict
	withLength.MinLength = 10
	if err := validatePassword(withLength, "Abc123!x"); err == nil {
		t.Fatal("expected rejection for short password")
	}
	if err := validatePassword(withLength, "Abc123!xyz"); err != nil {
		t.Fatalf("expected valid password at min length, got %v", err)
	}

	relaxed := config.PasswordPolicyConfig{RequireLower: true, RequireNumber: true}
	if err := validatePassword(relaxed, "abc123"); err != nil {
		t.Fatalf("relaxed policy should accept lower+number, got %v", err)
	}
}
