package utils

import (
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
	digitsOnly   = regexp.MustCompile(`^[0-9]+$`)
	phoneChars   = regexp.MustCompile(`^[0-9+()./\- ]+$`)
)

// Validator returns the shared validator with the dashboard's custom rules.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
			return digitsOnly.MatchString(fl.Field().String())
		})
	})
	return validate
}

// IsDigits reports whether s consists of exactly n decimal digits.
func IsDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	return Validator().Var(s, "required,digits") == nil
}

// IsOneOf reports whether value is one of the allowed values.
func IsOneOf(value string, allowed ...string) bool {
	return Validator().Var(value, "oneof="+strings.Join(allowed, " ")) == nil
}

// NormalizePhone formats valid numbers as E164 and leaves anything else trimmed.
// Input with letters is never parsed, since libphonenumber maps them to keypad digits.
func NormalizePhone(phone string, region string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || !phoneChars.MatchString(phone) {
		return phone
	}
	p, err := libphonenumber.Parse(phone, region)
	if err != nil || !libphonenumber.IsValidNumber(p) {
		return phone
	}
	return libphonenumber.Format(p, libphonenumber.E164)
}
