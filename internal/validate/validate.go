// Package validate wraps go-playground/validator with the rules this
// application needs and turns failures into client-facing messages.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 64

	// passwordSpecials are the accepted special characters. A password may
	// only contain letters, digits and these.
	passwordSpecials = "@$!%*?&^#"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{3,32}$`)
	passwordRe = regexp.MustCompile(`^[A-Za-z\d@$!%*?&^#]+$`)
)

var (
	instance *validator.Validate
	once     sync.Once
)

// get returns the shared validator, registering custom rules on first use.
func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report JSON names so messages match what the client sent.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})

		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameRe.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
			return StrongPassword(fl.Field().String())
		})

		instance = v
	})
	return instance
}

// StrongPassword reports whether p is 8-64 characters and contains at least
// one lower-case letter, upper-case letter, digit and special character,
// with nothing outside those classes.
func StrongPassword(p string) bool {
	if len(p) < minPasswordLength || len(p) > maxPasswordLength || !passwordRe.MatchString(p) {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return lower && upper && digit && special
}

// Struct validates s and returns one message per failing field, in field
// order. A nil result means s is valid.
func Struct(s any) []string {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{"invalid input"}
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, message(fe))
	}
	return msgs
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "username":
		return fmt.Sprintf("%s must be 3-32 characters of letters, digits, '_', '-' or '.'", field)
	case "strongpassword":
		return fmt.Sprintf("%s must be 8-64 characters with upper and lower case letters, a digit and one of %s", field, passwordSpecials)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
