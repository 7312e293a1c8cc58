package validation

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// isValidEmail matches the portal frontend: /^[^\s@]+@[^\s@]+\.[^\s@]+$/
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("portal_password", func(fl validator.FieldLevel) bool {
		return IsValidPassword(fl.Field().String())
	})
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// Struct validates a request DTO against its `validate` tags.
func Struct(s interface{}) error {
	return validate.Struct(s)
}

// FieldError is one failed rule, rendered into the error envelope's details.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Messages turns validator errors into readable per-field messages. Other errors yield nil.
func Messages(err error) []FieldError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	out := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, FieldError{
			Field:   toSnake(e.Field()),
			Tag:     e.Tag(),
			Message: message(e),
		})
	}
	return out
}

func message(e validator.FieldError) string {
	field := toSnake(e.Field())
	switch e.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "email":
		return "Invalid email format"
	case "gt":
		return field + " must be greater than " + e.Param()
	case "min":
		return field + " must be at least " + e.Param() + " characters"
	case "max":
		return field + " must be at most " + e.Param() + " characters"
	case "oneof":
		return field + " must be one of: " + e.Param()
	case "uuid":
		return field + " must be a valid id"
	case "portal_password":
		return "Password must be at least 8 characters and contain a letter, a number and a special character"
	default:
		return field + " is invalid"
	}
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidPassword enforces the registration rule:
// - at least 8 characters
// - contains at least one letter
// - contains at least one number
// - contains at least one special character
func IsValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter, hasDigit, hasSpecial := false, false, false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	return hasLetter && hasDigit && hasSpecial
}
