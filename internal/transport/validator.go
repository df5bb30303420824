package transport

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

var (
	egyptMobile = regexp.MustCompile(`^((\+?20)|0)?1[0125]\d{8}$`)
	saudiMobile = regexp.MustCompile(`^((\+?966)|0)?5\d{8}$`)
)

// Validator plugs go-playground/validator into echo's Context.Validate.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return MobilePhone(fl.Field().String())
	})
	return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error {
	return cv.v.Struct(i)
}

// StrongPassword requires an upper-case letter, a digit and a symbol.
func StrongPassword(s string) bool {
	var upper, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			special = true
		}
	}
	return upper && digit && special
}

// MobilePhone accepts Egyptian and Saudi mobile numbers.
func MobilePhone(s string) bool {
	return egyptMobile.MatchString(s) || saudiMobile.MatchString(s)
}

// Message renders validation failures as one client facing sentence. ok is
// false when err holds no validation errors.
func Message(err error) (msg string, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "", false
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+": "+describe(fe))
	}
	return "Validation Error: " + strings.Join(parts, ", "), true
}

func describe(fe validator.FieldError) string {
	numeric, items := false, false
	switch fe.Kind() {
	case reflect.Int, reflect.Int64, reflect.Float64, reflect.Float32:
		numeric = true
	case reflect.Slice:
		items = true
	}

	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid id"
	case "eqfield":
		return "Passwords do not match"
	case "strongpassword":
		return "must contain an upper-case letter, a number and a special character"
	case "mobile":
		return "must be an Egyptian or Saudi mobile number"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "len":
		return fmt.Sprintf("must be %s characters long", fe.Param())
	case "numeric":
		return "must contain digits only"
	case "min", "gte":
		if numeric {
			return "must be at least " + fe.Param()
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max", "lte":
		if items {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		if numeric {
			return "must be at most " + fe.Param()
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return "must be greater than " + fe.Param()
	}
	return "is invalid"
}
