package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var ErrMalformedAmount = errors.New("Amount must be a decimal number")

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct checks `validate` tags on a request body and reports the first
// failing field by its JSON name.
func Struct(body interface{}) error {
	err := validate.Struct(body)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "uuid":
		return fmt.Errorf("Invalid UUID format for %s", fe.Field())
	case "oneof":
		return fmt.Errorf("%s must be one of %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return fmt.Errorf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Errorf("%s is invalid", fe.Field())
	}
}

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// ParseUUID parses a path or body id; the bool is false for empty or malformed input.
func ParseUUID(s string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// ParseAmount accepts a JSON number or string ("245000", "245000.50").
// Range and precision checks belong to the offer ledger.
func ParseAmount(raw interface{}) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, ErrMalformedAmount
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case nil:
		return decimal.Zero, ErrMalformedAmount
	default:
		return decimal.Zero, ErrMalformedAmount
	}
}

// ParsePage reads page/limit query values, clamping to sane bounds.
func ParsePage(pageStr, limitStr string) (page, limit int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}
