// Package validation checks decoded request bodies and reports problems as
// field errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/licensing"
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// custom tags
const (
	notBlankTag   = "notblank"
	dateTag       = "date"
	permissionTag = "permission"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	var err error
	validate, translator, err = newValidator()
	if err != nil {
		panic("validation: " + err.Error())
	}
}

func newValidator() (*validator.Validate, ut.Translator, error) {
	v := validator.New()

	english := en.New()
	uni := ut.New(english, english)
	trans, found := uni.GetTranslator("en")
	if !found {
		return nil, nil, errors.New("english translator not found")
	}
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, nil, fmt.Errorf("registering default translations: %w", err)
	}

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	custom := map[string]validator.Func{
		notBlankTag:   notBlank,
		dateTag:       calendarDate,
		permissionTag: permissionKey,
	}
	noop := func(ut.Translator) error { return nil }
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, nil, fmt.Errorf("registering %s: %w", tag, err)
		}
		if err := v.RegisterTranslation(tag, trans, noop, translateCustom); err != nil {
			return nil, nil, fmt.Errorf("registering %s translation: %w", tag, err)
		}
	}

	return v, trans, nil
}

// Struct validates v and returns one FieldError per failing field, or nil.
func Struct(v any) []FieldError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fieldPath(fe), Message: fe.Translate(translator)})
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace, so nested
// and slice fields read as "permissions[1]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case dateTag:
		return fe.Field() + " must be a date in YYYY-MM-DD format"
	case permissionTag:
		return fe.Field() + " is not a known permission"
	default:
		return fe.Error()
	}
}

func notBlank(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return false
}

func calendarDate(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := licensing.ParseDate(s)
	return err == nil
}

func permissionKey(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := access.ParsePermission(s)
	return err == nil
}
