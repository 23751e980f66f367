package server

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// ValidationError maps JSON field names to messages.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	if len(v) == 0 {
		return "validation error"
	}
	b, _ := json.Marshal(map[string]string(v))
	return string(b)
}

// Validator checks request structs against their validate tags.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewValidator reports fields by their json names with English messages.
func NewValidator() (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	lang := en.New()
	trans, ok := ut.New(lang, lang).GetTranslator("en")
	if !ok {
		return nil, errors.New("server: english translator missing")
	}
	if err := entranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, err
	}
	return &Validator{validate: v, translator: trans}, nil
}

// Validate returns a ValidationError when data breaks its rules.
func (v *Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := fe.Namespace()
		// Drop the struct name.
		if _, rest, ok := strings.Cut(key, "."); ok {
			key = rest
		}
		out[key] = fe.Translate(v.translator)
	}
	return out
}
