package application

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
	translator   ut.Translator
)

const requiredText = "{0} is required"

func inputValidator() (*validator.Validate, ut.Translator) {
	validateOnce.Do(func() {
		validate = validator.New()

		english := en.New()
		uni := ut.New(english, english)
		translator, _ = uni.GetTranslator("en")
		_ = en_translations.RegisterDefaultTranslations(validate, translator)

		// Field errors are keyed by JSON names so clients can map them back to the request body.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		// notblank rejects whitespace-only text that required lets through.
		_ = validate.RegisterValidation("notblank", validators.NotBlank)

		for _, tag := range []string{"required", "notblank"} {
			tag := tag
			_ = validate.RegisterTranslation(tag, translator,
				func(t ut.Translator) error { return t.Add(tag, requiredText, true) },
				func(t ut.Translator, fe validator.FieldError) string {
					s, _ := t.T(tag, fe.Field())
					return s
				},
			)
		}
	})
	return validate, translator
}

// validateInput runs struct tag validation and converts failures into a ValidationError.
func validateInput(input any) *ValidationError {
	v, trans := inputValidator()
	vErr := &ValidationError{}

	err := v.Struct(input)
	if err == nil {
		return vErr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vErr.add("body", err.Error())
		return vErr
	}
	for _, fe := range fieldErrs {
		if _, exists := vErr.FieldErrors[fe.Field()]; exists {
			continue
		}
		vErr.add(fe.Field(), fe.Translate(trans))
	}
	return vErr
}
