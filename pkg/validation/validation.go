// Package validation builds the shared validator with Indonesian messages.
package validation

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/id"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	id_translations "github.com/go-playground/validator/v10/translations/id"

	"github.com/noah-isme/sma-habit-api/internal/models"
)

const (
	religionTag  = "religion"
	religionText = "{0} harus salah satu dari: Islam, Kristen, Katolik, Hindu, Buddha, Konghucu"

	requiredText = "{0} wajib diisi"
)

// Validator pairs a validator with its translator.
type Validator struct {
	*validator.Validate
	translator ut.Translator
}

// New returns a validator reporting field names from `col` tags (falling
// back to `json`) with Indonesian messages.
func New() *Validator {
	v := validator.New()
	locale := id.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("id")
	_ = id_translations.RegisterDefaultTranslations(v, trans)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("col")
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(religionTag, religionValidation)
	registerTranslation(v, trans, religionTag, religionText, false)
	registerTranslation(v, trans, "required", requiredText, true)

	return &Validator{Validate: v, translator: trans}
}

func registerTranslation(v *validator.Validate, trans ut.Translator, tag, text string, override bool) {
	_ = v.RegisterTranslation(
		tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

func religionValidation(fl validator.FieldLevel) bool {
	return CanonicalReligion(fl.Field().String()) != ""
}

// CanonicalReligion maps a case-insensitive religion name onto its stored
// spelling, or "" when it is not one of the accepted values.
func CanonicalReligion(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, r := range models.Religions {
		if strings.EqualFold(r, raw) {
			return r
		}
	}
	return ""
}

// FieldErrors groups translated messages by field name. Errors that are not
// validation errors are returned under the "" key.
func (v *Validator) FieldErrors(err error) map[string][]string {
	out := map[string][]string{}
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out[""] = []string{err.Error()}
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = append(out[fe.Field()], fe.Translate(v.translator))
	}
	return out
}

// SortedFields returns the keys of a FieldErrors map in stable order.
func SortedFields(errs map[string][]string) []string {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
