package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var (
	validate = newValidator()
	digitsRe = regexp.MustCompile(`^[0-9]+$`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return digitsRe.MatchString(fl.Field().String())
	})
	return v
}

// Errors collects field messages keyed by the JSON field name.
type Errors map[string][]string

func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

func (e Errors) Addf(field, format string, args ...any) {
	e.Add(field, fmt.Sprintf(format, args...))
}

func (e Errors) Empty() bool {
	return len(e) == 0
}

// Fields returns the failing field names sorted.
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

func (e Errors) Merge(other Errors) {
	for field, messages := range other {
		e[field] = append(e[field], messages...)
	}
}

// Err converts the collected messages into a validation error, or nil when
// nothing was collected.
func (e Errors) Err(message string) error {
	if e.Empty() {
		return nil
	}
	if message == "" {
		message = "validation failed"
	}
	details := make(map[string]any, len(e))
	for field, messages := range e {
		details[field] = messages
	}
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(details)
}

// Struct runs the tag rules of v and returns every failure.
func Struct(v any) Errors {
	errs := Errors{}
	err := validate.Struct(v)
	if err == nil {
		return errs
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add("non_field_errors", err.Error())
		return errs
	}
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), Message(fe))
	}
	return errs
}

// Message renders a single validator failure.
func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "este campo es obligatorio"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("debe tener al menos %s caracteres", fe.Param())
		}
		return fmt.Sprintf("debe ser mayor o igual a %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("debe tener como máximo %s caracteres", fe.Param())
		}
		return fmt.Sprintf("debe ser menor o igual a %s", fe.Param())
	case "gte":
		return fmt.Sprintf("debe ser mayor o igual a %s", fe.Param())
	case "lte":
		return fmt.Sprintf("debe ser menor o igual a %s", fe.Param())
	case "email":
		return "debe ser un correo electrónico válido"
	case "digits", "numeric":
		return "solo se permiten dígitos"
	case "oneof":
		return fmt.Sprintf("debe ser uno de: %s", fe.Param())
	}
	return "valor inválido"
}

// IsDigits reports whether value is a non-empty string of ASCII digits.
func IsDigits(value string) bool {
	return digitsRe.MatchString(value)
}
