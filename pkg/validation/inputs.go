package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one invalid input field using its JSON name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// NewFieldError builds a FieldError with a formatted message.
func NewFieldError(field, format string, args ...interface{}) *FieldError {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Errors collects every FieldError found while validating one struct.
type Errors []*FieldError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return strings.Join(msgs, "; ")
}

// Rule registers a custom validation tag.
type Rule struct {
	Tag string
	Fn  validator.Func
}

// Validator wraps go-playground/validator and translates its errors into
// FieldErrors keyed by JSON field name.
type Validator struct {
	validate *validator.Validate
}

// DefaultRules are the custom tags understood by calculator inputs.
var DefaultRules = []Rule{
	{Tag: "daycount", Fn: dayCountValidator},
	{Tag: "qspmscore", Fn: qspmScoreValidator},
	{Tag: "finite", Fn: finiteValidator},
}

// New returns a Validator with DefaultRules and any extra rules registered.
func New(rules ...Rule) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	for _, rule := range append(append([]Rule{}, DefaultRules...), rules...) {
		_ = v.RegisterValidation(rule.Tag, rule.Fn)
	}
	return &Validator{validate: v}
}

var defaultValidator = New()

// Struct validates s with the shared default Validator.
func Struct(s interface{}) error {
	return defaultValidator.Struct(s)
}

// Struct validates s and returns Errors when any field is invalid.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	out := make(Errors, 0, len(validationErrs))
	for _, fe := range validationErrs {
		out = append(out, &FieldError{Field: fieldPath(fe), Message: describe(fe)})
	}
	return out
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "min":
		if isCollection(fe.Kind()) {
			return fmt.Sprintf("must contain at least %s entries", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if isCollection(fe.Kind()) {
			return fmt.Sprintf("must contain at most %s entries", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "daycount":
		return "must be 360 or 365"
	case "qspmscore":
		return "must be 0 (not relevant) or a whole number from 1 to 4"
	case "finite":
		return "must be a finite number"
	case "unique":
		return "must not contain duplicates"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

func isCollection(kind reflect.Kind) bool {
	return kind == reflect.Slice || kind == reflect.Array || kind == reflect.Map || kind == reflect.String
}

func dayCountValidator(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Int, reflect.Int64, reflect.Int32:
		n := fl.Field().Int()
		return n == 360 || n == 365
	case reflect.Float64, reflect.Float32:
		f := fl.Field().Float()
		return f == 360 || f == 365
	}
	return false
}

func qspmScoreValidator(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return f == math.Trunc(f) && f >= 0 && f <= 4
}

func finiteValidator(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
