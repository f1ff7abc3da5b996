// Package calculator registers every calculator behind one interface so the
// CLI, the interactive menu and the HTTP server can drive them by name.
package calculator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/iwvelando/bizcalc/internal/baseline"
	"github.com/iwvelando/bizcalc/pkg/report"
	"github.com/iwvelando/bizcalc/pkg/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrUnknownCalculator is returned by Lookup for names that are not registered.
var ErrUnknownCalculator = errors.New("unknown calculator")

// InputError reports inputs a calculator rejected.
type InputError struct {
	Calculator string `json:"calculator"`
	Field      string `json:"field,omitempty"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s input: %s", e.Calculator, e.Message)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func newInputError(calc string, err error) *InputError {
	ie := &InputError{Calculator: calc, Message: err.Error(), Err: err}

	var fieldErr *validation.FieldError
	var fieldErrs validation.Errors
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &fieldErr):
		ie.Field = fieldErr.Field
	case errors.As(err, &fieldErrs) && len(fieldErrs) > 0:
		ie.Field = fieldErrs[0].Field
	case errors.As(err, &typeErr):
		ie.Field = typeErr.Field
		ie.Message = fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type)
	}
	return ie
}

// FieldKind is the type of a scalar input.
type FieldKind string

// Field kinds.
const (
	KindNumber  FieldKind = "number"
	KindInteger FieldKind = "integer"
	KindBool    FieldKind = "bool"
)

// Field describes one scalar input and its default for the current baseline.
type Field struct {
	Key     string    `json:"key"`
	Label   string    `json:"label"`
	Kind    FieldKind `json:"kind"`
	Default any       `json:"default"`
}

// Calculator is the common surface of every calculator.
type Calculator interface {
	Name() string
	Title() string
	Description() string
	// Fields lists the scalar inputs with defaults derived from p.
	Fields(p baseline.Params) []Field
	// RequiresFile reports whether inputs only make sense as a document,
	// e.g. a QSPM matrix.
	RequiresFile() bool
	// LoadInputs reads an input document (YAML or JSON) into an input map.
	LoadInputs(path string) (map[string]any, error)
	// Run overlays inputs on the defaults derived from p and calculates.
	Run(p baseline.Params, inputs map[string]any) (report.Report, error)
}

// Reporter is implemented by every calculator result.
type Reporter interface {
	Report() report.Report
}

// adapter binds one calculator package to the Calculator interface.
type adapter[I any, R Reporter] struct {
	name         string
	title        string
	description  string
	requiresFile bool
	defaults     func(baseline.Params) I
	calculate    func(*zap.Logger, I) (R, error)
	load         func(string) (I, error)
	logger       *zap.Logger
}

func (a *adapter[I, R]) Name() string        { return a.name }
func (a *adapter[I, R]) Title() string       { return a.title }
func (a *adapter[I, R]) Description() string { return a.description }
func (a *adapter[I, R]) RequiresFile() bool  { return a.requiresFile }

func (a *adapter[I, R]) Fields(p baseline.Params) []Field {
	return scalarFields(a.defaults(p))
}

func (a *adapter[I, R]) Run(p baseline.Params, inputs map[string]any) (report.Report, error) {
	in, err := a.decode(p, inputs)
	if err != nil {
		return report.Report{}, newInputError(a.name, err)
	}

	res, err := a.calculate(a.logger, in)
	if err != nil {
		a.logger.Debug("calculation rejected",
			zap.String("op", "calculator.Run"),
			zap.String("calculator", a.name),
			zap.Error(err),
		)
		return report.Report{}, newInputError(a.name, err)
	}

	rep := res.Report()
	if err := rep.Validate(); err != nil {
		return report.Report{}, fmt.Errorf("calculator %s produced an invalid report: %w", a.name, err)
	}
	a.logger.Debug("calculation complete",
		zap.String("op", "calculator.Run"),
		zap.String("calculator", a.name),
		zap.Int("metrics", len(rep.Metrics)),
	)
	return rep, nil
}

// decode overlays inputs on the defaults by round-tripping them through
// JSON, so keys follow the json tags and unknown keys are rejected.
func (a *adapter[I, R]) decode(p baseline.Params, inputs map[string]any) (I, error) {
	in := a.defaults(p)
	if len(inputs) == 0 {
		return in, nil
	}
	raw, err := json.Marshal(inputs)
	if err != nil {
		return in, fmt.Errorf("failed to encode inputs: %w", err)
	}
	resetSupplied(&in, inputs)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return in, err
	}
	return in, nil
}

// resetSupplied zeroes every slice or map field of *in whose key appears in
// inputs. JSON decodes into existing slice elements in place, so a supplied
// list would otherwise inherit fields it omits from the defaults.
func resetSupplied(in any, inputs map[string]any) {
	v := reflect.ValueOf(in).Elem()
	if v.Kind() != reflect.Struct {
		return
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		key := strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0]
		if _, ok := inputs[key]; !ok {
			continue
		}
		fv := v.Field(i)
		if fv.Kind() == reflect.Slice || fv.Kind() == reflect.Map {
			fv.Set(reflect.Zero(fv.Type()))
		}
	}
}

func (a *adapter[I, R]) LoadInputs(path string) (map[string]any, error) {
	if a.load != nil {
		in, err := a.load(path)
		if err != nil {
			return nil, newInputError(a.name, err)
		}
		return toMap(in)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file %s: %w", path, err)
	}
	inputs := map[string]any{}
	if err := yaml.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("failed to parse input file %s: %w", path, err)
	}
	return inputs, nil
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// scalarFields lists the labelled number and bool fields of an input struct.
func scalarFields(in any) []Field {
	v := reflect.ValueOf(in)
	t := v.Type()
	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		label := sf.Tag.Get("label")
		key := strings.SplitN(sf.Tag.Get("json"), ",", 2)[0]
		if label == "" || key == "" || key == "-" {
			continue
		}

		f := Field{Key: key, Label: label}
		fv := v.Field(i)
		switch fv.Kind() {
		case reflect.Float32, reflect.Float64:
			f.Kind, f.Default = KindNumber, fv.Float()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			f.Kind, f.Default = KindInteger, int(fv.Int())
		case reflect.Bool:
			f.Kind, f.Default = KindBool, fv.Bool()
		default:
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

func withoutLogger[I, R any](fn func(I) (R, error)) func(*zap.Logger, I) (R, error) {
	return func(_ *zap.Logger, in I) (R, error) {
		return fn(in)
	}
}
