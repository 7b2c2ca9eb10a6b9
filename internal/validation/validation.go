// Package validation checks decoded request bodies and reports every failed
// field instead of stopping at the first one.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = newValidator()

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

var ErrInvalidDate = errors.New("invalid date")

type Problem struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

type Result struct {
	Problems []Problem `json:"problems,omitempty"`
}

func (r Result) Valid() bool {
	return len(r.Problems) == 0
}

func (r Result) String() string {
	return strings.Join(lo.Map(r.Problems, func(p Problem, _ int) string {
		return p.Field + ":" + p.Rule
	}), ",")
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	lo.Must0(v.RegisterValidation("notblank", notBlank))
	lo.Must0(v.RegisterValidation("jsdate", jsDate))
	return v
}

// Struct validates s against its `validate` tags. A value that is not a
// struct yields a single problem on the empty field.
func Struct(s any) Result {
	err := validate.Struct(s)
	if err == nil {
		return Result{}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Result{Problems: []Problem{{Rule: "struct"}}}
	}
	return Result{Problems: lo.Map(fieldErrs, func(fe validator.FieldError, _ int) Problem {
		return Problem{Field: fieldPath(fe.Namespace()), Rule: fe.Tag()}
	})}
}

// ParseDateTime accepts an ISO-8601 string or a number of milliseconds since
// the epoch, limited to years 0 through 9999. An absent or null value yields
// the zero time.
func ParseDateTime(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
		}
		s = strings.TrimSpace(s)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return inRange(t.UTC())
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	var millis json.Number
	if err := json.Unmarshal(raw, &millis); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	n, err := millis.Int64()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return inRange(time.UnixMilli(n).UTC())
}

// inRange rejects times that cannot be written back as an RFC 3339 string.
func inRange(t time.Time) (time.Time, error) {
	if t.Year() < 0 || t.Year() > 9999 {
		return time.Time{}, fmt.Errorf("%w: year %d out of range", ErrInvalidDate, t.Year())
	}
	return t, nil
}

func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	return strings.TrimSpace(field.String()) != ""
}

func jsDate(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice || field.Type().Elem().Kind() != reflect.Uint8 {
		return false
	}
	_, err := ParseDateTime(field.Bytes())
	return err == nil
}

// fieldPath drops the top-level struct name from a validator namespace.
func fieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return rest
}
