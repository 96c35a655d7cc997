package models

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	ErrEmptySeries  = errors.New("no hourly observations")
	ErrTooManyHours = fmt.Errorf("more than %d hourly observations", MaxHours)
	ErrUnordered    = errors.New("hourly observations are not strictly increasing in time")
)

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Problems, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterCustomTypeFunc(nullValue, sql.NullFloat64{})
	})
	return validate
}

// nullValue unwraps sql.Null* so struct tags apply to the inner value.
func nullValue(field reflect.Value) interface{} {
	if valuer, ok := field.Interface().(driver.Valuer); ok {
		val, err := valuer.Value()
		if err == nil {
			return val
		}
	}
	return nil
}

// ValidateHourly rejects malformed or out-of-range raw values.
func ValidateHourly(obs HourlyObservation) error {
	return structErrors(obs, obs.Time.Format("2006-01-02T15:04"))
}

// ValidateLocation checks coordinate ranges.
func ValidateLocation(loc Location) error {
	return structErrors(loc, loc.Name)
}

// ValidateSeries validates every observation and the ordering of the series.
func ValidateSeries(series []HourlyObservation) error {
	if len(series) == 0 {
		return ErrEmptySeries
	}
	if len(series) > MaxHours {
		return ErrTooManyHours
	}
	var problems []string
	for i, obs := range series {
		if i > 0 && !obs.Time.After(series[i-1].Time) {
			return fmt.Errorf("%w: index %d", ErrUnordered, i)
		}
		if err := ValidateHourly(obs); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				problems = append(problems, ve.Problems...)
				continue
			}
			return err
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func structErrors(v interface{}, label string) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %s: %w", label, err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s: %s %s=%s (got %v)", label, fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return &ValidationError{Problems: problems}
}
