package jobspec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FieldError is one user-facing validation failure for a form value.
type FieldError struct {
	// Name is the parameter name.
	Name string

	// Message is the human-readable problem description.
	Message string
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return e.Name + ": " + e.Message
}

// ValidateValues checks the supplied form values against the spec's
// parameter rules and returns every violation. An empty slice means the
// values are submittable.
//
// Values are the raw user-entered strings; an empty string counts as
// "not provided". Unknown value keys are rejected so typos in parameter
// names do not silently drop inputs.
func (s *Spec) ValidateValues(values map[string]string) []FieldError {
	var errs []FieldError

	for name := range values {
		if s.Parameter(name) == nil {
			errs = append(errs, FieldError{Name: name, Message: "unknown parameter"})
		}
	}

	for i := range s.Parameters {
		p := &s.Parameters[i]
		value := strings.TrimSpace(values[p.Name])

		if value == "" {
			if p.Required && p.Default == "" {
				errs = append(errs, FieldError{Name: p.Name, Message: p.DisplayLabel() + " is required"})
			}
			continue
		}

		if msg := p.checkValue(value); msg != "" {
			errs = append(errs, FieldError{Name: p.Name, Message: msg})
		}
	}
	return errs
}

// checkValue applies the type-specific predicate rules to a non-empty
// value and returns a message for the first violation, or "".
func (p *Parameter) checkValue(value string) string {
	v := p.Validation

	switch p.Type {
	case TypeText:
		if v.MaxLength != nil && len(value) > *v.MaxLength {
			return fmt.Sprintf("maximum length is %d characters", *v.MaxLength)
		}

	case TypeInteger:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return "must be a valid integer"
		}
		if v.Min != nil && float64(n) < *v.Min {
			return fmt.Sprintf("minimum value is %s", formatBound(*v.Min))
		}
		if v.Max != nil && float64(n) > *v.Max {
			return fmt.Sprintf("maximum value is %s", formatBound(*v.Max))
		}

	case TypeDecimal:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return "must be a valid number"
		}
		if v.Min != nil && f < *v.Min {
			return fmt.Sprintf("minimum value is %s", formatBound(*v.Min))
		}
		if v.Max != nil && f > *v.Max {
			return fmt.Sprintf("maximum value is %s", formatBound(*v.Max))
		}

	case TypeDate:
		d, err := time.Parse(DateFormat, value)
		if err != nil {
			return "must be a valid date (YYYY-MM-DD)"
		}
		if v.MinDate != "" {
			min, _ := time.Parse(DateFormat, v.MinDate)
			if d.Before(min) {
				return "date must be on or after " + v.MinDate
			}
		}
		if v.MaxDate != "" {
			max, _ := time.Parse(DateFormat, v.MaxDate)
			if d.After(max) {
				return "date must be on or before " + v.MaxDate
			}
		}

	case TypeEnum:
		for _, opt := range p.Options {
			if value == opt {
				return ""
			}
		}
		return "must be one of: " + strings.Join(p.Options, ", ")
	}
	return ""
}

// formatBound renders a numeric bound without a trailing ".000000" for
// whole numbers.
func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// LaunchParameters builds the stringified parameter map handed to the
// trigger: supplied values merged over declared defaults, empty values
// dropped. The result contains only canonical string forms - dates stay
// YYYY-MM-DD exactly as validated.
func (s *Spec) LaunchParameters(values map[string]string) map[string]string {
	out := make(map[string]string, len(s.Parameters))
	for i := range s.Parameters {
		p := &s.Parameters[i]
		value := strings.TrimSpace(values[p.Name])
		if value == "" {
			value = p.Default
		}
		if value == "" {
			continue
		}
		out[p.Name] = value
	}
	return out
}
