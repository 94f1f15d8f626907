// Package jobspec loads and validates declarative job configurations.
//
// Each config describes one submittable job: its logical name, display
// metadata, and a typed parameter form. Configs are loaded once per
// submission and are immutable while a submission is in flight.
package jobspec

import (
	"fmt"
	"time"
)

// DateFormat is the canonical wire format for date parameters.
const DateFormat = "2006-01-02"

// ParamType enumerates the supported parameter types.
type ParamType string

const (
	TypeText    ParamType = "text"
	TypeInteger ParamType = "integer"
	TypeDecimal ParamType = "decimal"
	TypeDate    ParamType = "date"
	TypeEnum    ParamType = "enum"
)

func (t ParamType) valid() bool {
	switch t {
	case TypeText, TypeInteger, TypeDecimal, TypeDate, TypeEnum:
		return true
	}
	return false
}

// Validation holds the type-specific bounds for one parameter.
type Validation struct {
	// MaxLength bounds text values. Nil means unbounded.
	MaxLength *int `yaml:"max_length,omitempty" json:"max_length,omitempty"`

	// Min and Max bound integer and decimal values. Nil means unbounded.
	Min *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty" json:"max,omitempty"`

	// MinDate and MaxDate bound date values, formatted YYYY-MM-DD.
	MinDate string `yaml:"min_date,omitempty" json:"min_date,omitempty"`
	MaxDate string `yaml:"max_date,omitempty" json:"max_date,omitempty"`
}

// Parameter describes one form field of a job.
type Parameter struct {
	Name       string     `yaml:"name" json:"name"`
	Type       ParamType  `yaml:"type" json:"type"`
	Required   bool       `yaml:"required,omitempty" json:"required,omitempty"`
	Label      string     `yaml:"label,omitempty" json:"label,omitempty"`
	Default    string     `yaml:"default,omitempty" json:"default,omitempty"`
	Options    []string   `yaml:"options,omitempty" json:"options,omitempty"`
	Validation Validation `yaml:"validation,omitempty" json:"validation,omitempty"`
}

// DisplayLabel returns the label, falling back to the parameter name.
func (p *Parameter) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return p.Name
}

// Spec is one job configuration.
type Spec struct {
	JobName     string      `yaml:"job_name" json:"job_name"`
	DisplayName string      `yaml:"display_name,omitempty" json:"display_name,omitempty"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Parameters  []Parameter `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// ApplyDefaults fills derivable optional fields.
func (s *Spec) ApplyDefaults() {
	if s.DisplayName == "" {
		s.DisplayName = s.JobName
	}
	for i := range s.Parameters {
		if s.Parameters[i].Type == "" {
			s.Parameters[i].Type = TypeText
		}
	}
}

// Validate checks the structural integrity of the spec.
func (s *Spec) Validate() error {
	if s.JobName == "" {
		return &SpecError{Field: "job_name", Message: "job name is required"}
	}

	seen := make(map[string]bool, len(s.Parameters))
	for i := range s.Parameters {
		p := &s.Parameters[i]
		field := fmt.Sprintf("parameters[%d]", i)

		if p.Name == "" {
			return &SpecError{Field: field + ".name", Message: "parameter name is required"}
		}
		if seen[p.Name] {
			return &SpecError{Field: field + ".name", Message: fmt.Sprintf("duplicate parameter name %q", p.Name)}
		}
		seen[p.Name] = true

		if !p.Type.valid() {
			return &SpecError{Field: field + ".type", Message: fmt.Sprintf("unknown parameter type %q", p.Type)}
		}
		if p.Type == TypeEnum && len(p.Options) == 0 {
			return &SpecError{Field: field + ".options", Message: "enum parameter needs at least one option"}
		}

		v := p.Validation
		if v.MaxLength != nil && *v.MaxLength <= 0 {
			return &SpecError{Field: field + ".validation.max_length", Message: "max_length must be positive"}
		}
		if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
			return &SpecError{Field: field + ".validation", Message: "min must not exceed max"}
		}
		if v.MinDate != "" {
			if _, err := time.Parse(DateFormat, v.MinDate); err != nil {
				return &SpecError{Field: field + ".validation.min_date", Message: "min_date must be YYYY-MM-DD"}
			}
		}
		if v.MaxDate != "" {
			if _, err := time.Parse(DateFormat, v.MaxDate); err != nil {
				return &SpecError{Field: field + ".validation.max_date", Message: "max_date must be YYYY-MM-DD"}
			}
		}
	}
	return nil
}

// Parameter returns the named parameter, or nil.
func (s *Spec) Parameter(name string) *Parameter {
	for i := range s.Parameters {
		if s.Parameters[i].Name == name {
			return &s.Parameters[i]
		}
	}
	return nil
}

// SpecError reports a structural problem in a job configuration.
type SpecError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *SpecError) Error() string {
	return "jobspec: " + e.Field + ": " + e.Message
}
