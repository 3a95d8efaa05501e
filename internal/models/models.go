// Package models defines the core domain types for the cnslr legal-task platform.
package models

import (
	"strconv"
	"strings"
	"time"
)

// ReviewStepID is the reserved terminal step. It has no field schema and
// triggers submission instead of validation.
const ReviewStepID = "review"

// FieldKind identifies how a field is collected and what its answer looks like.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldEmail    FieldKind = "email"
	FieldPhone    FieldKind = "tel"
	FieldNumber   FieldKind = "number"
	FieldDate     FieldKind = "date"
	FieldTime     FieldKind = "time"
	FieldTextarea FieldKind = "textarea"
	FieldSelect   FieldKind = "select"
	FieldRadio    FieldKind = "radio"
	FieldCheckbox FieldKind = "checkbox"
)

// Valid reports whether k is one of the known field kinds.
func (k FieldKind) Valid() bool {
	switch k {
	case FieldText, FieldEmail, FieldPhone, FieldNumber, FieldDate, FieldTime,
		FieldTextarea, FieldSelect, FieldRadio, FieldCheckbox:
		return true
	}
	return false
}

// HasOptions reports whether answers for this kind are chosen from a fixed list.
func (k FieldKind) HasOptions() bool {
	return k == FieldSelect || k == FieldRadio
}

// Option is one choice of a select or radio field.
type Option struct {
	Value       string `json:"value" yaml:"value"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// FieldSchema describes a single input on a wizard step.
type FieldSchema struct {
	Name          string    `json:"name" yaml:"name"`
	Label         string    `json:"label" yaml:"label"`
	Kind          FieldKind `json:"type" yaml:"type"`
	Required      bool      `json:"required" yaml:"required"`
	Options       []Option  `json:"options,omitempty" yaml:"options,omitempty"`
	Placeholder   string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Hint          string    `json:"hint,omitempty" yaml:"hint,omitempty"`
	CheckboxLabel string    `json:"checkboxLabel,omitempty" yaml:"checkbox_label,omitempty"`
}

// OptionLabel returns the label for value, or value itself when it is not a listed option.
func (f FieldSchema) OptionLabel(value string) string {
	for _, o := range f.Options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

// Step is one screen of the wizard.
type Step struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// IsReview reports whether this is the terminal review step.
func (s Step) IsReview() bool {
	return s.ID == ReviewStepID
}

// TaskDefinition is an immutable legal-task workflow.
type TaskDefinition struct {
	ID             string                   `json:"id" yaml:"id"`
	Title          string                   `json:"title" yaml:"title"`
	Description    string                   `json:"description" yaml:"description"`
	EstimatedTime  string                   `json:"estimatedTime,omitempty" yaml:"estimated_time,omitempty"`
	EFileAvailable bool                     `json:"eFileAvailable" yaml:"efile_available"`
	Steps          []Step                   `json:"steps" yaml:"steps"`
	Fields         map[string][]FieldSchema `json:"fields" yaml:"fields"`
}

// FieldsFor returns the ordered field schemas of a step. The review step has none.
func (t TaskDefinition) FieldsFor(stepID string) []FieldSchema {
	return t.Fields[stepID]
}

// Field finds a field schema by name across all steps.
func (t TaskDefinition) Field(name string) (FieldSchema, bool) {
	for _, step := range t.Steps {
		for _, f := range t.Fields[step.ID] {
			if f.Name == name {
				return f, true
			}
		}
	}
	return FieldSchema{}, false
}

// Answers maps field names to values. Values are strings, float64 numbers or
// bools depending on the field kind.
type Answers map[string]any

// Clone returns a shallow copy safe to hand to callers.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Has reports whether name holds a non-empty answer.
func (a Answers) Has(name string) bool {
	return a.String(name) != ""
}

// String returns the trimmed textual form of an answer, or "" when absent.
func (a Answers) String(name string) string {
	v, ok := a[name]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case bool:
		if t {
			return "true"
		}
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

// Bool interprets an answer as a boolean acknowledgement. "yes" and "true"
// strings count as true.
func (a Answers) Bool(name string) bool {
	switch t := a[name].(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "yes"
	}
	return false
}

// WizardSession is the persisted progress of one task instance.
type WizardSession struct {
	TaskID           string    `json:"taskId"`
	CurrentStepIndex int       `json:"currentStepIndex"`
	Answers          Answers   `json:"answers"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// CompletedSubmission is the snapshot written once a wizard is submitted.
// It is never mutated after creation.
type CompletedSubmission struct {
	TaskID      string    `json:"taskId"`
	Answers     Answers   `json:"answers"`
	SubmittedAt time.Time `json:"submittedAt"`
}
