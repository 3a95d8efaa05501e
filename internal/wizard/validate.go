package wizard

import "github.com/Lawguy81/cnslr-legal-platform/internal/models"

// RequiredMessage is reported for every missing required field.
const RequiredMessage = "This field is required"

// Validate returns an error per required field that has no usable answer.
// Only presence is checked; format rules live at the submission gateway.
func Validate(fields []models.FieldSchema, answers models.Answers) map[string]string {
	errs := make(map[string]string)
	for _, f := range fields {
		if !f.Required {
			continue
		}
		if missing(f, answers) {
			errs[f.Name] = RequiredMessage
		}
	}
	return errs
}

func missing(f models.FieldSchema, answers models.Answers) bool {
	v, ok := answers[f.Name]
	if !ok || v == nil {
		return true
	}
	if f.Kind == models.FieldCheckbox {
		return !answers.Bool(f.Name)
	}
	if b, isBool := v.(bool); isBool {
		return !b
	}
	return answers.String(f.Name) == ""
}
