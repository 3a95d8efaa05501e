package catalog

import (
	"strings"
	"testing"

	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	c, err := Parse(embedded)
	if err != nil {
		t.Fatalf("Parse embedded failed: %v", err)
	}

	tasks := c.List()
	if len(tasks) != len(AllTaskTypes()) {
		t.Fatalf("Expected %d tasks, got %d", len(AllTaskTypes()), len(tasks))
	}
	for i, tt := range AllTaskTypes() {
		if tasks[i].ID != string(tt) {
			t.Errorf("Expected task %d to be %s, got %s", i, tt, tasks[i].ID)
		}
	}
}

func TestEveryStepHasUniqueFields(t *testing.T) {
	for _, task := range Default().List() {
		for _, step := range task.Steps {
			fields := task.FieldsFor(step.ID)
			if step.IsReview() {
				if len(fields) != 0 {
					t.Errorf("%s: review step has %d fields", task.ID, len(fields))
				}
				continue
			}
			if len(fields) == 0 {
				t.Errorf("%s/%s: no fields", task.ID, step.ID)
			}
			seen := map[string]bool{}
			for _, f := range fields {
				if seen[f.Name] {
					t.Errorf("%s/%s: duplicate field %s", task.ID, step.ID, f.Name)
				}
				seen[f.Name] = true
			}
		}
	}
}

func TestGetAndFieldsFor(t *testing.T) {
	c := Default()

	task, ok := c.Get("parking-ticket")
	if !ok {
		t.Fatal("Expected parking-ticket to exist")
	}
	if task.Steps[0].ID != "ticket-info" {
		t.Errorf("Expected first step ticket-info, got %s", task.Steps[0].ID)
	}

	fields := c.FieldsFor("parking-ticket", "ticket-info")
	if len(fields) != 6 || fields[0].Name != "ticketNumber" {
		t.Errorf("Unexpected ticket-info fields: %+v", fields)
	}

	if c.FieldsFor("parking-ticket", models.ReviewStepID) != nil {
		t.Error("Expected no fields for review step")
	}
	if _, ok := c.Get("divorce"); ok {
		t.Error("Expected unknown task to be absent")
	}

	f, ok := task.Field("defenseType")
	if !ok || f.OptionLabel("meter-malfunction") != "Meter Malfunction" {
		t.Errorf("Unexpected defenseType field: %+v", f)
	}
}

func TestParseTaskType(t *testing.T) {
	if tt, ok := ParseTaskType("name-change"); !ok || tt != NameChange {
		t.Errorf("Expected NameChange, got %q %v", tt, ok)
	}
	if _, ok := ParseTaskType("Name-Change"); ok {
		t.Error("Expected task ids to be case sensitive")
	}
}

func TestParseRejectsBrokenCatalogs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown task",
			yaml: `
tasks:
  - id: divorce
    steps: [{id: review}]
`,
			want: "unknown task type",
		},
		{
			name: "review not last",
			yaml: `
tasks:
  - id: demand-letter
    steps: [{id: review}, {id: a}]
    fields:
      a: [{name: x, type: text}]
`,
			want: "last step",
		},
		{
			name: "empty step",
			yaml: `
tasks:
  - id: demand-letter
    steps: [{id: a}, {id: review}]
`,
			want: "no fields",
		},
		{
			name: "duplicate field",
			yaml: `
tasks:
  - id: demand-letter
    steps: [{id: a}, {id: review}]
    fields:
      a: [{name: x, type: text}, {name: x, type: email}]
`,
			want: "duplicate field",
		},
		{
			name: "radio without options",
			yaml: `
tasks:
  - id: demand-letter
    steps: [{id: a}, {id: review}]
    fields:
      a: [{name: x, type: radio}]
`,
			want: "no options",
		},
		{
			name: "unknown kind",
			yaml: `
tasks:
  - id: demand-letter
    steps: [{id: a}, {id: review}]
    fields:
      a: [{name: x, type: slider}]
`,
			want: "unknown type",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
