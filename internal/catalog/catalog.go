// Package catalog holds the static registry of legal-task workflows.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
)

// TaskType is the closed set of supported legal tasks.
type TaskType string

const (
	ParkingTicket   TaskType = "parking-ticket"
	SmallClaims     TaskType = "small-claims"
	DemandLetter    TaskType = "demand-letter"
	NameChange      TaskType = "name-change"
	LandlordDispute TaskType = "landlord-dispute"
)

var allTaskTypes = []TaskType{ParkingTicket, SmallClaims, DemandLetter, NameChange, LandlordDispute}

// AllTaskTypes returns every supported task type in catalog order.
func AllTaskTypes() []TaskType {
	out := make([]TaskType, len(allTaskTypes))
	copy(out, allTaskTypes)
	return out
}

// ParseTaskType maps a task id to its TaskType.
func ParseTaskType(id string) (TaskType, bool) {
	for _, t := range allTaskTypes {
		if string(t) == id {
			return t, true
		}
	}
	return "", false
}

//go:embed tasks.yaml
var embedded []byte

type file struct {
	Tasks []models.TaskDefinition `yaml:"tasks"`
}

// Catalog is an immutable, ordered set of task definitions.
type Catalog struct {
	tasks []models.TaskDefinition
	byID  map[string]int
}

// Parse decodes YAML task data and validates it.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		tasks: f.Tasks,
		byID:  make(map[string]int, len(f.Tasks)),
	}
	for i, t := range f.Tasks {
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate task %q", t.ID)
		}
		c.byID[t.ID] = i
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog built from the embedded task data.
// It panics if the embedded data is invalid, which the package tests rule out.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(embedded)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Validate checks the structural invariants of every task.
func (c *Catalog) Validate() error {
	for _, t := range c.tasks {
		if _, ok := ParseTaskType(t.ID); !ok {
			return fmt.Errorf("task %q: unknown task type", t.ID)
		}
		if len(t.Steps) == 0 {
			return fmt.Errorf("task %q: no steps", t.ID)
		}
		if last := t.Steps[len(t.Steps)-1]; !last.IsReview() {
			return fmt.Errorf("task %q: last step is %q, want %q", t.ID, last.ID, models.ReviewStepID)
		}

		seenSteps := make(map[string]bool, len(t.Steps))
		for i, s := range t.Steps {
			if seenSteps[s.ID] {
				return fmt.Errorf("task %q: duplicate step %q", t.ID, s.ID)
			}
			seenSteps[s.ID] = true

			if s.IsReview() {
				if i != len(t.Steps)-1 {
					return fmt.Errorf("task %q: review step must be last", t.ID)
				}
				if len(t.Fields[s.ID]) > 0 {
					return fmt.Errorf("task %q: review step has fields", t.ID)
				}
				continue
			}

			fields := t.Fields[s.ID]
			if len(fields) == 0 {
				return fmt.Errorf("task %q step %q: no fields", t.ID, s.ID)
			}
			names := make(map[string]bool, len(fields))
			for _, f := range fields {
				if f.Name == "" {
					return fmt.Errorf("task %q step %q: field without name", t.ID, s.ID)
				}
				if names[f.Name] {
					return fmt.Errorf("task %q step %q: duplicate field %q", t.ID, s.ID, f.Name)
				}
				names[f.Name] = true
				if !f.Kind.Valid() {
					return fmt.Errorf("task %q field %q: unknown type %q", t.ID, f.Name, f.Kind)
				}
				if f.Kind.HasOptions() && len(f.Options) == 0 {
					return fmt.Errorf("task %q field %q: %s field has no options", t.ID, f.Name, f.Kind)
				}
			}
		}

		for stepID := range t.Fields {
			if !seenSteps[stepID] {
				return fmt.Errorf("task %q: fields for unknown step %q", t.ID, stepID)
			}
		}
	}
	return nil
}

// Get returns the task definition for id.
func (c *Catalog) Get(id string) (models.TaskDefinition, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.TaskDefinition{}, false
	}
	return c.tasks[i], true
}

// List returns all tasks in catalog order.
func (c *Catalog) List() []models.TaskDefinition {
	out := make([]models.TaskDefinition, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// FieldsFor returns the field schemas for a task step, or nil when either is unknown.
func (c *Catalog) FieldsFor(taskID, stepID string) []models.FieldSchema {
	t, ok := c.Get(taskID)
	if !ok {
		return nil
	}
	return t.FieldsFor(stepID)
}
