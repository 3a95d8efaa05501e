package tui

import (
	"fmt"

	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
)

type mode int

const (
	modePicker mode = iota
	modeWizard
	modeDone
)

// taskItem implements list.DefaultItem for the task picker.
type taskItem struct {
	task models.TaskDefinition
}

func (i taskItem) FilterValue() string { return i.task.Title }
func (i taskItem) Title() string       { return i.task.Title }
func (i taskItem) Description() string {
	desc := i.task.Description
	if i.task.EstimatedTime != "" {
		desc = fmt.Sprintf("%s (%s)", desc, i.task.EstimatedTime)
	}
	return desc
}

type documentSavedMsg struct {
	path string
}

type errMsg struct {
	err error
}
