package tui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
)

var listTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(primaryColor)

// taskPicker lists the catalog tasks.
type taskPicker struct {
	list list.Model
}

func newTaskPicker(tasks []models.TaskDefinition) *taskPicker {
	items := make([]list.Item, len(tasks))
	for i, t := range tasks {
		items[i] = taskItem{task: t}
	}

	l := list.New(items, list.NewDefaultDelegate(), 80, 20)
	l.Title = "What do you need help with?"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = listTitleStyle
	return &taskPicker{list: l}
}

func (p *taskPicker) SetSize(w, h int) {
	p.list.SetSize(w, h)
}

// Selected returns the highlighted task.
func (p *taskPicker) Selected() (models.TaskDefinition, bool) {
	item, ok := p.list.SelectedItem().(taskItem)
	if !ok {
		return models.TaskDefinition{}, false
	}
	return item.task, true
}

// Filtering reports whether keystrokes belong to the filter prompt.
func (p *taskPicker) Filtering() bool {
	return p.list.FilterState() == list.Filtering
}

func (p *taskPicker) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return cmd
}

func (p *taskPicker) View() string {
	return p.list.View()
}
