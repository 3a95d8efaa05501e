// Package tui provides the interactive terminal wizard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Lawguy81/cnslr-legal-platform/internal/catalog"
	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
	"github.com/Lawguy81/cnslr-legal-platform/internal/render"
	"github.com/Lawguy81/cnslr-legal-platform/internal/wizard"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6366F1")
	successColor   = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	fgColor        = lipgloss.Color("#F9FAFB")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	stepStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)
)

// Config wires the TUI to its collaborators.
type Config struct {
	Catalog  *catalog.Catalog
	Store    wizard.SessionStore
	Renderer *render.Renderer
	// OutDir receives the generated document after submission.
	OutDir string
	Format render.Format
	Now    func() time.Time
}

// App is the root bubbletea model.
type App struct {
	cfg     Config
	ctx     context.Context
	mode    mode
	picker  *taskPicker
	machine *wizard.Machine
	form    *stepForm
	review  viewport.Model
	width   int
	height  int
	message string
	saved   string
	// quitErr is returned by Run when the final save on ctrl+c failed.
	quitErr error
}

// New creates the application at the task picker.
func New(cfg Config) *App {
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	if cfg.Renderer == nil {
		cfg.Renderer = render.New()
	}
	if cfg.Format == "" {
		cfg.Format = render.FormatPDF
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "."
	}
	return &App{
		cfg:    cfg,
		ctx:    context.Background(),
		mode:   modePicker,
		picker: newTaskPicker(cfg.Catalog.List()),
		review: viewport.New(80, 20),
		width:  80,
		height: 24,
	}
}

// Start skips the picker and opens taskID, resuming a saved session.
func (a *App) Start(taskID string) error {
	task, ok := a.cfg.Catalog.Get(taskID)
	if !ok {
		return fmt.Errorf("unknown task %q", taskID)
	}
	return a.open(task)
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return a.quitErr
}

func (a *App) open(task models.TaskDefinition) error {
	m := wizard.New(task, a.cfg.Store, wizard.LocalSubmitter{}, wizard.WithClock(a.cfg.Now))
	resumed, err := m.Restore(a.ctx)
	if err != nil {
		return err
	}
	a.machine = m
	a.mode = modeWizard
	a.saved = ""
	a.message = ""
	if resumed {
		a.message = "Resumed your saved progress"
	}
	a.loadStep()
	return nil
}

// loadStep rebuilds the form or the review pane for the current step.
func (a *App) loadStep() {
	if a.machine.IsReview() {
		a.form = nil
		a.review.SetContent(reviewSummary(a.machine.Task(), a.machine.Answers()))
		a.review.GotoTop()
		return
	}
	a.form = newStepForm(a.machine.Fields(), a.machine.Answers(), a.inputWidth())
}

func (a *App) inputWidth() int {
	if a.width > 12 {
		return a.width - 12
	}
	return 40
}

// commit writes the form values into the machine.
func (a *App) commit() error {
	if a.form == nil {
		return nil
	}
	values := a.form.values()
	for _, f := range a.form.fields {
		if err := a.machine.SetAnswer(a.ctx, f.schema.Name, values[f.schema.Name]); err != nil {
			return err
		}
	}
	return nil
}

// persistFocused saves the focused field as soon as its widget changes.
func (a *App) persistFocused() error {
	if a.form == nil {
		return nil
	}
	f := a.form.focused()
	if f == nil {
		return nil
	}
	name := f.schema.Name
	v := f.value()
	old, ok := a.machine.Answers()[name]
	if ok && reflect.DeepEqual(old, v) {
		return nil
	}
	if !ok && (v == "" || v == false) {
		return nil
	}
	return a.machine.SetAnswer(a.ctx, name, v)
}

func (a *App) afterEdit(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if err := a.persistFocused(); err != nil {
		a.message = "Error: " + err.Error()
	}
	return a, cmd
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.picker.SetSize(msg.Width, msg.Height-4)
		a.review.Width = msg.Width - 4
		a.review.Height = msg.Height - 10
		return a, nil

	case documentSavedMsg:
		a.saved = msg.path
		a.message = "Document saved to " + msg.path
		return a, nil

	case errMsg:
		a.message = "Error: " + msg.err.Error()
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if a.mode == modeWizard {
				if err := a.commit(); err != nil {
					a.quitErr = fmt.Errorf("save progress: %w", err)
				}
			}
			return a, tea.Quit
		}
		switch a.mode {
		case modePicker:
			return a.updatePicker(msg)
		case modeWizard:
			return a.updateWizard(msg)
		case modeDone:
			return a.updateDone(msg)
		}
	}

	if a.mode == modePicker {
		return a, a.picker.Update(msg)
	}
	return a, nil
}

func (a *App) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !a.picker.Filtering() {
		switch msg.String() {
		case "q":
			return a, tea.Quit
		case "enter":
			task, ok := a.picker.Selected()
			if !ok {
				return a, nil
			}
			if err := a.open(task); err != nil {
				a.message = "Error: " + err.Error()
			}
			return a, nil
		}
	}
	return a, a.picker.Update(msg)
}

func (a *App) updateWizard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if err := a.commit(); err != nil {
			a.message = "Error: " + err.Error()
			return a, nil
		}
		a.mode = modePicker
		a.message = "Progress saved"
		return a, nil

	case "ctrl+b":
		if err := a.commit(); err != nil {
			a.message = "Error: " + err.Error()
			return a, nil
		}
		if err := a.machine.Back(a.ctx); err != nil {
			a.message = "Error: " + err.Error()
			return a, nil
		}
		a.message = ""
		a.loadStep()
		return a, nil

	case "enter":
		return a.advance()
	}

	if a.form == nil {
		var cmd tea.Cmd
		a.review, cmd = a.review.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "tab", "down":
		a.form.next()
		return a, nil
	case "shift+tab", "up":
		a.form.prev()
		return a, nil
	case "left":
		if a.form.cycle(-1) {
			return a.afterEdit(nil)
		}
	case "right":
		if a.form.cycle(1) {
			return a.afterEdit(nil)
		}
	case " ":
		if a.form.toggle() {
			return a.afterEdit(nil)
		}
	}
	return a.afterEdit(a.form.update(msg))
}

// advance validates and moves forward, submitting from the review step.
func (a *App) advance() (tea.Model, tea.Cmd) {
	if err := a.commit(); err != nil {
		a.message = "Error: " + err.Error()
		return a, nil
	}

	err := a.machine.Next(a.ctx)
	switch {
	case errors.Is(err, wizard.ErrStepInvalid):
		a.message = fmt.Sprintf("Error: %d required field(s) missing", len(a.machine.FieldErrors()))
		return a, nil
	case err != nil:
		a.message = "Error: " + err.Error()
		return a, nil
	}

	if a.machine.Submitted() {
		a.mode = modeDone
		a.message = "Submitted"
		return a, a.saveDocument(a.machine.Task().ID, a.machine.Answers())
	}
	a.message = ""
	a.loadStep()
	return a, nil
}

func (a *App) updateDone(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return a, tea.Quit
	case "n":
		a.mode = modePicker
		a.machine = nil
		a.message = ""
	}
	return a, nil
}

func (a *App) saveDocument(taskID string, answers models.Answers) tea.Cmd {
	renderer, format, dir := a.cfg.Renderer, a.cfg.Format, a.cfg.OutDir
	return func() tea.Msg {
		out, err := renderer.Render(taskID, answers, format)
		if err != nil {
			return errMsg{err}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errMsg{err}
		}
		path := filepath.Join(dir, out.Filename)
		if err := os.WriteFile(path, out.Body, 0o644); err != nil {
			return errMsg{err}
		}
		return documentSavedMsg{path: path}
	}
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("⚖ CNSLR Legal Assistant") + "\n")
	b.WriteString(strings.Repeat("─", a.width) + "\n")

	var status string
	switch a.mode {
	case modePicker:
		b.WriteString(a.picker.View())
		status = " ↑↓:nav | /:filter | Enter:start | q:quit"
	case modeWizard:
		b.WriteString(a.wizardView())
		if a.machine.IsReview() {
			status = " ↑↓:scroll | Enter:submit | Ctrl+B:back | Esc:save & exit"
		} else {
			status = " Tab/↑↓:field | ←→:choose | Space:check | Enter:next | Ctrl+B:back | Esc:save & exit"
		}
	case modeDone:
		b.WriteString(a.doneView())
		status = " n:new task | q:quit"
	}

	if a.message != "" {
		style := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			style = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + style.Render(a.message))
	}
	b.WriteString("\n")
	b.WriteString(statusBarStyle.Width(a.width).Render(status))
	return b.String()
}

func (a *App) wizardView() string {
	m := a.machine
	task := m.Task()
	step := m.Step()

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(task.Title) + "\n")
	b.WriteString(stepStyle.Render(fmt.Sprintf("Step %d of %d: %s", m.StepIndex()+1, len(task.Steps), step.Title)))
	b.WriteString(helpStyle.Render(fmt.Sprintf("  %.0f%%", m.Progress())) + "\n")
	if step.Description != "" {
		b.WriteString(helpStyle.Render(step.Description) + "\n")
	}
	b.WriteString("\n")

	if a.form == nil {
		b.WriteString(panelStyle.Render(a.review.View()))
		if err := m.SubmitError(); err != nil {
			b.WriteString("\n" + fieldError.Render("Submission failed: "+err.Error()))
		}
		return b.String()
	}
	b.WriteString(a.form.view(m.FieldErrors()))
	return b.String()
}

func (a *App) doneView() string {
	var b strings.Builder
	b.WriteString("\n  " + chosen.Render("✓ Your "+a.machine.Task().Title+" is complete") + "\n\n")
	if a.saved != "" {
		b.WriteString("  Your document: " + a.saved + "\n")
	} else {
		b.WriteString("  " + helpStyle.Render("Generating your document...") + "\n")
	}
	return b.String()
}

// reviewSummary lists every answered field grouped by step.
func reviewSummary(task models.TaskDefinition, answers models.Answers) string {
	var b strings.Builder
	for _, step := range task.Steps {
		fields := task.FieldsFor(step.ID)
		if step.IsReview() || len(fields) == 0 {
			continue
		}
		b.WriteString(stepStyle.Render(step.Title) + "\n")
		for _, f := range fields {
			b.WriteString("  " + labelStyle.Render(f.Label+": ") + displayValue(f, answers) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func displayValue(f models.FieldSchema, answers models.Answers) string {
	if f.Kind == models.FieldCheckbox {
		if answers.Bool(f.Name) {
			return "Yes"
		}
		return "No"
	}
	v := answers.String(f.Name)
	if v == "" {
		return helpStyle.Render("(not provided)")
	}
	if f.Kind.HasOptions() {
		return f.OptionLabel(v)
	}
	return v
}
