package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
	"github.com/Lawguy81/cnslr-legal-platform/internal/render"
	"github.com/Lawguy81/cnslr-legal-platform/internal/store"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) (*App, *store.FileStore, string) {
	t.Helper()
	fs := store.NewFileStore(filepath.Join(t.TempDir(), "sessions"))
	out := filepath.Join(t.TempDir(), "docs")
	clock := func() time.Time { return fixedNow }
	app := New(Config{
		Store:    fs,
		Renderer: &render.Renderer{Now: clock},
		OutDir:   out,
		Format:   render.FormatHTML,
		Now:      clock,
	})
	return app, fs, out
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// fill sets every widget of the current form to a value the renderer accepts.
func fill(form *stepForm) {
	for _, f := range form.fields {
		switch {
		case f.schema.Kind == models.FieldCheckbox:
			f.checked = true
		case f.schema.Kind.HasOptions():
			f.choice = 0
		case f.schema.Kind == models.FieldDate:
			f.input.SetValue("1990-05-01")
		case f.schema.Kind == models.FieldNumber:
			f.input.SetValue("3")
		case f.schema.Kind == models.FieldEmail:
			f.input.SetValue("jane@example.com")
		default:
			f.input.SetValue("Jane")
		}
	}
}

func TestStartUnknownTask(t *testing.T) {
	app, _, _ := newTestApp(t)
	err := app.Start("divorce")
	require.Error(t, err)
	assert.Equal(t, modePicker, app.mode)
}

func TestPickerOpensSelectedTask(t *testing.T) {
	app, _, _ := newTestApp(t)
	task, ok := app.picker.Selected()
	require.True(t, ok)

	app.Update(key(tea.KeyEnter))
	assert.Equal(t, modeWizard, app.mode)
	assert.Equal(t, task.ID, app.machine.Task().ID)
}

func TestEnterWithMissingFieldsStays(t *testing.T) {
	app, _, _ := newTestApp(t)
	require.NoError(t, app.Start("name-change"))

	app.Update(key(tea.KeyEnter))
	assert.Equal(t, 0, app.machine.StepIndex())
	assert.NotEmpty(t, app.machine.FieldErrors())
	assert.True(t, strings.HasPrefix(app.message, "Error"), "message %q", app.message)
	assert.Contains(t, app.View(), "is required")
}

func TestTypingPersistsAnswers(t *testing.T) {
	app, fs, _ := newTestApp(t)
	require.NoError(t, app.Start("name-change"))

	app.Update(runes("Jane"))
	app.Update(key(tea.KeyEsc))
	assert.Equal(t, modePicker, app.mode)

	sess, err := fs.LoadSession(context.Background(), "name-change")
	require.NoError(t, err)
	assert.Equal(t, "Jane", sess.Answers["currentFirstName"])

	// Reopening resumes the saved answer.
	require.NoError(t, app.Start("name-change"))
	assert.Equal(t, "Resumed your saved progress", app.message)
	assert.Equal(t, "Jane", app.form.fields[0].input.Value())
}

func TestKeystrokesPersistWithoutCommit(t *testing.T) {
	app, fs, _ := newTestApp(t)
	require.NoError(t, app.Start("name-change"))

	app.Update(runes("Jane"))
	sess, err := fs.LoadSession(context.Background(), "name-change")
	require.NoError(t, err, "typed answer should be saved before leaving the step")
	assert.Equal(t, "Jane", sess.Answers["currentFirstName"])

	app.Update(runes("t"))
	sess, err = fs.LoadSession(context.Background(), "name-change")
	require.NoError(t, err)
	assert.Equal(t, "Janet", sess.Answers["currentFirstName"])
	assert.Equal(t, modeWizard, app.mode)
}

func TestSaveFailuresAreSurfaced(t *testing.T) {
	app, fs, _ := newTestApp(t)
	require.NoError(t, app.Start("name-change"))

	// A regular file where the session directory should be makes every write fail.
	require.NoError(t, os.RemoveAll(fs.Dir()))
	require.NoError(t, os.WriteFile(fs.Dir(), []byte("x"), 0o600))

	app.Update(runes("J"))
	assert.True(t, strings.HasPrefix(app.message, "Error"), "message %q", app.message)

	_, cmd := app.Update(key(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	assert.Error(t, app.quitErr)
}

func TestOptionKeysPersistImmediately(t *testing.T) {
	app, fs, _ := newTestApp(t)
	require.NoError(t, app.Start("name-change"))

	for i := 0; i < 2; i++ {
		fill(app.form)
		app.Update(key(tea.KeyEnter))
	}
	require.Equal(t, 2, app.machine.StepIndex())
	require.Equal(t, models.FieldRadio, app.form.focused().schema.Kind)

	app.Update(key(tea.KeyRight))
	f := app.form.focused()
	sess, err := fs.LoadSession(context.Background(), "name-change")
	require.NoError(t, err)
	assert.Equal(t, f.schema.Options[0].Value, sess.Answers[f.schema.Name])
}

func TestOptionAndCheckboxWidgets(t *testing.T) {
	form := newStepForm([]models.FieldSchema{
		{Name: "reason", Label: "Reason", Kind: models.FieldRadio, Options: []models.Option{{Value: "a", Label: "A"}, {Value: "b", Label: "B"}}},
		{Name: "ack", Label: "Ack", Kind: models.FieldCheckbox},
		{Name: "amount", Label: "Amount", Kind: models.FieldNumber},
	}, models.Answers{"amount": 12.5}, 40)

	assert.True(t, form.cycle(1))
	assert.True(t, form.cycle(1))
	assert.False(t, form.toggle())

	form.next()
	assert.True(t, form.toggle())
	assert.False(t, form.cycle(1))

	values := form.values()
	assert.Equal(t, "b", values["reason"])
	assert.Equal(t, true, values["ack"])
	assert.Equal(t, 12.5, values["amount"])

	form.prev()
	form.prev()
	assert.Equal(t, 2, form.focus)
}

func TestBackKeepsAnswers(t *testing.T) {
	app, _, _ := newTestApp(t)
	require.NoError(t, app.Start("name-change"))

	fill(app.form)
	app.Update(key(tea.KeyEnter))
	require.Equal(t, 1, app.machine.StepIndex())

	app.Update(key(tea.KeyCtrlB))
	assert.Equal(t, 0, app.machine.StepIndex())
	assert.Equal(t, "Jane", app.form.fields[0].input.Value())
}

func TestCompleteWizardWritesDocument(t *testing.T) {
	app, fs, out := newTestApp(t)
	require.NoError(t, app.Start("name-change"))

	for !app.machine.IsReview() {
		before := app.machine.StepIndex()
		fill(app.form)
		app.Update(key(tea.KeyEnter))
		require.Equal(t, before+1, app.machine.StepIndex(), "step %s: %v", app.machine.Step().ID, app.machine.FieldErrors())
	}
	assert.Contains(t, app.View(), "Current First Name")

	_, cmd := app.Update(key(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.Equal(t, modeDone, app.mode)

	msg := cmd()
	saved, ok := msg.(documentSavedMsg)
	require.True(t, ok, "expected documentSavedMsg, got %T: %v", msg, msg)
	app.Update(saved)

	assert.Equal(t, filepath.Join(out, "name-change-petition-jane-jane.html"), saved.path)
	body, err := os.ReadFile(saved.path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<html")

	completed, err := fs.LoadCompleted(context.Background(), "name-change")
	require.NoError(t, err)
	assert.True(t, completed.SubmittedAt.Equal(fixedNow))
	assert.Contains(t, app.View(), saved.path)

	app.Update(runes("n"))
	assert.Equal(t, modePicker, app.mode)
}
