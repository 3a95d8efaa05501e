package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(fgColor)
	hintStyle  = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
	fieldError = lipgloss.NewStyle().Foreground(errorColor)
	chosen     = lipgloss.NewStyle().Foreground(successColor).Bold(true)
)

type formField struct {
	schema  models.FieldSchema
	input   textinput.Model
	choice  int // index into schema.Options, -1 when unset
	checked bool
}

func (f *formField) textual() bool {
	return !f.schema.Kind.HasOptions() && f.schema.Kind != models.FieldCheckbox
}

// stepForm edits the fields of one wizard step.
type stepForm struct {
	fields []*formField
	focus  int
}

func newStepForm(schemas []models.FieldSchema, answers models.Answers, width int) *stepForm {
	form := &stepForm{}
	for _, s := range schemas {
		f := &formField{schema: s, choice: -1}
		switch {
		case s.Kind == models.FieldCheckbox:
			f.checked = answers.Bool(s.Name)
		case s.Kind.HasOptions():
			current := answers.String(s.Name)
			for i, o := range s.Options {
				if o.Value == current {
					f.choice = i
				}
			}
		default:
			ti := textinput.New()
			ti.Placeholder = s.Placeholder
			ti.CharLimit = 2000
			ti.Width = width
			ti.SetValue(answers.String(s.Name))
			f.input = ti
		}
		form.fields = append(form.fields, f)
	}
	form.setFocus(0)
	return form
}

func (s *stepForm) setFocus(i int) {
	if len(s.fields) == 0 {
		return
	}
	s.focus = (i + len(s.fields)) % len(s.fields)
	for idx, f := range s.fields {
		if !f.textual() {
			continue
		}
		if idx == s.focus {
			f.input.Focus()
		} else {
			f.input.Blur()
		}
	}
}

func (s *stepForm) next() { s.setFocus(s.focus + 1) }
func (s *stepForm) prev() { s.setFocus(s.focus - 1) }

func (s *stepForm) focused() *formField {
	if len(s.fields) == 0 {
		return nil
	}
	return s.fields[s.focus]
}

// cycle moves the focused option field by delta.
func (s *stepForm) cycle(delta int) bool {
	f := s.focused()
	if f == nil || !f.schema.Kind.HasOptions() || len(f.schema.Options) == 0 {
		return false
	}
	n := len(f.schema.Options)
	if f.choice < 0 {
		f.choice = 0
		return true
	}
	f.choice = (f.choice + delta + n) % n
	return true
}

// toggle flips the focused checkbox.
func (s *stepForm) toggle() bool {
	f := s.focused()
	if f == nil || f.schema.Kind != models.FieldCheckbox {
		return false
	}
	f.checked = !f.checked
	return true
}

func (s *stepForm) update(msg tea.Msg) tea.Cmd {
	f := s.focused()
	if f == nil || !f.textual() {
		return nil
	}
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return cmd
}

// value converts one widget back into an answer. Numbers that parse are
// stored as float64, matching what a JSON client would send.
func (f *formField) value() any {
	switch {
	case f.schema.Kind == models.FieldCheckbox:
		return f.checked
	case f.schema.Kind.HasOptions():
		if f.choice >= 0 {
			return f.schema.Options[f.choice].Value
		}
		return ""
	case f.schema.Kind == models.FieldNumber:
		raw := strings.TrimSpace(f.input.Value())
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
		return raw
	default:
		return f.input.Value()
	}
}

func (s *stepForm) values() map[string]any {
	out := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		out[f.schema.Name] = f.value()
	}
	return out
}

func (s *stepForm) view(errs map[string]string) string {
	if len(s.fields) == 0 {
		return hintStyle.Render("  Nothing to fill in on this step.") + "\n"
	}

	var b strings.Builder
	for i, f := range s.fields {
		marker := "  "
		if i == s.focus {
			marker = chosen.Render("› ")
		}
		label := f.schema.Label
		if f.schema.Required {
			label += " *"
		}
		b.WriteString(marker + labelStyle.Render(label) + "\n")

		switch {
		case f.schema.Kind == models.FieldCheckbox:
			box := "[ ]"
			if f.checked {
				box = chosen.Render("[x]")
			}
			text := f.schema.CheckboxLabel
			if text == "" {
				text = f.schema.Label
			}
			b.WriteString("    " + box + " " + text + "\n")
		case f.schema.Kind.HasOptions():
			for j, o := range f.schema.Options {
				if j == f.choice {
					b.WriteString("    " + chosen.Render("(•) "+o.Label) + "\n")
				} else {
					b.WriteString("    ( ) " + o.Label + "\n")
				}
			}
		default:
			b.WriteString("    " + f.input.View() + "\n")
		}

		if f.schema.Hint != "" {
			b.WriteString("    " + hintStyle.Render(f.schema.Hint) + "\n")
		}
		if msg, ok := errs[f.schema.Name]; ok {
			b.WriteString("    " + fieldError.Render(msg) + "\n")
		}
	}
	return b.String()
}
