package ui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/padbhq/padb/internal/aidb"
)

// formField is one labelled text input. key matches the field names used
// by aidb.ValidationError so errors land next to the right input.
type formField struct {
	key   string
	label string
	input textinput.Model
}

// form is a vertical stack of inputs with per-field errors.
type form struct {
	fields []formField
	focus  int
	errors map[string]string
	// err is a submission error not tied to one field.
	err string
}

type fieldSpec struct {
	key         string
	label       string
	value       string
	placeholder string
	password    bool
	limit       int
}

func newForm(specs ...fieldSpec) form {
	f := form{errors: map[string]string{}}
	for _, s := range specs {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = s.placeholder
		in.SetValue(s.value)
		if s.limit > 0 {
			in.CharLimit = s.limit
		}
		if s.password {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		f.fields = append(f.fields, formField{key: s.key, label: s.label, input: in})
	}
	if len(f.fields) > 0 {
		f.fields[0].input.Focus()
	}
	return f
}

// value returns the trimmed value of the field with key k.
func (f form) value(k string) string {
	for _, fld := range f.fields {
		if fld.key == k {
			return strings.TrimSpace(fld.input.Value())
		}
	}
	return ""
}

// input returns the raw value of the field with key k (passwords are not trimmed).
func (f form) input(k string) string {
	for _, fld := range f.fields {
		if fld.key == k {
			return fld.input.Value()
		}
	}
	return ""
}

func (f form) has(k string) bool {
	for _, fld := range f.fields {
		if fld.key == k {
			return true
		}
	}
	return false
}

func (f *form) set(k, v string) {
	for i := range f.fields {
		if f.fields[i].key == k {
			f.fields[i].input.SetValue(v)
			return
		}
	}
}

func (f *form) move(delta int) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	f.fields[f.focus].input.Blur()
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	return f.fields[f.focus].input.Focus()
}

// update routes navigation keys and forwards the rest to the focused input.
func (f *form) update(msg tea.Msg, keys keyMap) tea.Cmd {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.NextField):
			return f.move(1)
		case key.Matches(km, keys.PrevField):
			return f.move(-1)
		}
	}
	if len(f.fields) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

// setError records err. A ValidationError is spread across fields; anything
// else becomes the form-level message.
func (f *form) setError(err error) {
	f.errors = map[string]string{}
	f.err = ""
	if err == nil {
		return
	}
	if ve, ok := aidb.AsValidation(err); ok {
		for k, v := range ve.Fields {
			// interests[1].interest_value belongs to the interests field.
			if i := strings.Index(k, "["); i > 0 && f.has(k[:i]) {
				k = k[:i]
			}
			if prev, ok := f.errors[k]; ok && prev != v {
				v = prev + "; " + v
			}
			f.errors[k] = v
		}
		f.err = f.orphanErrors()
		return
	}
	f.err = errorText(err)
}

// orphanErrors joins errors whose key has no visible field.
func (f form) orphanErrors() string {
	var out []string
	for k, v := range f.errors {
		if !f.has(k) {
			out = append(out, k+": "+v)
		}
	}
	sort.Strings(out)
	return strings.Join(out, "; ")
}

func (f form) view(styles Styles, width int) string {
	labelWidth := 0
	for _, fld := range f.fields {
		if n := len(fld.label); n > labelWidth {
			labelWidth = n
		}
	}
	labelWidth += 2
	inputWidth := width - labelWidth - 4
	if inputWidth < 10 {
		inputWidth = 10
	}

	var b strings.Builder
	for i, fld := range f.fields {
		label := styles.MutedText
		if i == f.focus {
			label = styles.AccentText.Bold(true)
		}
		in := fld.input
		in.Width = inputWidth
		b.WriteString(lipgloss.NewStyle().Width(labelWidth).Render(label.Render(fld.label)))
		b.WriteString(in.View())
		b.WriteString("\n")
		if msg, ok := f.errors[fld.key]; ok {
			b.WriteString(strings.Repeat(" ", labelWidth))
			b.WriteString(styles.DangerText.Render(msg))
			b.WriteString("\n")
		}
	}
	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render(f.err))
		b.WriteString("\n")
	}
	return b.String()
}
