package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/padbhq/padb/internal/aidb"
	"github.com/padbhq/padb/internal/prefs"
)

type settingsSection int

const (
	sectionPrefs settingsSection = iota
	sectionPassword
)

// settingsScreen edits console preferences and changes the account
// password. Each section is a form entered with enter and left with esc.
type settingsScreen struct {
	base
	section  settingsSection
	editing  bool
	prefs    form
	password form
	saving   bool
	notice   string
	failed   bool
}

// prefsChangedMsg tells the root to apply new preferences.
type prefsChangedMsg struct{ prefs prefs.Prefs }

type prefsSavedMsg struct {
	prefs prefs.Prefs
	err   error
}

type passwordChangedMsg struct {
	message string
	err     error
}

func newSettingsScreen(b base) *settingsScreen {
	s := &settingsScreen{base: b}
	s.prefs = prefsForm(b.env.prefs)
	s.password = passwordForm()
	return s
}

func prefsForm(p prefs.Prefs) form {
	return newForm(
		fieldSpec{key: "theme", label: "Theme", value: p.Theme, placeholder: strings.Join(ThemeNames(), ", ")},
		fieldSpec{key: "search_limit", label: "Search limit", value: strconv.Itoa(p.SearchLimit), limit: 3},
		fieldSpec{key: "vector_search", label: "Vector search", value: ternary(p.VectorSearch, "on", "off"), placeholder: "on / off"},
		fieldSpec{key: "page_size", label: "Page size", value: strconv.Itoa(p.PageSize), limit: 4},
	)
}

func passwordForm() form {
	return newForm(
		fieldSpec{key: "current_password", label: "Current password", password: true},
		fieldSpec{key: "new_password", label: "New password", password: true},
		fieldSpec{key: "confirm_password", label: "Confirm password", password: true},
	)
}

func (s *settingsScreen) route() Route    { return RouteSettings }
func (s *settingsScreen) capturing() bool { return s.editing }
func (s *settingsScreen) init() tea.Cmd   { return nil }

func (s *settingsScreen) hints() []keyHint {
	if s.editing {
		return []keyHint{{"tab", "Next"}, {"ctrl+s", "Save"}, {"esc", "Done"}}
	}
	return []keyHint{{"j/k", "Section"}, {"enter", "Edit"}}
}

func (s *settingsScreen) active() *form {
	if s.section == sectionPassword {
		return &s.password
	}
	return &s.prefs
}

func (s *settingsScreen) update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case prefsSavedMsg:
		s.saving = false
		if msg.err != nil {
			s.setNotice("Could not save preferences: "+msg.err.Error(), true)
			return s, nil
		}
		s.editing = false
		s.prefs = prefsForm(msg.prefs)
		s.setNotice("Preferences saved", false)
		return s, func() tea.Msg { return prefsChangedMsg{prefs: msg.prefs} }

	case passwordChangedMsg:
		s.saving = false
		if msg.err != nil {
			s.password.setError(msg.err)
			return s, nil
		}
		s.editing = false
		s.password = passwordForm()
		s.setNotice(dash(msg.message), false)
		return s, nil

	case tea.KeyMsg:
		return s, s.handleKey(msg)
	}
	if s.editing {
		return s, s.active().update(msg, s.env.keys)
	}
	return s, nil
}

func (s *settingsScreen) setNotice(text string, failed bool) {
	s.notice = text
	s.failed = failed
}

func (s *settingsScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	keys := s.env.keys
	if !s.editing {
		switch {
		case key.Matches(msg, keys.Open), key.Matches(msg, keys.Edit):
			s.editing = true
			s.notice = ""
			f := s.active()
			f.focus = 0
			return f.fields[0].input.Focus()
		case key.Matches(msg, keys.Down), key.Matches(msg, keys.Up):
			s.section = 1 - s.section
		}
		return nil
	}
	switch {
	case key.Matches(msg, keys.Back):
		s.editing = false
		f := s.active()
		f.fields[f.focus].input.Blur()
		if s.section == sectionPrefs {
			s.prefs = prefsForm(s.env.prefs)
		} else {
			s.password = passwordForm()
		}
		return nil
	case key.Matches(msg, keys.Save), key.Matches(msg, keys.Submit) && s.lastField():
		if s.section == sectionPassword {
			return s.changePassword()
		}
		return s.savePrefs()
	}
	return s.active().update(msg, keys)
}

func (s *settingsScreen) lastField() bool {
	f := s.active()
	return f.focus == len(f.fields)-1
}

// draftPrefs reads the preferences form, reporting bad values per field.
func (s *settingsScreen) draftPrefs() (prefs.Prefs, error) {
	f := s.prefs
	p := s.env.prefs
	bad := map[string]string{}

	theme := f.value("theme")
	matched := false
	for _, name := range ThemeNames() {
		if strings.EqualFold(name, theme) {
			p.Theme = name
			matched = true
		}
	}
	if !matched {
		bad["theme"] = "choose one of " + strings.Join(ThemeNames(), ", ")
	}
	if n, err := strconv.Atoi(f.value("search_limit")); err != nil || n < 1 || n > prefs.MaxSearchLimit {
		bad["search_limit"] = fmt.Sprintf("search limit must be between 1 and %d", prefs.MaxSearchLimit)
	} else {
		p.SearchLimit = n
	}
	switch strings.ToLower(f.value("vector_search")) {
	case "on", "yes", "true", "y":
		p.VectorSearch = true
	case "off", "no", "false", "n":
		p.VectorSearch = false
	default:
		bad["vector_search"] = "answer on or off"
	}
	if n, err := strconv.Atoi(f.value("page_size")); err != nil || n < 1 || n > prefs.MaxPageSize {
		bad["page_size"] = fmt.Sprintf("page size must be between 1 and %d", prefs.MaxPageSize)
	} else {
		p.PageSize = n
	}
	if len(bad) > 0 {
		return p, &aidb.ValidationError{Fields: bad}
	}
	return p, nil
}

func (s *settingsScreen) savePrefs() tea.Cmd {
	if s.saving {
		return nil
	}
	p, err := s.draftPrefs()
	s.prefs.setError(err)
	if err != nil {
		return nil
	}
	s.saving = true
	path := s.env.prefsPath
	return s.call(func(context.Context) (tea.Msg, error) {
		return prefsSavedMsg{prefs: p, err: prefs.Save(path, p)}, nil
	})
}

func (s *settingsScreen) changePassword() tea.Cmd {
	if s.saving {
		return nil
	}
	change := aidb.PasswordChange{
		Current: s.password.input("current_password"),
		New:     s.password.input("new_password"),
		Confirm: s.password.input("confirm_password"),
	}
	err := change.Validate()
	s.password.setError(err)
	if err != nil {
		return nil
	}
	s.saving = true
	auth := s.env.client.Auth
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		res, err := auth.ChangePassword(ctx, change)
		return passwordChangedMsg{message: res.Message, err: err}, err
	})
}

func (s *settingsScreen) view(f frame) string {
	st := f.styles
	width := min(f.width, 90)
	var b strings.Builder

	sess := s.env.gate.Snapshot()
	b.WriteString(st.MutedText.Render(padRight("Account", 14)) + st.Text.Render(dash(sess.Email)) + "\n")
	if !sess.ExpiresAt.IsZero() {
		b.WriteString(st.MutedText.Render(padRight("Session ends", 14)) + st.Text.Render(formatDate(sess.ExpiresAt.Local())) + "\n")
	}
	b.WriteString(st.MutedText.Render(padRight("API", 14)) + st.Text.Render(s.env.client.BaseURL()) + "\n")
	b.WriteString(st.MutedText.Render(padRight("Log file", 14)) + st.Text.Render(dash(s.env.logFile)) + "\n")

	sections := []struct {
		title string
		id    settingsSection
		form  form
	}{
		{"Preferences", sectionPrefs, s.prefs},
		{"Change password", sectionPassword, s.password},
	}
	for _, sec := range sections {
		b.WriteString("\n")
		title := "  " + sec.title
		style := st.MutedText.Bold(true)
		if s.section == sec.id {
			title = "▸ " + sec.title
			style = st.AccentText.Bold(true)
		}
		b.WriteString(style.Render(title))
		b.WriteString("\n")
		if s.editing && s.section == sec.id {
			b.WriteString(sec.form.view(st, width))
			continue
		}
		if sec.id == sectionPrefs {
			p := s.env.prefs
			b.WriteString(st.Text.Render(fmt.Sprintf("  theme %s, search limit %d, vector search %s, page size %d",
				p.Theme, p.SearchLimit, ternary(p.VectorSearch, "on", "off"), p.PageSize)))
			b.WriteString("\n")
		} else {
			b.WriteString(st.FaintText.Render(fmt.Sprintf("  at least %d characters", aidb.MinPasswordLength)))
			b.WriteString("\n")
		}
	}

	if s.saving {
		b.WriteString("\n" + f.spinner + " " + st.MutedText.Render("Saving..."))
	} else if s.notice != "" {
		b.WriteString("\n")
		if s.failed {
			b.WriteString(st.DangerText.Render(s.notice))
		} else {
			b.WriteString(st.SuccessText.Render(s.notice))
		}
	}
	return b.String()
}
