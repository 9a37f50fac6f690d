package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/padbhq/padb/internal/aidb"
)

type loginScreen struct {
	base
	form       form
	submitting bool
}

type loginResultMsg struct {
	email string
	res   aidb.LoginResult
	err   error
}

func newLoginScreen(b base) *loginScreen {
	return &loginScreen{
		base: b,
		form: newForm(
			fieldSpec{key: "email", label: "Email", placeholder: "you@example.com"},
			fieldSpec{key: "password", label: "Password", password: true},
		),
	}
}

func (s *loginScreen) route() Route     { return RouteLogin }
func (s *loginScreen) init() tea.Cmd    { return nil }
func (s *loginScreen) capturing() bool  { return true }
func (s *loginScreen) hints() []keyHint { return []keyHint{{"tab", "Next"}, {"enter", "Sign in"}} }

func (s *loginScreen) update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		s.submitting = false
		if msg.err != nil {
			s.form.setError(msg.err)
			if aidb.StatusCode(msg.err) == 401 {
				s.form.err = "Incorrect email or password"
			}
			return s, nil
		}
		email := msg.res.UserEmail
		if email == "" {
			email = msg.email
		}
		if err := s.env.gate.Login(email, msg.res.AccessToken); err != nil {
			s.form.setError(err)
			return s, nil
		}
		return s, navigate(RouteDashboard, 0)

	case tea.KeyMsg:
		if key.Matches(msg, s.env.keys.Submit) {
			return s, s.submit()
		}
	}
	return s, s.form.update(msg, s.env.keys)
}

func (s *loginScreen) submit() tea.Cmd {
	if s.submitting {
		return nil
	}
	draft := aidb.LoginDraft{Email: s.form.value("email"), Password: s.form.input("password")}
	if err := draft.Validate(); err != nil {
		s.form.setError(err)
		return nil
	}
	s.form.setError(nil)
	s.submitting = true
	auth := s.env.client.Auth
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		res, err := auth.Login(ctx, draft.Email, draft.Password)
		return loginResultMsg{email: draft.Email, res: res, err: err}, err
	})
}

func (s *loginScreen) view(f frame) string {
	var b strings.Builder
	if f.height >= 20 {
		b.WriteString(renderLogo(f.styles.Logo))
		b.WriteString("\n\n")
	}
	b.WriteString(f.styles.Logo.Render("Personal AI Database"))
	b.WriteString("\n")
	b.WriteString(f.styles.MutedText.Render("Sign in to continue"))
	b.WriteString("\n\n")
	if notice := s.env.gate.Snapshot().Notice; notice != "" {
		b.WriteString(f.styles.WarningText.Render(notice))
		b.WriteString("\n\n")
	}
	b.WriteString(s.form.view(f.styles, min(f.width, 70)))
	if s.submitting {
		b.WriteString("\n")
		b.WriteString(f.spinner + " " + f.styles.MutedText.Render("Signing in..."))
	}
	return b.String()
}
