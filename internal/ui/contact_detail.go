package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/padbhq/padb/internal/aidb"
	"github.com/padbhq/padb/internal/viewstate"
)

// similarLimit is how many similar contacts the detail view asks for.
const similarLimit = 5

type contactDetailScreen struct {
	base
	contactID int64
	contact   viewstate.Fetch[aidb.Contact]
	similar   viewstate.Fetch[aidb.SimilarContacts]
	confirm   bool
	deleting  bool
	status    string
}

type contactMsg struct {
	ticket  viewstate.Ticket
	contact aidb.Contact
	err     error
}

type similarMsg struct {
	ticket  viewstate.Ticket
	similar aidb.SimilarContacts
	err     error
}

type contactRemovedMsg struct{ err error }

func newContactDetailScreen(b base, id int64) *contactDetailScreen {
	return &contactDetailScreen{base: b, contactID: id}
}

func (s *contactDetailScreen) route() Route    { return RouteContact }
func (s *contactDetailScreen) capturing() bool { return false }
func (s *contactDetailScreen) init() tea.Cmd   { return s.load() }

func (s *contactDetailScreen) hints() []keyHint {
	return []keyHint{{"esc", "Contacts"}, {"e", "Edit"}, {"d", "Delete"}, {"r", "Refresh"}}
}

func (s *contactDetailScreen) load() tea.Cmd {
	ticket := s.contact.Begin()
	s.similar.Reset()
	id := s.contactID
	contacts := s.env.client.Contacts
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		c, err := contacts.Get(ctx, id)
		return contactMsg{ticket: ticket, contact: c, err: err}, err
	})
}

func (s *contactDetailScreen) loadSimilar() tea.Cmd {
	ticket := s.similar.Begin()
	id := s.contactID
	contacts := s.env.client.Contacts
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		sim, err := contacts.Similar(ctx, id, similarLimit)
		// Similarity is optional; only the session check looks at err.
		if aidb.IsUnauthorized(err) {
			return similarMsg{ticket: ticket, err: err}, err
		}
		return similarMsg{ticket: ticket, similar: sim, err: err}, nil
	})
}

func (s *contactDetailScreen) update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case contactMsg:
		if s.contact.Resolve(msg.ticket, msg.contact, msg.err) && msg.err == nil {
			return s, s.loadSimilar()
		}
	case similarMsg:
		s.similar.Resolve(msg.ticket, msg.similar, msg.err)
	case contactRemovedMsg:
		s.deleting = false
		if msg.err != nil {
			s.status = "Delete failed: " + errorText(msg.err)
			return s, nil
		}
		return s, navigateWithFlash(RouteContacts, 0, "Contact deleted")
	case tea.KeyMsg:
		return s, s.handleKey(msg)
	}
	return s, nil
}

func (s *contactDetailScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	keys := s.env.keys
	if s.confirm {
		s.confirm = false
		s.status = ""
		if msg.String() == "y" {
			return s.remove()
		}
		return nil
	}
	switch {
	case key.Matches(msg, keys.Back):
		return navigate(RouteContacts, 0)
	case key.Matches(msg, keys.Refresh):
		return s.load()
	case key.Matches(msg, keys.Edit):
		if _, ok := s.contact.Value(); ok {
			return navigate(RouteContactForm, s.contactID)
		}
	case key.Matches(msg, keys.Delete):
		if c, ok := s.contact.Value(); ok {
			s.confirm = true
			s.status = fmt.Sprintf("Delete %s? y/n", c.FullName())
		}
	}
	return nil
}

func (s *contactDetailScreen) remove() tea.Cmd {
	if s.deleting {
		return nil
	}
	s.deleting = true
	s.status = "Deleting..."
	id := s.contactID
	contacts := s.env.client.Contacts
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		err := contacts.Delete(ctx, id)
		return contactRemovedMsg{err: err}, err
	})
}

func (s *contactDetailScreen) view(f frame) string {
	snap := s.contact.Snapshot()
	if out, ok := stateView(f, snap, "contact", "Contact not found"); ok {
		return out
	}
	c := snap.Value
	st := f.styles

	var b strings.Builder
	b.WriteString(st.Text.Bold(true).Render(c.FullName()))
	if c.JobTitle != "" || c.Company != "" {
		b.WriteString("  ")
		b.WriteString(st.MutedText.Render(strings.Trim(c.JobTitle+" @ "+c.Company, " @")))
	}
	b.WriteString("\n\n")

	rows := []struct{ label, value string }{
		{"Email", dash(c.Email)},
		{"Phone", dash(c.Phone)},
		{"Location", dash(c.Location)},
		{"Age", intOrDash(c.Age)},
		{"Pets", petsLabel(c.HasPets)},
		{"Created", formatDate(c.ParsedCreatedAt())},
		{"Updated", formatDate(c.ParsedUpdatedAt())},
	}
	for _, r := range rows {
		b.WriteString(st.MutedText.Render(padRight(r.label, 10)))
		b.WriteString(st.Text.Render(r.value))
		b.WriteString("\n")
	}

	if c.BusinessNeeds != "" {
		b.WriteString("\n")
		b.WriteString(st.AccentText.Bold(true).Render("Business needs"))
		b.WriteString("\n")
		b.WriteString(st.Text.Render(c.BusinessNeeds))
		b.WriteString("\n")
	}
	if c.PersonalNotes != "" {
		b.WriteString("\n")
		b.WriteString(st.AccentText.Bold(true).Render("Notes"))
		b.WriteString("\n")
		b.WriteString(st.Text.Render(c.PersonalNotes))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(st.AccentText.Bold(true).Render("Interests"))
	b.WriteString("\n")
	if len(c.Interests) == 0 {
		b.WriteString(st.FaintText.Render("none"))
		b.WriteString("\n")
	}
	for _, in := range c.Interests {
		line := fmt.Sprintf("%s: %s", dash(in.Category), in.Value)
		if in.ConfidenceScore != nil {
			line += fmt.Sprintf(" (%.0f%%)", *in.ConfidenceScore*100)
		}
		b.WriteString(st.Text.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(st.AccentText.Bold(true).Render("Skills"))
	b.WriteString("\n")
	if len(c.Skills) == 0 {
		b.WriteString(st.FaintText.Render("none"))
		b.WriteString("\n")
	}
	for _, sk := range c.Skills {
		line := sk.Name
		if sk.Level != "" {
			line += " · " + sk.Level
		}
		if sk.YearsExperience != nil {
			line += fmt.Sprintf(" · %dy", *sk.YearsExperience)
		}
		b.WriteString(st.Text.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(st.AccentText.Bold(true).Render("Similar contacts"))
	b.WriteString("\n")
	sim := s.similar.Snapshot()
	switch sim.Phase {
	case viewstate.Loading:
		b.WriteString(f.spinner + " " + st.MutedText.Render("Finding similar contacts..."))
	case viewstate.Failure:
		b.WriteString(st.FaintText.Render("Similarity search unavailable"))
	case viewstate.Success:
		if len(sim.Value.Similar) == 0 {
			b.WriteString(st.FaintText.Render("none"))
		}
		for _, sc := range sim.Value.Similar {
			name, _ := sc.Metadata["name"].(string)
			if name == "" {
				name = fmt.Sprintf("#%d", sc.ContactID)
			}
			b.WriteString(st.Text.Render(fmt.Sprintf("%s  %.2f", name, sc.SimilarityScore)))
			b.WriteString("\n")
		}
	}

	if s.status != "" {
		b.WriteString("\n")
		b.WriteString(st.WarningText.Render(s.status))
	}
	return b.String()
}

func petsLabel(v *bool) string {
	switch {
	case v == nil:
		return "-"
	case *v:
		return "yes"
	default:
		return "no"
	}
}
