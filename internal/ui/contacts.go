package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/padbhq/padb/internal/aidb"
	"github.com/padbhq/padb/internal/listops"
	"github.com/padbhq/padb/internal/viewstate"
)

type contactsScreen struct {
	base
	list      viewstate.Fetch[[]aidb.Contact]
	deletes   *viewstate.Actions[int64]
	selected  int
	query     string
	search    textinput.Model
	searching bool
	confirm   int64 // id awaiting delete confirmation
	status    string
}

type contactsMsg struct {
	ticket   viewstate.Ticket
	contacts []aidb.Contact
	err      error
}

type contactDeletedMsg struct {
	id  int64
	err error
}

func newContactsScreen(b base) *contactsScreen {
	in := textinput.New()
	in.Prompt = "/"
	in.Placeholder = "name, email, company..."
	return &contactsScreen{base: b, search: in, deletes: viewstate.NewActions[int64]()}
}

func (s *contactsScreen) route() Route    { return RouteContacts }
func (s *contactsScreen) capturing() bool { return s.searching }
func (s *contactsScreen) init() tea.Cmd   { return s.load() }

func (s *contactsScreen) hints() []keyHint {
	if s.searching {
		return []keyHint{{"enter", "Search"}, {"esc", "Cancel"}}
	}
	return []keyHint{{"j/k", "Navigate"}, {"enter", "Open"}, {"/", "Search"}, {"n", "New"}, {"e", "Edit"}, {"d", "Delete"}, {"r", "Refresh"}}
}

func (s *contactsScreen) load() tea.Cmd {
	ticket := s.list.Begin()
	filter := aidb.ContactFilter{Search: s.query, Limit: s.env.prefs.PageSize}
	contacts := s.env.client.Contacts
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		list, err := contacts.List(ctx, filter)
		return contactsMsg{ticket: ticket, contacts: list, err: err}, err
	})
}

func (s *contactsScreen) current() (aidb.Contact, bool) {
	list, ok := s.list.Value()
	if !ok || s.selected < 0 || s.selected >= len(list) {
		return aidb.Contact{}, false
	}
	return list[s.selected], true
}

func (s *contactsScreen) update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case contactsMsg:
		if s.list.Resolve(msg.ticket, msg.contacts, msg.err) {
			s.selected = 0
		}
		return s, nil

	case contactDeletedMsg:
		if msg.err != nil {
			s.deletes.Fail(msg.id, msg.err)
			s.status = "Delete failed: " + errorText(msg.err)
			return s, nil
		}
		s.deletes.Done(msg.id)
		s.list.Mutate(func(list []aidb.Contact) []aidb.Contact {
			return listops.RemoveByID(list, msg.id)
		})
		if list, _ := s.list.Value(); s.selected >= len(list) && s.selected > 0 {
			s.selected--
		}
		s.status = "Contact deleted"
		return s, nil

	case tea.KeyMsg:
		if s.searching {
			return s, s.updateSearch(msg)
		}
		return s, s.handleKey(msg)
	}
	return s, nil
}

func (s *contactsScreen) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		s.searching = false
		s.search.Blur()
		s.query = strings.TrimSpace(s.search.Value())
		return s.load()
	case "esc":
		s.searching = false
		s.search.Blur()
		s.search.SetValue(s.query)
		return nil
	}
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(msg)
	return cmd
}

func (s *contactsScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	keys := s.env.keys
	if s.confirm != 0 {
		id := s.confirm
		s.confirm = 0
		if msg.String() == "y" {
			return s.remove(id)
		}
		s.status = ""
		return nil
	}

	list, _ := s.list.Value()
	switch {
	case key.Matches(msg, keys.Search):
		s.searching = true
		return s.search.Focus()
	case key.Matches(msg, keys.Back):
		if s.query != "" {
			s.query = ""
			s.search.SetValue("")
			return s.load()
		}
	case key.Matches(msg, keys.Refresh):
		return s.load()
	case key.Matches(msg, keys.New):
		return navigate(RouteContactForm, 0)
	case key.Matches(msg, keys.Open):
		if c, ok := s.current(); ok {
			return navigate(RouteContact, c.ID)
		}
	case key.Matches(msg, keys.Edit):
		if c, ok := s.current(); ok {
			return navigate(RouteContactForm, c.ID)
		}
	case key.Matches(msg, keys.Delete):
		if c, ok := s.current(); ok {
			s.confirm = c.ID
			s.status = fmt.Sprintf("Delete %s? y/n", c.FullName())
		}
	default:
		s.selected = moveSelection(s.selected, len(list), msg.String())
	}
	return nil
}

func (s *contactsScreen) remove(id int64) tea.Cmd {
	if !s.deletes.Start(id, "delete") {
		return nil
	}
	s.status = "Deleting..."
	contacts := s.env.client.Contacts
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		err := contacts.Delete(ctx, id)
		return contactDeletedMsg{id: id, err: err}, err
	})
}

func (s *contactsScreen) view(f frame) string {
	var b strings.Builder
	if s.searching {
		b.WriteString(s.search.View())
		b.WriteString("\n\n")
	} else if s.query != "" {
		b.WriteString(f.styles.AccentText.Render("Search: " + s.query))
		b.WriteString(f.styles.FaintText.Render("  (esc clears)"))
		b.WriteString("\n\n")
	}

	snap := s.list.Snapshot()
	if out, ok := stateView(f, snap, "contacts", ""); ok {
		b.WriteString(out)
		return b.String()
	}
	list := snap.Value
	if len(list) == 0 {
		if s.query != "" {
			b.WriteString(emptyView(f, "No contacts match "+s.query, "esc clears the search"))
		} else {
			b.WriteString(emptyView(f, "No contacts yet", "n to add one, or upload a recording"))
		}
		return b.String()
	}

	wide := f.width >= LayoutWideWidth
	header := fmt.Sprintf("%-26s %-28s %-22s", "Name", "Email", "Company")
	if wide {
		header += fmt.Sprintf(" %-18s %s", "Location", "Created")
	}
	b.WriteString(f.styles.MutedText.Bold(true).Render(header))
	b.WriteString("\n")

	start, end := scrollWindow(len(list), s.selected, f.height-6)
	for i := start; i < end; i++ {
		c := list[i]
		row := fmt.Sprintf("%-26s %-28s %-22s",
			truncate(c.FullName(), 26), truncate(dash(c.Email), 28), truncate(dash(c.Company), 22))
		if wide {
			row += fmt.Sprintf(" %-18s %s", truncate(dash(c.Location), 18), formatDate(c.ParsedCreatedAt()))
		}
		if st := s.deletes.Get(c.ID); st.Phase == viewstate.InProgress {
			row += "  deleting..."
		}
		b.WriteString(listRow(f, row, i == s.selected))
		b.WriteString("\n")
	}
	b.WriteString(f.styles.FaintText.Render(fmt.Sprintf("%d contacts", len(list))))
	if s.status != "" {
		b.WriteString("  ")
		b.WriteString(f.styles.WarningText.Render(s.status))
	}
	return b.String()
}
