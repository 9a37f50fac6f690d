package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/padbhq/padb/internal/aidb"
	"github.com/padbhq/padb/internal/viewstate"
)

// contactFormScreen creates a contact (id 0) or edits one. Interests are
// entered as "Category: value; value" and skills as "Name:Level:years; Name".
type contactFormScreen struct {
	base
	contactID int64
	existing  viewstate.Fetch[aidb.Contact]
	form      form
	ready     bool
	saving    bool
}

type contactSavedMsg struct {
	contact aidb.Contact
	err     error
}

func newContactFormScreen(b base, id int64) *contactFormScreen {
	s := &contactFormScreen{base: b, contactID: id}
	if id == 0 {
		s.form = contactForm(aidb.ContactDraft{})
		s.ready = true
	}
	return s
}

func contactForm(d aidb.ContactDraft) form {
	age := ""
	if d.Age != nil {
		age = strconv.Itoa(*d.Age)
	}
	pets := ""
	if d.HasPets != nil {
		pets = map[bool]string{true: "yes", false: "no"}[*d.HasPets]
	}
	return newForm(
		fieldSpec{key: "first_name", label: "First name", value: d.FirstName},
		fieldSpec{key: "last_name", label: "Last name", value: d.LastName},
		fieldSpec{key: "email", label: "Email", value: d.Email},
		fieldSpec{key: "phone", label: "Phone", value: d.Phone},
		fieldSpec{key: "job_title", label: "Job title", value: d.JobTitle},
		fieldSpec{key: "company", label: "Company", value: d.Company},
		fieldSpec{key: "location", label: "Location", value: d.Location},
		fieldSpec{key: "age", label: "Age", value: age, limit: 3},
		fieldSpec{key: "has_pets", label: "Has pets", value: pets, placeholder: "yes / no"},
		fieldSpec{key: "business_needs", label: "Business needs", value: d.BusinessNeeds},
		fieldSpec{key: "personal_notes", label: "Notes", value: d.PersonalNotes},
		fieldSpec{key: "interests", label: "Interests", value: formatInterests(d.Interests), placeholder: "Sports: tennis; jazz"},
		fieldSpec{key: "skills", label: "Skills", value: formatSkills(d.Skills), placeholder: "Go:Expert:5; SQL"},
	)
}

func (s *contactFormScreen) route() Route    { return RouteContactForm }
func (s *contactFormScreen) capturing() bool { return s.ready }

func (s *contactFormScreen) hints() []keyHint {
	return []keyHint{{"tab", "Next"}, {"shift+tab", "Prev"}, {"ctrl+s", "Save"}, {"esc", "Cancel"}}
}

func (s *contactFormScreen) init() tea.Cmd {
	if s.contactID == 0 {
		return nil
	}
	ticket := s.existing.Begin()
	id := s.contactID
	contacts := s.env.client.Contacts
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		c, err := contacts.Get(ctx, id)
		return contactMsg{ticket: ticket, contact: c, err: err}, err
	})
}

func (s *contactFormScreen) update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case contactMsg:
		if s.existing.Resolve(msg.ticket, msg.contact, msg.err) && msg.err == nil {
			s.form = contactForm(aidb.DraftFromContact(msg.contact))
			s.ready = true
		}
		return s, nil

	case contactSavedMsg:
		s.saving = false
		if msg.err != nil {
			s.form.setError(msg.err)
			return s, nil
		}
		verb := "created"
		if s.contactID != 0 {
			verb = "updated"
		}
		return s, navigateWithFlash(RouteContact, msg.contact.ID, "Contact "+verb)

	case tea.KeyMsg:
		keys := s.env.keys
		switch {
		case key.Matches(msg, keys.Back):
			if s.contactID != 0 {
				return s, navigate(RouteContact, s.contactID)
			}
			return s, navigate(RouteContacts, 0)
		case !s.ready:
			if key.Matches(msg, keys.Refresh) {
				return s, s.init()
			}
			return s, nil
		case key.Matches(msg, keys.Save):
			return s, s.submit()
		}
	}
	if !s.ready {
		return s, nil
	}
	return s, s.form.update(msg, s.env.keys)
}

// draft converts the form into a ContactDraft. Parse problems come back as
// a ValidationError keyed like the draft's own validation.
func (s *contactFormScreen) draft() (aidb.ContactDraft, error) {
	f := s.form
	d := aidb.ContactDraft{
		FirstName:     f.value("first_name"),
		LastName:      f.value("last_name"),
		Email:         f.value("email"),
		Phone:         f.value("phone"),
		JobTitle:      f.value("job_title"),
		Company:       f.value("company"),
		Location:      f.value("location"),
		BusinessNeeds: f.value("business_needs"),
		PersonalNotes: f.value("personal_notes"),
		Interests:     parseInterests(f.value("interests")),
	}
	bad := map[string]string{}
	if v := f.value("age"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			bad["age"] = "age must be a number"
		} else {
			d.Age = &n
		}
	}
	switch strings.ToLower(f.value("has_pets")) {
	case "":
	case "y", "yes", "true":
		yes := true
		d.HasPets = &yes
	case "n", "no", "false":
		no := false
		d.HasPets = &no
	default:
		bad["has_pets"] = "answer yes or no"
	}
	skills, err := parseSkills(f.value("skills"))
	if err != nil {
		bad["skills"] = err.Error()
	}
	d.Skills = skills
	if len(bad) > 0 {
		return d, &aidb.ValidationError{Fields: bad}
	}
	return d, nil
}

func (s *contactFormScreen) submit() tea.Cmd {
	if s.saving {
		return nil
	}
	d, err := s.draft()
	if err == nil {
		err = d.Normalize().Validate()
	}
	if err != nil {
		s.form.setError(err)
		return nil
	}
	s.form.setError(nil)
	s.saving = true
	id := s.contactID
	contacts := s.env.client.Contacts
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		var (
			c   aidb.Contact
			err error
		)
		if id == 0 {
			c, err = contacts.Create(ctx, d)
		} else {
			c, err = contacts.Update(ctx, id, d)
		}
		return contactSavedMsg{contact: c, err: err}, err
	})
}

func (s *contactFormScreen) view(f frame) string {
	if !s.ready {
		if out, ok := stateView(f, s.existing.Snapshot(), "contact", "Contact not found"); ok {
			return out
		}
	}
	var b strings.Builder
	title := "New contact"
	if s.contactID != 0 {
		title = fmt.Sprintf("Edit contact #%d", s.contactID)
	}
	b.WriteString(f.styles.Text.Bold(true).Render(title))
	b.WriteString("\n\n")
	b.WriteString(s.form.view(f.styles, min(f.width, 100)))
	b.WriteString("\n")
	b.WriteString(f.styles.FaintText.Render("Skill levels: " + strings.Join(aidb.SkillLevels, ", ")))
	if s.saving {
		b.WriteString("\n")
		b.WriteString(f.spinner + " " + f.styles.MutedText.Render("Saving..."))
	}
	return b.String()
}

// parseInterests reads "Category: value; value". Entries without a
// category get the default one during normalization.
func parseInterests(raw string) []aidb.ContactInterest {
	var out []aidb.ContactInterest
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		in := aidb.ContactInterest{Value: part}
		if cat, val, ok := strings.Cut(part, ":"); ok {
			in.Category = strings.TrimSpace(cat)
			in.Value = strings.TrimSpace(val)
		}
		out = append(out, in)
	}
	return out
}

func formatInterests(list []aidb.ContactInterest) string {
	parts := make([]string, 0, len(list))
	for _, in := range list {
		if in.Category == "" || in.Category == aidb.DefaultInterestCategory {
			parts = append(parts, in.Value)
			continue
		}
		parts = append(parts, in.Category+": "+in.Value)
	}
	return strings.Join(parts, "; ")
}

// parseSkills reads "Name:Level:years; Name".
func parseSkills(raw string) ([]aidb.ContactSkill, error) {
	var out []aidb.ContactSkill
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ":")
		sk := aidb.ContactSkill{Name: strings.TrimSpace(fields[0])}
		if len(fields) > 1 {
			sk.Level = strings.TrimSpace(fields[1])
		}
		if len(fields) > 2 && strings.TrimSpace(fields[2]) != "" {
			years, err := strconv.Atoi(strings.TrimSpace(fields[2]))
			if err != nil {
				return out, fmt.Errorf("years for %q must be a number", sk.Name)
			}
			sk.YearsExperience = &years
		}
		if len(fields) > 3 {
			return out, fmt.Errorf("skill %q has too many parts", part)
		}
		out = append(out, sk)
	}
	return out, nil
}

func formatSkills(list []aidb.ContactSkill) string {
	parts := make([]string, 0, len(list))
	for _, sk := range list {
		p := sk.Name
		switch {
		case sk.YearsExperience != nil:
			p += ":" + sk.Level + ":" + strconv.Itoa(*sk.YearsExperience)
		case sk.Level != "":
			p += ":" + sk.Level
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, "; ")
}
