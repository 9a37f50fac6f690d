package ui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/padbhq/padb/internal/session"
)

// renderHeader renders the top bar: logo, navigation and session.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth
	sep := bg.Spaces(2)

	left := []string{bg.Render("padb", styles.Logo)}
	snap := m.env.gate.Snapshot()

	switch {
	case m.screen == nil:
		left = append(left, bg.Render("Checking session...", styles.WarningText.Bold(true)))
	case snap.Status != session.Authenticated:
		left = append(left, bg.Render(m.screen.route().Title(), styles.Text.Bold(true)))
	default:
		left = append(left, m.renderNav(styles, bg, compact))
	}

	var right []string
	if snap.Status == session.Authenticated {
		if !compact {
			right = append(right, bg.Render(truncateMiddle(snap.Email, 32), styles.MutedText))
		}
		if exp := formatExpiry(snap.ExpiresAt, time.Now()); exp != "" {
			right = append(right, bg.Render(exp, expiryStyle(snap.ExpiresAt, styles)))
		}
		right = append(right, bg.Render("L", styles.AccentText)+bg.Sep(":")+bg.Render("Logout", styles.MutedText))
	}

	leftText := strings.Join(left, sep)
	rightText := strings.Join(right, sep)
	gap := m.width - 2 - lipgloss.Width(leftText) - lipgloss.Width(rightText)
	if gap < 1 {
		gap = 1
	}
	return styles.Header.Width(m.width).Render(leftText + bg.Spaces(gap) + rightText)
}

// renderNav shows the numbered routes with the current one highlighted.
func (m Model) renderNav(styles Styles, bg BgStyle, compact bool) string {
	current := m.screen.route()
	parts := make([]string, 0, len(navRoutes))
	for i, r := range navRoutes {
		label := r.Title()
		if compact {
			label = label[:min(len(label), 4)]
		}
		num := strconv.Itoa(i + 1)
		if navSection(current) == r {
			parts = append(parts, bg.Render(num, styles.AccentText)+bg.Render(label, styles.Text.Bold(true).Underline(true)))
			continue
		}
		parts = append(parts, bg.Render(num, styles.FaintText)+bg.Render(label, styles.MutedText))
	}
	return strings.Join(parts, bg.Space())
}

// navSection maps detail and form routes onto their list route.
func navSection(r Route) Route {
	switch r {
	case RouteContact, RouteContactForm:
		return RouteContacts
	case RouteEvent, RouteEventForm:
		return RouteEvents
	default:
		return r
	}
}

// formatExpiry describes when the session token runs out.
func formatExpiry(expiresAt, now time.Time) string {
	if expiresAt.IsZero() {
		return ""
	}
	left := expiresAt.Sub(now)
	if left <= 0 {
		return "session expired"
	}
	return "expires in " + humanizeDuration(left)
}

func expiryStyle(expiresAt time.Time, styles Styles) lipgloss.Style {
	if !expiresAt.IsZero() && time.Until(expiresAt) < 5*time.Minute {
		return styles.WarningText
	}
	return styles.FaintText
}

// renderStatusLine shows the flash message, if any.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles()
	if m.flash == "" {
		return ""
	}
	style := styles.SuccessText
	if m.flashErr {
		style = styles.DangerText
	}
	return " " + style.Render(truncate(m.flash, max(m.width-2, 10)))
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	// Command bar uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	var commands []keyHint
	if m.screen != nil {
		commands = m.screen.hints()
		if !m.screen.capturing() {
			commands = append(commands, keyHint{"?", "More"})
		}
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	// Add theme indicator
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}
