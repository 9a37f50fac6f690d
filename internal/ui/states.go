package ui

import (
	"strings"

	"github.com/padbhq/padb/internal/aidb"
	"github.com/padbhq/padb/internal/viewstate"
)

// stateView renders the non-success phases of a fetch. It returns false in
// Success so the caller renders the value.
//
// notFound is the message for a 404, e.g. "Contact not found"; list screens
// pass "" since a list cannot be missing.
func stateView[T any](f frame, snap viewstate.Snapshot[T], what, notFound string) (string, bool) {
	switch snap.Phase {
	case viewstate.Idle, viewstate.Loading:
		return f.spinner + " " + f.styles.MutedText.Render("Loading "+what+"..."), true
	case viewstate.Failure:
		if notFound != "" && aidb.IsNotFound(snap.Err) {
			return f.styles.WarningText.Bold(true).Render(notFound) + "\n\n" +
				f.styles.MutedText.Render("esc back to list"), true
		}
		var b strings.Builder
		b.WriteString(f.styles.DangerText.Render("Could not load " + what))
		b.WriteString("\n")
		b.WriteString(f.styles.Text.Render(errorText(snap.Err)))
		b.WriteString("\n\n")
		b.WriteString(f.styles.MutedText.Render("r to retry"))
		return b.String(), true
	default:
		return "", false
	}
}

// emptyView is shown for a successful but empty list.
func emptyView(f frame, text, hint string) string {
	out := f.styles.MutedText.Render(text)
	if hint != "" {
		out += "\n\n" + f.styles.FaintText.Render(hint)
	}
	return out
}

// listRow renders one row of a selectable list.
func listRow(f frame, text string, selected bool) string {
	if selected {
		return f.styles.Selected.Width(f.width - 4).Render(text)
	}
	return f.styles.Text.Render(text)
}
