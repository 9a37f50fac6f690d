// Package ui provides the padb terminal console, a Bubble Tea application for
// administering a Personal AI Database backend.
//
// # Architecture Overview
//
// Model is the root tea.Model. It owns the session gate, the theme, the
// flash line and exactly one screen. Every route (login, dashboard, contacts,
// events, audio, search, settings, logs) is a screen value built by
// newScreen; opening a route replaces the current screen with a fresh
// instance.
//
// # Session Routing
//
// Routes go through session.Policy before a screen is built. While a stored
// token is being verified the root shows a spinner and remembers the
// requested route; unauthenticated users land on the login screen and
// authenticated users never see it.
//
// # Async Results
//
// Screens run API calls with base.call. The result comes back as a scopedMsg
// tagged with the screen instance id, and the root drops it if that screen
// has since been replaced. A 401 on a scoped result while signed in ends the
// session and returns to the login screen with a notice.
//
// Per-screen load state lives in viewstate.Fetch; per-row actions (deletes,
// participant edits, audio processing) live in viewstate.Actions so a second
// trigger for a row already in flight is ignored.
//
// # Key Bindings
//
//   - 1-7: Dashboard, Contacts, Events, Audio, Search, Settings, Logs
//   - j/k, g/G: Move selection
//   - enter: Open the selected row
//   - n, e, d: New, edit, delete (confirm with y)
//   - /: Search or filter
//   - r: Reload
//   - T: Cycle theme
//   - L: Sign out
//   - ?: Help
//   - Q or Ctrl+C: Quit
//
// Single-letter global keys are disabled while a text input has focus.
package ui
