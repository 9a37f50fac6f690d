package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/padbhq/padb/internal/aidb"
	"github.com/padbhq/padb/internal/prefs"
	"github.com/padbhq/padb/internal/session"
)

// env is shared by every screen. Screens read it; only the root model
// replaces its fields.
type env struct {
	ctx       context.Context
	client    *aidb.Client
	gate      *session.Gate
	prefs     prefs.Prefs
	prefsPath string
	logFile   string
	keys      keyMap
}

// frame carries what a screen needs to render one View call.
type frame struct {
	width   int
	height  int
	theme   Theme
	styles  Styles
	spinner string
}

// screen is one terminal view. Screens are values owned by the root model;
// each instance gets a unique id and async results carry it back.
type screen interface {
	route() Route
	init() tea.Cmd
	update(msg tea.Msg) (screen, tea.Cmd)
	view(f frame) string
	// hints are shown in the command bar.
	hints() []keyHint
	// capturing is true while a text input has focus; single-letter global
	// keys then go to the screen instead.
	capturing() bool
	// scopeID is the instance id async results are tagged with.
	scopeID() int
}

type keyHint struct{ key, desc string }

// base holds the fields every screen embeds.
type base struct {
	id  int
	env *env
}

func (b base) scopeID() int { return b.id }

// scopedMsg is an async result tagged with the screen instance that asked
// for it. The root drops it when that instance is no longer current.
type scopedMsg struct {
	screen int
	err    error
	msg    tea.Msg
}

// navigateMsg asks the root to open a route.
type navigateMsg struct {
	route Route
	id    int64
	flash string
}

// flashMsg shows a transient status line.
type flashMsg struct {
	text  string
	isErr bool
}

func navigate(route Route, id int64) tea.Cmd {
	return func() tea.Msg { return navigateMsg{route: route, id: id} }
}

func navigateWithFlash(route Route, id int64, flash string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{route: route, id: id, flash: flash} }
}

func flash(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return flashMsg{text: text, isErr: isErr} }
}

// call runs fn off the UI goroutine and tags the result with the screen id.
// err is copied out so the root can end the session on a 401.
func (b base) call(fn func(ctx context.Context) (tea.Msg, error)) tea.Cmd {
	id := b.id
	ctx := b.env.ctx
	return func() tea.Msg {
		msg, err := fn(ctx)
		return scopedMsg{screen: id, err: err, msg: msg}
	}
}

// tick schedules a scoped tick for screens that refresh themselves.
func (b base) tick(d time.Duration) tea.Cmd {
	id := b.id
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return scopedMsg{screen: id, msg: tickMsg(t)}
	})
}

type tickMsg time.Time
