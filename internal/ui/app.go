package ui

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/padbhq/padb/internal/aidb"
	"github.com/padbhq/padb/internal/prefs"
	"github.com/padbhq/padb/internal/session"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    *aidb.Client
	Gate      *session.Gate
	Prefs     prefs.Prefs
	PrefsPath string
	LogFile   string
}

// Model is the root application state for Bubble Tea. It owns the session
// routing and hands everything else to the current screen.
type Model struct {
	env *env

	// UI state
	theme    Theme
	width    int
	height   int
	ready    bool
	spinner  spinner.Model
	showHelp bool

	// Routing
	screen    screen
	nextID    int
	verifying bool
	verifyTok string
	pending   navigateMsg // route requested before the session resolved
	startCmd  tea.Cmd

	// Flash line
	flash    string
	flashErr bool
	flashSeq int
}

// sessionMsg carries the outcome of verifying a stored token.
type sessionMsg struct{ snapshot session.Snapshot }

type clearFlashMsg struct{ seq int }

type themeSavedMsg struct{ err error }

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	p := opts.Prefs
	if p == (prefs.Prefs{}) {
		p = prefs.Default()
	}
	p = p.Normalize()

	gate := opts.Gate
	if gate == nil {
		gate = session.NewGate(nil, nil)
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	m := Model{
		env: &env{
			ctx:       ctx,
			client:    opts.Client,
			gate:      gate,
			prefs:     p,
			prefsPath: prefsPath,
			logFile:   opts.LogFile,
			keys:      DefaultKeyMap(),
		},
		theme:   GetTheme(p.Theme),
		spinner: sp,
		pending: navigateMsg{route: RouteDashboard},
	}

	token, verify := gate.Begin()
	if verify {
		m.verifying = true
		m.verifyTok = token
	} else {
		m.startCmd = m.open(RouteDashboard, 0)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.verifying {
		gate, ctx, token := m.env.gate, m.env.ctx, m.verifyTok
		cmds = append(cmds, func() tea.Msg {
			return sessionMsg{snapshot: gate.Verify(ctx, token)}
		})
	} else {
		cmds = append(cmds, m.startCmd)
	}
	return tea.Batch(cmds...)
}

// open routes to a screen through the session policy and returns the new
// screen's init command.
func (m *Model) open(route Route, id int64) tea.Cmd {
	decision := routePolicy.Decide(m.env.gate.Status(), string(route))
	if decision.Loading {
		m.pending = navigateMsg{route: route, id: id}
		m.screen = nil
		return nil
	}
	target := Route(decision.Target(string(route)))
	if target != route {
		id = 0
	}
	m.nextID++
	m.screen = newScreen(base{id: m.nextID, env: m.env}, target, id)
	m.showHelp = false
	log.Debug().Str("component", "ui").Str("route", string(target)).Int64("id", id).Msg("open screen")
	return m.screen.init()
}

func (m *Model) setFlash(text string, isErr bool) tea.Cmd {
	m.flash = text
	m.flashErr = isErr
	m.flashSeq++
	seq := m.flashSeq
	return tea.Tick(FlashDuration, func(time.Time) tea.Msg { return clearFlashMsg{seq: seq} })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionMsg:
		m.verifying = false
		m.verifyTok = ""
		var flashCmd tea.Cmd
		if msg.snapshot.Status != session.Authenticated && msg.snapshot.Notice != "" {
			flashCmd = m.setFlash(msg.snapshot.Notice, true)
		}
		return m, tea.Batch(m.open(m.pending.route, m.pending.id), flashCmd)

	case scopedMsg:
		if m.screen == nil {
			return m, nil
		}
		if msg.screen != m.screen.scopeID() {
			log.Debug().Str("component", "ui").Int("screen", msg.screen).Msg("drop stale result")
			return m, nil
		}
		if aidb.IsUnauthorized(msg.err) && m.env.gate.Status() == session.Authenticated {
			return m, m.expire()
		}
		var cmd tea.Cmd
		m.screen, cmd = m.screen.update(msg.msg)
		return m, cmd

	case navigateMsg:
		cmd := m.open(msg.route, msg.id)
		if msg.flash != "" {
			cmd = tea.Batch(cmd, m.setFlash(msg.flash, false))
		}
		return m, cmd

	case flashMsg:
		return m, m.setFlash(msg.text, msg.isErr)

	case clearFlashMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
		}
		return m, nil

	case prefsChangedMsg:
		m.env.prefs = msg.prefs
		m.theme = GetTheme(msg.prefs.Theme)
		return m, nil

	case themeSavedMsg:
		if msg.err != nil {
			return m, m.setFlash("Theme not saved: "+msg.err.Error(), true)
		}
		return m, nil
	}

	// Anything else (cursor blink and friends) goes to the current screen.
	if m.screen != nil {
		var cmd tea.Cmd
		m.screen, cmd = m.screen.update(msg)
		return m, cmd
	}
	return m, nil
}

// expire ends the session after the API rejected the token.
func (m *Model) expire() tea.Cmd {
	if err := m.env.gate.Expire("Session expired"); err != nil {
		log.Warn().Str("component", "ui").Err(err).Msg("clear credentials failed")
	}
	log.Info().Str("component", "ui").Msg("session expired")
	return tea.Batch(m.open(RouteLogin, 0), m.setFlash("Session expired, sign in again", true))
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := m.env.keys

	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Any key closes help
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.screen == nil {
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	if !m.screen.capturing() {
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Help):
			m.showHelp = true
			return m, nil

		case key.Matches(msg, keys.CycleTheme):
			m.theme = GetTheme(NextTheme(m.theme.Name))
			m.env.prefs.Theme = m.theme.Name
			path, p := m.env.prefsPath, m.env.prefs
			return m, func() tea.Msg { return themeSavedMsg{err: prefs.Save(path, p)} }

		case key.Matches(msg, keys.Logout):
			if m.env.gate.Status() != session.Authenticated {
				return m, nil
			}
			if err := m.env.gate.Logout(); err != nil {
				log.Warn().Str("component", "ui").Err(err).Msg("clear credentials failed")
			}
			return m, tea.Batch(m.open(RouteLogin, 0), m.setFlash("Signed out", false))

		case key.Matches(msg, keys.Navigate):
			n, err := strconv.Atoi(msg.String())
			if err == nil && n >= 1 && n <= len(navRoutes) {
				return m, m.open(navRoutes[n-1], 0)
			}
		}
	}

	var cmd tea.Cmd
	m.screen, cmd = m.screen.update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	// Show help overlay if active
	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// renderMain renders the header, the current screen and the command bar.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	bodyHeight := max(m.height-chromeHeight, 1)
	body := fitLines(m.renderContent(bodyHeight), bodyHeight)
	b.WriteString(lipgloss.NewStyle().Height(bodyHeight).Render(body))
	b.WriteString("\n")

	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	return b.String()
}

// renderContent renders the current screen, or the verification spinner.
func (m Model) renderContent(height int) string {
	styles := m.theme.Styles()
	if m.screen == nil {
		return "\n  " + m.spinner.View() + " " + styles.MutedText.Render("Checking saved session...")
	}
	f := frame{
		width:   m.width,
		height:  height,
		theme:   m.theme,
		styles:  styles,
		spinner: m.spinner.View(),
	}
	return lipgloss.NewStyle().PaddingLeft(1).Render(m.screen.view(f))
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	teaOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		teaOpts = append(teaOpts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, teaOpts...)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && opts.Context != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}
