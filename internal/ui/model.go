package ui

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/regsync/internal/portal"
	"github.com/five82/regsync/internal/state"
)

// Authenticator logs a teacher in; *portal.Manager satisfies it.
type Authenticator interface {
	Login(ctx context.Context, creds portal.Credentials) (portal.Session, error)
}

// ClassLister fetches the class list; *portal.Submitter satisfies it.
type ClassLister interface {
	ListClasses(ctx context.Context, sess portal.Session) (json.RawMessage, error)
}

// ThemeSaver persists the chosen theme; *prefs.FileStore satisfies it.
type ThemeSaver interface {
	SaveTheme(name string) error
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Auth      Authenticator
	Classes   ClassLister
	Store     *state.Store
	Prefs     ThemeSaver
	ThemeName string
	BaseURL   string
	Username  string // prefilled into the form
}

// Result is what the UI leaves behind when it exits.
type Result struct {
	Session       portal.Session
	Authenticated bool
}

type phase int

const (
	phaseLogin phase = iota
	phaseWorking
	phaseSession
)

const (
	fieldUsername = iota
	fieldPassword
)

type loginDoneMsg struct{ err error }

type classesDoneMsg struct{ err error }

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx     context.Context
	auth    Authenticator
	lister  ClassLister
	store   *state.Store
	prefs   ThemeSaver
	baseURL string
	keys    keyMap

	theme  Theme
	width  int
	height int

	phase   phase
	working string
	inputs  [2]textinput.Model
	focus   int
	spinner spinner.Model

	// snapshot is the only view of session, class list and last outcome.
	snapshot state.Snapshot
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}
	theme := GetTheme(opts.ThemeName)

	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.SetValue(opts.Username)

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	focus := fieldUsername
	if strings.TrimSpace(opts.Username) != "" {
		focus = fieldPassword
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Accent))

	m := Model{
		ctx:     ctx,
		auth:    opts.Auth,
		lister:  opts.Classes,
		store:   store,
		prefs:   opts.Prefs,
		baseURL: opts.BaseURL,
		keys:    DefaultKeyMap(),
		theme:   theme,
		inputs:  [2]textinput.Model{username, password},
		spinner: sp,
	}
	m.setFocus(focus)
	m.snapshot = store.Snapshot()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		m.snapshot = m.store.Snapshot()
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loginDoneMsg:
		m.snapshot = m.store.Snapshot()
		if msg.err != nil {
			m.phase = phaseLogin
			m.inputs[fieldPassword].SetValue("")
			cmd := m.setFocus(fieldPassword)
			return m, cmd
		}
		m.phase = phaseSession
		return m, nil

	case classesDoneMsg:
		m.snapshot = m.store.Snapshot()
		m.phase = phaseSession
		return m, nil
	}

	if m.phase == phaseLogin {
		return m.updateInputs(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil
	}

	switch m.phase {
	case phaseLogin:
		return m.handleLoginKey(msg)
	case phaseSession:
		return m.handleSessionKey(msg)
	default:
		return m, nil
	}
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextField):
		cmd := m.setFocus((m.focus + 1) % len(m.inputs))
		return m, cmd
	case key.Matches(msg, m.keys.PrevField):
		cmd := m.setFocus((m.focus + len(m.inputs) - 1) % len(m.inputs))
		return m, cmd
	case key.Matches(msg, m.keys.Submit):
		if m.focus == fieldUsername && m.inputs[fieldPassword].Value() == "" {
			cmd := m.setFocus(fieldPassword)
			return m, cmd
		}
		return m.startLogin()
	}
	return m.updateInputs(msg)
}

func (m Model) handleSessionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Classes):
		if m.lister == nil {
			return m, nil
		}
		m.phase = phaseWorking
		m.working = "Loading classes"
		return m, listClassesCmd(m.ctx, m.lister, m.store, m.snapshot.Session)
	case key.Matches(msg, m.keys.Logout):
		m.store.Clear()
		m.snapshot = m.store.Snapshot()
		m.phase = phaseLogin
		m.inputs[fieldPassword].SetValue("")
		cmd := m.setFocus(fieldPassword)
		return m, cmd
	}
	return m, nil
}

func (m Model) startLogin() (tea.Model, tea.Cmd) {
	if m.auth == nil {
		return m, nil
	}
	creds := portal.Credentials{
		Username: strings.TrimSpace(m.inputs[fieldUsername].Value()),
		Password: m.inputs[fieldPassword].Value(),
	}
	m.phase = phaseWorking
	m.working = "Signing in"
	m.inputs[fieldUsername].Blur()
	m.inputs[fieldPassword].Blur()
	return m, loginCmd(m.ctx, m.auth, m.store, creds)
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(idx int) tea.Cmd {
	m.focus = idx
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == idx {
			cmd = m.inputs[i].Focus()
			continue
		}
		m.inputs[i].Blur()
	}
	return cmd
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent))
	if m.prefs != nil {
		_ = m.prefs.SaveTheme(m.theme.Name)
	}
}

// result reports the session the user ended with, if any.
func (m Model) result() Result {
	return Result{Session: m.snapshot.Session, Authenticated: m.snapshot.HasSession}
}

func loginCmd(ctx context.Context, auth Authenticator, store *state.Store, creds portal.Credentials) tea.Cmd {
	return func() tea.Msg {
		sess, err := auth.Login(ctx, creds)
		if err != nil {
			store.RecordResult(nil, err)
			return loginDoneMsg{err: err}
		}
		store.SetSession(sess)
		return loginDoneMsg{}
	}
}

func listClassesCmd(ctx context.Context, lister ClassLister, store *state.Store, sess portal.Session) tea.Cmd {
	return func() tea.Msg {
		classes, err := lister.ListClasses(ctx, sess)
		if err != nil {
			store.RecordResult(nil, err)
			return classesDoneMsg{err: err}
		}
		store.SetClasses(classes)
		store.RecordResult(nil, nil)
		return classesDoneMsg{}
	}
}
