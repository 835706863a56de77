// Package dashboard is the terminal front end of the fleet client. Each list
// screen owns one listing.Controller; controller changes and session
// termination reach the bubbletea loop as messages.
package dashboard

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/Paaskehare/SevenShift/client"
	"github.com/Paaskehare/SevenShift/client/session"
	"github.com/Paaskehare/SevenShift/listing"
)

const loginTimeout = 30 * time.Second

type mode int

const (
	modeLogin mode = iota
	modeList
	modeSearch
	modeDetail
)

// stateMsg is posted whenever a controller's state changes.
type stateMsg struct{}

// sessionEndedMsg is the navigation action for a terminated session.
type sessionEndedMsg struct {
	reason string
}

type loginResultMsg struct {
	err error
}

type userMsg struct {
	user *client.User
}

// notifier forwards controller changes to the running program. It is shared
// by every copy of the Model.
type notifier struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (n *notifier) attach(send func(tea.Msg)) {
	n.mu.Lock()
	n.send = send
	n.mu.Unlock()
}

// post never blocks: controllers call it from inside Update.
func (n *notifier) post(msg tea.Msg) {
	n.mu.Lock()
	send := n.send
	n.mu.Unlock()
	if send != nil {
		go send(msg)
	}
}

// Option configures a Model.
type Option func(*Model)

// WithTheme replaces DefaultTheme.
func WithTheme(theme Theme) Option {
	return func(m *Model) { m.theme = theme }
}

// WithKeyMap replaces DefaultKeyMap.
func WithKeyMap(keys KeyMap) Option {
	return func(m *Model) { m.keys = keys }
}

// WithPageSize sets the page size of every list screen.
func WithPageSize(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.pageSize = n
		}
	}
}

// Model is the top-level bubbletea model.
type Model struct {
	client   *client.Client
	theme    Theme
	keys     KeyMap
	pageSize int
	notify   *notifier

	screens map[screenID]screen
	active  screenID
	// trail holds the catalog tiers above the active one.
	trail []screenID

	mode        mode
	login       loginForm
	search      textinput.Model
	detail      viewport.Model
	detailTitle string

	user   *client.User
	notice string
	width  int
	height int
}

// New builds the dashboard for c. The session must be attached to c.
func New(c *client.Client, opts ...Option) Model {
	m := Model{
		client:   c,
		theme:    DefaultTheme,
		keys:     DefaultKeyMap,
		pageSize: listing.DefaultPageSize,
		notify:   &notifier{},
		login:    newLoginForm(),
		width:    100,
		height:   30,
	}
	for _, opt := range opts {
		opt(&m)
	}
	notify := m.notify
	m.screens = newScreens(c, m.pageSize, func() { notify.post(stateMsg{}) })

	m.search = textinput.New()
	m.search.Prompt = "/"
	m.search.Placeholder = "search"

	m.mode = modeLogin
	if c.Session().Authenticated() {
		m.mode = modeList
	}
	return m
}

// Init starts the initial fetches when a session was restored.
func (m Model) Init() tea.Cmd {
	if m.mode == modeLogin {
		return textinput.Blink
	}
	m.refreshTabs()
	return m.fetchUser()
}

// Close stops every controller.
func (m Model) Close() {
	for _, s := range m.screens {
		s.controller().Close()
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.detail.Width, m.detail.Height = msg.Width, max(1, msg.Height-4)
		return m, nil

	case stateMsg:
		return m, nil

	case sessionEndedMsg:
		return m.toLogin(msg.reason), textinput.Blink

	case loginResultMsg:
		m.login.busy = false
		if msg.err != nil {
			m.login.err = client.Message(msg.err)
			return m, nil
		}
		m.login.err, m.notice = "", ""
		m.login.reset()
		m.mode, m.active, m.trail = modeList, screenVehicles, nil
		m.refreshTabs()
		return m, m.fetchUser()

	case userMsg:
		m.user = msg.user
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeLogin:
			return m.updateLogin(msg)
		case modeSearch:
			return m.updateSearch(msg)
		case modeDetail:
			return m.updateDetail(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab", "shift+tab", "up", "down":
		m.login.setFocus(1 - m.login.focus)
		return m, nil
	case "enter":
		if m.login.focus == 0 {
			m.login.setFocus(1)
			return m, nil
		}
		username, password := m.login.credentials()
		if username == "" || password == "" {
			m.login.err = "Username and password are required."
			return m, nil
		}
		m.login.busy, m.login.err = true, ""
		return m, m.signIn(username, password)
	}
	return m, m.login.update(msg)
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.current().controller().SetFilter("search", strings.TrimSpace(m.search.Value()))
		m.search.Blur()
		m.mode = modeList
		return m, nil
	case "esc":
		m.search.Blur()
		m.mode = modeList
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = modeList
		return m, nil
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Logout):
		return m, m.signOut()
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.current()
	ctl := s.controller()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		s.move(-1)
	case key.Matches(msg, m.keys.Down):
		s.move(1)
	case key.Matches(msg, m.keys.NextTab):
		m.switchTab(1)
	case key.Matches(msg, m.keys.PrevTab):
		m.switchTab(-1)
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.search.SetValue("")
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.CycleStatus):
		s.cycleStatus()
	case key.Matches(msg, m.keys.NextPage):
		ctl.NextPage()
	case key.Matches(msg, m.keys.PrevPage):
		ctl.PrevPage()
	case key.Matches(msg, m.keys.Refresh):
		ctl.Refresh()
	case key.Matches(msg, m.keys.Open):
		m.open(s)
	case key.Matches(msg, m.keys.Back):
		if n := len(m.trail); n > 0 {
			m.active, m.trail = m.trail[n-1], m.trail[:n-1]
		}
	case key.Matches(msg, m.keys.Logout):
		return m, m.signOut()
	}
	return m, nil
}

// open drills into the next catalog tier or shows the selected record.
func (m *Model) open(s screen) {
	record, id, ok := s.selected()
	if !ok {
		return
	}
	if d := s.drill(); d != nil {
		m.trail = append(m.trail, m.active)
		m.active = d.to
		m.current().controller().SetFilter(d.filter, strconv.FormatInt(id, 10))
		return
	}
	m.detailTitle = s.title() + " #" + strconv.FormatInt(id, 10)
	m.detail = newDetail(m.theme, record, m.width, m.height-4)
	m.mode = modeDetail
}

func (m *Model) switchTab(delta int) {
	current := tabOf(m.active)
	i := 0
	for j, t := range tabs {
		if t == current {
			i = j
		}
	}
	i = (i + delta + len(tabs)) % len(tabs)
	m.active, m.trail = tabs[i], nil
}

func (m Model) current() screen { return m.screens[m.active] }

func (m Model) refreshTabs() {
	for _, id := range tabs {
		m.screens[id].controller().Refresh()
	}
}

func (m Model) toLogin(reason string) Model {
	m.mode, m.user, m.trail = modeLogin, nil, nil
	m.login.reset()
	switch reason {
	case session.ReasonLogout:
		m.notice = "Signed out."
	default:
		m.notice = "Your session has ended. Please sign in again."
	}
	return m
}

func (m Model) signIn(username, password string) tea.Cmd {
	sess := m.client.Session()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
		defer cancel()
		return loginResultMsg{err: sess.Login(ctx, username, password)}
	}
}

func (m Model) signOut() tea.Cmd {
	sess := m.client.Session()
	return func() tea.Msg {
		if err := sess.Logout(context.Background()); err != nil {
			log.Warn().Err(err).Msg("logout")
		}
		return sessionEndedMsg{reason: session.ReasonLogout}
	}
}

func (m Model) fetchUser() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
		defer cancel()
		u, err := c.Me(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("fetch current user")
			return nil
		}
		return userMsg{user: u}
	}
}

func (m Model) View() string {
	if m.mode == modeLogin {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.login.view(m.theme, m.notice))
	}

	var b strings.Builder
	b.WriteString(m.tabBar())
	b.WriteString("\n")

	switch m.mode {
	case modeDetail:
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(m.theme.HeaderForeground).Render(m.detailTitle))
		b.WriteString("\n")
		b.WriteString(m.detail.View())
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(m.theme.HelpText).Render("Esc back  ↑/↓ scroll  L logout  q quit"))
		return b.String()
	case modeSearch:
		b.WriteString(m.search.View())
	default:
		b.WriteString(m.breadcrumb())
	}
	b.WriteString("\n")
	b.WriteString(m.current().view(m.theme, m.width, m.height-4))
	b.WriteString("\n")
	b.WriteString(m.help())
	return b.String()
}

func (m Model) tabBar() string {
	active := lipgloss.NewStyle().Bold(true).Foreground(m.theme.TabActive).Underline(true)
	inactive := lipgloss.NewStyle().Foreground(m.theme.TabInactive)
	parts := make([]string, 0, len(tabs)+1)
	for _, id := range tabs {
		style := inactive
		if id == tabOf(m.active) {
			style = active
		}
		parts = append(parts, style.Render(m.screens[id].title()))
	}
	bar := strings.Join(parts, "  ")
	if m.user != nil {
		bar += lipgloss.NewStyle().Foreground(m.theme.FaintText).Render("   " + m.user.Username + " (" + m.user.Role + ")")
	}
	return bar
}

func (m Model) breadcrumb() string {
	names := make([]string, 0, len(m.trail)+1)
	for _, id := range m.trail {
		names = append(names, m.screens[id].title())
	}
	names = append(names, m.current().title())
	return lipgloss.NewStyle().Foreground(m.theme.HeaderForeground).Render(strings.Join(names, " > "))
}

func (m Model) help() string {
	bindings := m.keys.listHelp()
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return lipgloss.NewStyle().Foreground(m.theme.HelpText).Render(strings.Join(parts, "  "))
}

// Run starts the dashboard and blocks until the user quits or ctx ends.
func Run(ctx context.Context, c *client.Client, opts ...Option) error {
	m := New(c, opts...)
	defer m.Close()

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.notify.attach(program.Send)

	events, unsubscribe := c.Session().Subscribe()
	defer unsubscribe()
	go func() {
		for evt := range events {
			program.Send(sessionEndedMsg{reason: evt.Reason})
		}
	}()

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
