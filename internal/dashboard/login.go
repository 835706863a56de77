package dashboard

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// loginForm is the username/password form shown while no session exists.
type loginForm struct {
	username textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	err      string
}

func newLoginForm() loginForm {
	u := textinput.New()
	u.Placeholder = "username"
	u.Prompt = "Username: "
	u.CharLimit = 150
	u.Focus()

	p := textinput.New()
	p.Placeholder = "password"
	p.Prompt = "Password: "
	p.EchoMode = textinput.EchoPassword
	p.EchoCharacter = '•'

	return loginForm{username: u, password: p}
}

// reset clears the password and focuses the username field.
func (f *loginForm) reset() {
	f.password.SetValue("")
	f.busy = false
	f.setFocus(0)
}

func (f *loginForm) setFocus(i int) {
	f.focus = i
	if i == 0 {
		f.username.Focus()
		f.password.Blur()
		return
	}
	f.username.Blur()
	f.password.Focus()
}

func (f *loginForm) credentials() (string, string) {
	return strings.TrimSpace(f.username.Value()), f.password.Value()
}

func (f *loginForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focus == 0 {
		f.username, cmd = f.username.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return cmd
}

func (f *loginForm) view(theme Theme, notice string) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.TabActive).Render("SevenShift fleet")
	lines := []string{title, ""}
	if notice != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.NoticeText).Render(notice), "")
	}
	lines = append(lines, f.username.View(), f.password.View(), "")
	switch {
	case f.busy:
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.FaintText).Render("Signing in..."))
	case f.err != "":
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.ErrorText).Render(f.err))
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(theme.HelpText).Render("Tab switch field  Enter sign in  Ctrl+C quit"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.BorderColor).
		Padding(1, 3).
		Render(strings.Join(lines, "\n"))
}
