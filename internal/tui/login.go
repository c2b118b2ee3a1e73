package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type loginState struct {
	user  textinput.Model
	pass  textinput.Model
	focus int
}

func newLoginState() loginState {
	user := textinput.New()
	user.Prompt = "Usuario:    "
	user.Placeholder = "código"
	user.CharLimit = 12
	user.Focus()

	pass := textinput.New()
	pass.Prompt = "Contraseña: "
	pass.EchoMode = textinput.EchoPassword
	pass.CharLimit = 128

	return loginState{user: user, pass: pass}
}

func (s *loginState) setFocus(i int) tea.Cmd {
	s.focus = i % 2
	if s.focus == 0 {
		s.pass.Blur()
		return s.user.Focus()
	}
	s.user.Blur()
	return s.pass.Focus()
}

func (m appModel) updateLogin(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		return m, m.login.setFocus(m.login.focus + 1)
	case "enter":
		if m.login.focus == 0 && strings.TrimSpace(m.login.pass.Value()) == "" {
			return m, m.login.setFocus(1)
		}
		return m.startBusy(m.loginCmd(m.login.user.Value(), m.login.pass.Value()))
	}

	var cmd tea.Cmd
	if m.login.focus == 0 {
		m.login.user, cmd = m.login.user.Update(msg)
	} else {
		m.login.pass, cmd = m.login.pass.Update(msg)
	}
	return m, cmd
}

func (m appModel) viewLogin(width int) string {
	box := lipgloss.NewStyle().
		Padding(1, 3).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Render(strings.Join([]string{
			styleTitle().Render("Pautas de mantenimiento"),
			styleMuted().Render("Ingrese con su código de usuario."),
			"",
			m.login.user.View(),
			m.login.pass.View(),
		}, "\n"))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, "\n"+box)
}
