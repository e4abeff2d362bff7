package tui

import (
	"strings"

	"github.com/brizzai/volunteer-auth/internal/auth/providers"
	"github.com/brizzai/volunteer-auth/internal/form"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LoginPageKeyMap holds key bindings for the login page
type LoginPageKeyMap struct {
	next   key.Binding
	prev   key.Binding
	submit key.Binding
	quit   key.Binding
}

func newLoginPageKeyMap() *LoginPageKeyMap {
	return &LoginPageKeyMap{
		next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next"),
		),
		prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous"),
		),
		submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Sign in"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "Quit"),
		),
	}
}

// popupButtons are the federated providers offered on the login page, in
// display order
var popupButtons = []providers.Provider{providers.Google, providers.Facebook, providers.Twitter}

var buttonLabels = map[providers.Provider]string{
	providers.Google:   "Google",
	providers.Facebook: "Facebook",
	providers.Twitter:  "Twitter",
}

// SignInMsg asks the app to start a sign-in
type SignInMsg struct {
	Method providers.Method
}

// LoginPageModel is the login form: one button per federated provider and an
// email/password form. Focus moves over buttons first, then inputs.
type LoginPageModel struct {
	keys   *LoginPageKeyMap
	values map[string]string
	fields []form.Field
	inputs []textinput.Model
	focus  int
}

func NewLoginPageModel() LoginPageModel {
	values := map[string]string{}
	onChange := func(name, value string) {
		values[name] = value
	}

	fields := []form.Field{
		form.NewField("Email", values, onChange,
			form.WithPrefix("@ "),
			form.WithPlaceholder("Email"),
		),
		form.NewField("Password", values, onChange,
			form.WithPrefix("* "),
			form.WithPlaceholder("Password"),
			form.WithSecret(),
		),
	}

	inputs := make([]textinput.Model, len(fields))
	for i, f := range fields {
		inputs[i] = f.Input()
	}

	return LoginPageModel{
		keys:   newLoginPageKeyMap(),
		values: values,
		fields: fields,
		inputs: inputs,
	}
}

func (m LoginPageModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m LoginPageModel) focusCount() int {
	return len(popupButtons) + len(m.inputs)
}

// setFocus moves focus to i, wrapping around
func (m LoginPageModel) setFocus(i int) LoginPageModel {
	n := m.focusCount()
	m.focus = ((i % n) + n) % n
	for j := range m.inputs {
		if j+len(popupButtons) == m.focus {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return m
}

func (m LoginPageModel) submit() tea.Cmd {
	var method providers.Method
	if m.focus < len(popupButtons) {
		method = providers.WithPopup(popupButtons[m.focus])
	} else {
		method = providers.WithPassword(m.values[m.fields[0].Name], m.values[m.fields[1].Name])
	}
	return func() tea.Msg {
		return SignInMsg{Method: method}
	}
}

func (m LoginPageModel) Update(msg tea.Msg) (LoginPageModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.next):
			return m.setFocus(m.focus + 1), nil
		case key.Matches(msg, m.keys.prev):
			return m.setFocus(m.focus - 1), nil
		case key.Matches(msg, m.keys.submit):
			return m, m.submit()
		}
	}

	i := m.focus - len(popupButtons)
	if i < 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[i], cmd = m.fields[i].Update(m.inputs[i], msg)
	return m, cmd
}

func (m LoginPageModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Login with"))
	b.WriteString("\n\n")

	buttons := make([]string, 0, len(popupButtons))
	for i, p := range popupButtons {
		style := buttonStyle
		if i == m.focus {
			style = activeButtonStyle
		}
		buttons = append(buttons, style.Render(buttonLabels[p]))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, buttons...))
	b.WriteString("\n\n")

	for i, f := range m.fields {
		b.WriteString(f.View(m.inputs[i]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle("tab: next • enter: sign in • esc: quit"))
	return b.String()
}
