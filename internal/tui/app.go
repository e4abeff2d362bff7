package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/brizzai/volunteer-auth/internal/auth/models"
	"github.com/brizzai/volunteer-auth/internal/auth/platform"
	"github.com/brizzai/volunteer-auth/internal/auth/providers"
	"github.com/brizzai/volunteer-auth/internal/state"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Workflow is the part of the workflow controller the UI drives
type Workflow interface {
	SignIn(ctx context.Context, method providers.Method, sink models.Sink)
	SignOut(ctx context.Context, sink models.Sink)
	Register(ctx context.Context, profile models.Profile, sink models.Sink)
}

// NotificationMsg carries a state change from the store into the UI
type NotificationMsg state.Change

type consentURLMsg string

// AccountPageKeyMap holds key bindings for the signed-in page
type AccountPageKeyMap struct {
	signOut  key.Binding
	register key.Binding
	quit     key.Binding
}

func newAccountPageKeyMap() *AccountPageKeyMap {
	return &AccountPageKeyMap{
		signOut: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Sign out"),
		),
		register: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Register"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "Quit"),
		),
	}
}

// AppModel switches between the login page and the account page based on
// the shared state
type AppModel struct {
	ctx        context.Context
	workflow   Workflow
	store      *state.Store
	changes    <-chan state.Change
	consent    chan string
	keys       *AccountPageKeyMap
	loginPage  LoginPageModel
	state      state.State
	consentURL string
}

// NewAppModel creates the app. Workflow calls dispatch into store; the app
// renders from the changes it is subscribed to.
func NewAppModel(ctx context.Context, workflow Workflow, store *state.Store) AppModel {
	consent := make(chan string, 1)
	open := func(authURL string) error {
		select {
		case consent <- authURL:
		default:
		}
		return nil
	}

	return AppModel{
		ctx:       platform.WithOpener(ctx, open),
		workflow:  workflow,
		store:     store,
		changes:   store.Subscribe(16),
		consent:   consent,
		keys:      newAccountPageKeyMap(),
		loginPage: NewLoginPageModel(),
		state:     store.Snapshot(),
	}
}

func (m AppModel) waitForChange() tea.Msg {
	return NotificationMsg(<-m.changes)
}

func (m AppModel) waitForConsent() tea.Msg {
	return consentURLMsg(<-m.consent)
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.loginPage.Init(),
		m.waitForChange,
		m.waitForConsent,
	)
}

// run calls a workflow operation off the UI goroutine
func (m AppModel) run(call func(ctx context.Context, sink models.Sink)) tea.Cmd {
	return func() tea.Msg {
		call(m.ctx, m.store.Dispatch)
		return nil
	}
}

// profileFor builds the profile registered for a signed-in user
func profileFor(user *models.User) models.Profile {
	profile := models.Profile{"uid": user.UID}
	if user.Email != "" {
		profile["email"] = user.Email
	}
	if user.Name != "" {
		profile["name"] = user.Name
	}
	return profile
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case NotificationMsg:
		m.state = msg.State
		if !m.state.SigningIn {
			m.consentURL = ""
		}
		return m, m.waitForChange

	case consentURLMsg:
		m.consentURL = string(msg)
		return m, m.waitForConsent

	case SignInMsg:
		method := msg.Method
		return m, m.run(func(ctx context.Context, sink models.Sink) {
			m.workflow.SignIn(ctx, method, sink)
		})

	case tea.KeyMsg:
		if m.state.SignedIn() {
			switch {
			case key.Matches(msg, m.keys.quit):
				return m, tea.Quit
			case key.Matches(msg, m.keys.signOut):
				return m, m.run(m.workflow.SignOut)
			case key.Matches(msg, m.keys.register) && m.state.NewUser && !m.state.Registering:
				profile := profileFor(m.state.User)
				return m, m.run(func(ctx context.Context, sink models.Sink) {
					m.workflow.Register(ctx, profile, sink)
				})
			}
			return m, nil
		}
	}

	if m.state.SignedIn() {
		return m, nil
	}
	var cmd tea.Cmd
	m.loginPage, cmd = m.loginPage.Update(msg)
	return m, cmd
}

func (m AppModel) statusView() string {
	switch {
	case m.state.SigningIn && m.consentURL != "":
		return statusMessageStyle("Continue in your browser:\n" + m.consentURL)
	case m.state.SigningIn:
		return statusMessageStyle("Signing in...")
	case m.state.SignInFailed:
		return errorMessageStyle("Sign in failed")
	case m.state.Registering:
		return statusMessageStyle("Registering...")
	case m.state.RegisterFailed:
		return errorMessageStyle("Registration failed")
	}
	return ""
}

func (m AppModel) accountView() string {
	var b strings.Builder
	user := m.state.User
	b.WriteString(titleStyle.Render("Signed in"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "UID:      %s\n", user.UID)
	if user.Email != "" {
		fmt.Fprintf(&b, "Email:    %s\n", user.Email)
	}
	if user.Provider != "" {
		fmt.Fprintf(&b, "Provider: %s\n", user.Provider)
	}
	b.WriteString("\n")

	help := "o: sign out • q: quit"
	switch {
	case m.state.Account != nil:
		b.WriteString(completeMessageStyle("Registered"))
		b.WriteString("\n")
		keys := make([]string, 0, len(m.state.Account))
		for k := range m.state.Account {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %v\n", k, m.state.Account[k])
		}
	case m.state.NewUser:
		b.WriteString(statusMessageStyle("No profile yet"))
		b.WriteString("\n")
		help = "r: register • " + help
	}
	b.WriteString("\n")
	b.WriteString(helpStyle(help))
	return b.String()
}

func (m AppModel) View() string {
	var body string
	if m.state.SignedIn() {
		body = m.accountView()
	} else {
		body = m.loginPage.View()
	}
	if status := m.statusView(); status != "" {
		body += "\n\n" + status
	}
	return docStyle.Render(body)
}

// State returns the state as last rendered
func (m AppModel) State() state.State {
	return m.state
}
