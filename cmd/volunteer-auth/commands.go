package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/brizzai/volunteer-auth/internal/auth/constants"
	"github.com/brizzai/volunteer-auth/internal/auth/models"
	"github.com/brizzai/volunteer-auth/internal/auth/platform"
	"github.com/brizzai/volunteer-auth/internal/auth/providers"
	"github.com/brizzai/volunteer-auth/internal/config"
	"github.com/brizzai/volunteer-auth/internal/logger"
	"github.com/brizzai/volunteer-auth/internal/state"
	"github.com/brizzai/volunteer-auth/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	errNotSignedIn = errors.New("not signed in, run `volunteer-auth signin` first")

	signInProvider string
	signInEmail    string
	signInPassword string

	lookupUID    string
	registerFile string

	addUserEmail    string
	addUserPassword string
	addUserName     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in interactively",
	RunE:  runLogin,
}

var signInCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in with email and password or a federated provider",
	RunE:  runSignIn,
}

var signOutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Sign out and clear the saved session",
	RunE:  runSignOut,
}

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Look up a user's profile",
	RunE:  runLookup,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a profile from a YAML file",
	RunE:  runRegister,
}

var addUserCmd = &cobra.Command{
	Use:   "adduser",
	Short: "Create an email/password account on the local identity platform",
	RunE:  runAddUser,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE:  runConfig,
}

func init() {
	signInCmd.Flags().StringVar(&signInProvider, "provider", "email", "Sign-in provider (email|google|facebook|twitter)")
	signInCmd.Flags().StringVar(&signInEmail, "email", "", "Email for password sign-in")
	signInCmd.Flags().StringVar(&signInPassword, "password", "", "Password for password sign-in")

	lookupCmd.Flags().StringVar(&lookupUID, "uid", "", "User id to look up (defaults to the signed-in user)")

	registerCmd.Flags().StringVarP(&registerFile, "file", "f", "", "Path to the profile YAML file")
	_ = registerCmd.MarkFlagRequired("file")

	addUserCmd.Flags().StringVar(&addUserEmail, "email", "", "Account email")
	addUserCmd.Flags().StringVar(&addUserPassword, "password", "", "Account password")
	addUserCmd.Flags().StringVar(&addUserName, "name", "", "Display name")
	_ = addUserCmd.MarkFlagRequired("email")
	_ = addUserCmd.MarkFlagRequired("password")
}

// reporter dispatches every notification into the state store and prints
// progress. Failures are left to the command to report.
func reporter(s *state.Store) models.Sink {
	return func(n models.Notification) {
		s.Dispatch(n)
		logger.Debug("Notification", zap.String("kind", string(n.Kind)))

		switch n.Kind {
		case constants.SignInInit:
			pterm.Info.Println("Signing in...")
		case constants.SignedIn:
			if user, ok := n.Payload.(*models.User); ok {
				pterm.Success.Printfln("Signed in as %s", describeUser(user))
			}
		case constants.SignInNewUser:
			pterm.Warning.Println("No profile yet, create one with `volunteer-auth register`")
		case constants.GetUserAccountOK, constants.RegisterSuccessful:
			if profile, ok := n.Payload.(models.Profile); ok {
				printProfile(profile)
			}
		case constants.RegisterInit:
			pterm.Info.Println("Registering...")
		case constants.SignedOut:
			pterm.Success.Println("Signed out")
		}
	}
}

func describeUser(user *models.User) string {
	if user.Email != "" {
		return fmt.Sprintf("%s (%s)", user.Email, user.UID)
	}
	return user.UID
}

func printProfile(profile models.Profile) {
	keys := make([]string, 0, len(profile))
	for k := range profile {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := pterm.TableData{{"Field", "Value"}}
	for _, k := range keys {
		data = append(data, []string{k, fmt.Sprint(profile[k])})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func runLogin(cmd *cobra.Command, args []string) error {
	defer recoverPanic()

	c, err := setup(cmd)
	if err != nil {
		return err
	}
	defer c.stop()

	p := tea.NewProgram(tui.NewAppModel(cmd.Context(), c.controller, c.state), tea.WithAltScreen())
	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running program: %w", err)
	}

	final := m.(tui.AppModel).State()
	if final.SignedIn() {
		pterm.Info.Printfln("Signed in as %s", pterm.LightGreen(describeUser(final.User)))
	}
	return nil
}

func runSignIn(cmd *cobra.Command, args []string) error {
	provider, err := providers.ParseProvider(signInProvider)
	if err != nil {
		return err
	}
	method := providers.WithPopup(provider)
	if provider == providers.Password {
		method = providers.WithPassword(signInEmail, signInPassword)
	}

	c, err := setup(cmd)
	if err != nil {
		return err
	}
	defer c.stop()

	c.controller.SignIn(platform.WithOpener(cmd.Context(), platform.PrintOpener), method, reporter(c.state))
	if !c.state.Snapshot().SignedIn() {
		return fmt.Errorf("sign in with %s failed, see %s for details", provider, c.cfg.Logging.OutputPath)
	}
	return nil
}

func runSignOut(cmd *cobra.Command, args []string) error {
	c, err := setup(cmd)
	if err != nil {
		return err
	}
	defer c.stop()

	signedOut := false
	sink := reporter(c.state)
	c.controller.SignOut(cmd.Context(), func(n models.Notification) {
		signedOut = signedOut || n.Kind == constants.SignedOut
		sink(n)
	})
	if !signedOut {
		return fmt.Errorf("sign out failed, see %s for details", c.cfg.Logging.OutputPath)
	}
	return nil
}

// sessionUID returns the uid of the saved session user
func sessionUID(c *components) (string, error) {
	user, err := c.sessions.Load()
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", errNotSignedIn
	}
	return user.UID, nil
}

func runLookup(cmd *cobra.Command, args []string) error {
	c, err := setup(cmd)
	if err != nil {
		return err
	}
	defer c.stop()

	uid := lookupUID
	if uid == "" {
		if uid, err = sessionUID(c); err != nil {
			return err
		}
	}

	answered := false
	sink := reporter(c.state)
	c.controller.CheckRegistered(cmd.Context(), uid, func(n models.Notification) {
		answered = true
		sink(n)
	})
	if !answered {
		return fmt.Errorf("profile lookup for %s failed, see %s for details", uid, c.cfg.Logging.OutputPath)
	}
	return nil
}

func readProfile(path string) (models.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}
	var profile models.Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile file: %w", err)
	}
	if profile == nil {
		profile = models.Profile{}
	}
	return profile, nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	profile, err := readProfile(registerFile)
	if err != nil {
		return err
	}

	c, err := setup(cmd)
	if err != nil {
		return err
	}
	defer c.stop()

	if profile.UID() == "" {
		uid, err := sessionUID(c)
		if err != nil {
			return err
		}
		profile["uid"] = uid
	}

	c.controller.Register(cmd.Context(), profile, reporter(c.state))
	if c.state.Snapshot().RegisterFailed {
		return fmt.Errorf("registration failed, see %s for details", c.cfg.Logging.OutputPath)
	}
	pterm.Success.Printfln("Registered %s", profile.UID())
	return nil
}

func runAddUser(cmd *cobra.Command, args []string) error {
	c, err := setup(cmd)
	if err != nil {
		return err
	}
	defer c.stop()

	if c.cfg.Identity.Mode != config.IdentityModeLocal {
		return fmt.Errorf("adduser only works with --identity-mode=local")
	}
	if c.cfg.Store.Driver == config.StoreDriverMemory {
		pterm.Warning.Println("The memory store does not outlive this command, use --store-driver=sqlite or redis")
	}

	user, err := platform.NewLocal(c.documents, c.sessions).CreateUser(cmd.Context(), addUserEmail, addUserPassword, addUserName)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("Created %s", describeUser(user))
	return nil
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	data := pterm.TableData{
		{"Key", "Value"},
		{"identity.mode", string(cfg.Identity.Mode)},
		{"identity.project_id", cfg.Identity.ProjectID},
		{"identity.endpoint", cfg.Identity.Endpoint},
		{"identity.api_key", redact(cfg.Identity.APIKey)},
		{"callback.redirect_url", cfg.Callback.RedirectURL()},
		{"store.driver", string(cfg.Store.Driver)},
		{"session.path", cfg.Session.Path},
		{"logging.output_path", cfg.Logging.OutputPath},
	}
	for _, p := range []struct {
		name string
		cfg  config.OAuthConfig
	}{
		{"google", cfg.Providers.Google},
		{"facebook", cfg.Providers.Facebook},
		{"twitter", cfg.Providers.Twitter},
	} {
		data = append(data, []string{"providers." + p.name + ".client_id", p.cfg.ClientID})
		data = append(data, []string{"providers." + p.name + ".client_secret", redact(p.cfg.ClientSecret)})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
