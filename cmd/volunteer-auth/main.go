package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/brizzai/volunteer-auth/internal/auth/platform"
	"github.com/brizzai/volunteer-auth/internal/auth/providers"
	"github.com/brizzai/volunteer-auth/internal/auth/workflow"
	"github.com/brizzai/volunteer-auth/internal/config"
	"github.com/brizzai/volunteer-auth/internal/logger"
	"github.com/brizzai/volunteer-auth/internal/state"
	"github.com/brizzai/volunteer-auth/internal/store"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "volunteer-auth",
	Short: "Sign volunteers in and manage their profiles",
	Long: `volunteer-auth signs volunteers in with email and password or a federated
provider (Google, Facebook, Twitter), checks whether they have a profile and
registers one for new users.`,
	SilenceUsage: true,
	RunE:         runLogin,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
	config.InitFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		loginCmd,
		signInCmd,
		signOutCmd,
		lookupCmd,
		registerCmd,
		addUserCmd,
		configCmd,
	)
}

// components are the wired application parts a command works with
type components struct {
	cfg        *config.Config
	controller *workflow.Controller
	state      *state.Store
	sessions   platform.SessionStore
	documents  store.DocumentStore
	app        *fx.App
}

func (c *components) stop() {
	if err := c.app.Stop(context.Background()); err != nil {
		pterm.Warning.Printfln("Shutdown: %v", err)
	}
	_ = logger.Sync()
}

// setup loads the configuration, initializes logging and starts the
// application graph
func setup(cmd *cobra.Command) (*components, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	c := &components{cfg: cfg}
	c.app = fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		providers.Module,
		store.Module,
		platform.Module,
		workflow.Module,
		state.Module,
		fx.Populate(&c.controller, &c.state, &c.sessions, &c.documents),
	)
	if err := c.app.Err(); err != nil {
		return nil, err
	}
	if err := c.app.Start(cmd.Context()); err != nil {
		return nil, err
	}
	return c, nil
}

// recoverPanic reports a panic the way the CLI reports any fatal error
func recoverPanic() {
	if r := recover(); r != nil {
		pterm.Error.Printf("\nCaught panic: %v\n", r)
		pterm.Error.Printf("%s\n", debug.Stack())
		os.Exit(2)
	}
}
