// Package commands implements the spendyze-cli command tree.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"spendyze/internal/cli"
	"spendyze/internal/config"
	applog "spendyze/internal/log"
)

// PasswordEnv is read when --password is not given.
const PasswordEnv = "SPENDYZE_PASSWORD"

type options struct {
	username   string
	password   string
	signup     bool
	backend    string
	backendURL string
	logLevel   string
}

// app carries state from the persistent hooks to the subcommands.
type app struct {
	opts     options
	cfg      *config.Config
	pipeline *cli.Pipeline
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "spendyze-cli",
		Short: "Track income and expenses and ask an AI about them",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.opts.username, "username", "u", "", "account username")
	flags.StringVarP(&a.opts.password, "password", "p", "", "account password (default $"+PasswordEnv+")")
	flags.BoolVar(&a.opts.signup, "signup", false, "create the account before logging in")
	flags.StringVar(&a.opts.backend, "backend", "", "backend kind: http or memory (default from config)")
	flags.StringVar(&a.opts.backendURL, "backend-url", "", "backend base URL (default from config)")
	flags.StringVar(&a.opts.logLevel, "log-level", "warn", "log level written to stderr")

	rootCmd.AddCommand(
		newAskCommand(a),
		newChatCommand(a),
		newAddCommand(a),
		newReportCommand(a),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.opts.backend != "" {
		cfg.Backend = a.opts.backend
	}
	if a.opts.backendURL != "" {
		cfg.BackendURL = a.opts.backendURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if a.opts.password == "" {
		a.opts.password = os.Getenv(PasswordEnv)
	}

	level := applog.ParseLevel(a.opts.logLevel)
	logger := applog.New(applog.Config{
		Level:     level,
		Component: applog.ComponentApp,
		Handler:   slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}),
	})
	applog.SetDefault(logger)

	p, err := cli.NewPipeline(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.pipeline = p
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	if a.pipeline == nil {
		return nil
	}
	return a.pipeline.Close()
}

// login signs in with the global flags, creating the account first when
// --signup is set.
func (a *app) login(ctx context.Context) error {
	if a.opts.username == "" {
		return errors.New("--username is required")
	}
	if a.opts.signup {
		out := a.pipeline.Auth.CreateAccount(ctx, a.opts.username, a.opts.password)
		if !out.OK {
			return fmt.Errorf("create account: %s", out.Message)
		}
	}
	out := a.pipeline.Auth.Login(ctx, a.opts.username, a.opts.password)
	if !out.OK {
		return fmt.Errorf("login: %s", out.Message)
	}
	return nil
}
