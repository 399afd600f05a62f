// Command admin is the terminal admin console: sign in by magic link,
// review pending testimonials, approve them, and send comment invitations.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/folio/testimonial-relay/internal/admin"
	"github.com/folio/testimonial-relay/internal/apiclient"
	"github.com/folio/testimonial-relay/internal/console"
	"github.com/folio/testimonial-relay/internal/gotrue"
	"github.com/folio/testimonial-relay/internal/i18n"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "admin",
		Short:         "Testimonial admin console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default admin.yaml)")

	cmd.AddCommand(&cobra.Command{
		Use:   "panel",
		Short: "Open the interactive admin panel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPanel(cmd.Context(), configPath)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "auth: %s\napi: %s\nsite: %s\nsession: %s\n",
				cfg.SupabaseURL, cfg.APIBase, siteURL(cfg), cfg.SessionFile)
			return nil
		},
	})

	return cmd
}

func loadConfig(path string) (*console.Config, error) {
	cfg, err := console.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, console.ErrConfigMissing) {
			lang := i18n.Normalize(cfg.Language)
			fmt.Fprintln(os.Stderr, i18n.T(lang, i18n.ConfigMissing))
		}
		return nil, err
	}
	return cfg, nil
}

func runPanel(parent context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auth := gotrue.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.RequestTimeout)
	sessions := console.NewSessionStore(cfg.SessionFile, auth)
	api := apiclient.NewClient(cfg.APIBase, sessions, cfg.RequestTimeout)

	view := console.NewTerminalView(os.Stdout)
	ctrl := admin.NewController(sessions, api, api, view, cfg.ControllerOptions())

	log.Debug().Str("api", cfg.APIBase).Str("session_file", cfg.SessionFile).Msg("admin panel starting")
	return console.NewPanel(ctrl, view, os.Stdin, os.Stdout).Run(ctx)
}

func siteURL(cfg *console.Config) string {
	if cfg.PublicSiteURL != "" {
		return cfg.PublicSiteURL
	}
	return cfg.Origin
}

func setLogLevel(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}
