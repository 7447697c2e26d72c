// Command pikpak is a CLI client for the PikPak cloud storage service:
// sign-in, file management, offline downloads, and sharing.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	pikpak "github.com/ppdrive/pikpak-go"
	"github.com/ppdrive/pikpak-go/internal/config"
	"github.com/ppdrive/pikpak-go/internal/credfile"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath  string
	flagCredentials string
	flagJSON        bool
	flagVerbose     bool
	flagQuiet       bool
)

// resolvedCfg holds the effective configuration loaded by
// PersistentPreRunE. It is available to all subcommands after the root
// pre-run phase completes.
var resolvedCfg *config.Config

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pikpak",
		Short:   "PikPak CLI client",
		Long:    "A CLI client for the PikPak cloud storage service: files, offline downloads, and sharing.",
		Version: version,
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagCredentials, "credentials", "", "credential file path")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	// Register subcommands.
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newStatCmd())
	cmd.AddCommand(newMkdirCmd())
	cmd.AddCommand(newMvCmd())
	cmd.AddCommand(newCpCmd())
	cmd.AddCommand(newRenameCmd())
	cmd.AddCommand(newRmCmd())
	cmd.AddCommand(newRestoreCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newStarCmd())
	cmd.AddCommand(newUnstarCmd())
	cmd.AddCommand(newOfflineCmd())
	cmd.AddCommand(newShareCmd())
	cmd.AddCommand(newQuotaCmd())
	cmd.AddCommand(newEventsCmd())

	return cmd
}

// loadConfig resolves the effective configuration from the four-layer
// override chain and stores the result in resolvedCfg for use by
// subcommands.
func loadConfig() error {
	cli := config.CLIOverrides{
		ConfigPath: flagConfigPath,
	}

	if flagCredentials != "" {
		cli.CredentialsFile = &flagCredentials
	}

	env := config.ReadEnvOverrides()

	cfg, err := config.Resolve(env, cli)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	resolvedCfg = cfg

	return nil
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Config-file log level provides the baseline; --verbose and
// --quiet override it because CLI flags always win. The "auto" format
// picks text on a terminal and JSON otherwise.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	if resolvedCfg != nil {
		switch resolvedCfg.Logging.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	// CLI flags override config (highest priority).
	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	format := "auto"
	if resolvedCfg != nil {
		format = resolvedCfg.Logging.LogFormat
	}

	if format == "auto" {
		if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			format = "text"
		} else {
			format = "json"
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// apiContext bundles a live API client with the credential file it was
// loaded from, so commands can persist refreshed tokens afterwards.
type apiContext struct {
	client    *pikpak.Client
	credsPath string
	meta      map[string]string
	loaded    *oauth2.Token
	logger    *slog.Logger
}

// newHTTPClient builds the HTTP client from the network config. Malformed
// durations are caught by config validation before this runs.
func newHTTPClient() *http.Client {
	connect, _ := time.ParseDuration(resolvedCfg.Network.ConnectTimeout)
	data, _ := time.ParseDuration(resolvedCfg.Network.DataTimeout)

	return &http.Client{
		Timeout: data,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: connect}).DialContext,
			Proxy:       http.ProxyFromEnvironment,
		},
	}
}

// clientOptions assembles the common client options from the resolved
// config, plus the saved device ID when one exists.
func clientOptions(logger *slog.Logger, meta map[string]string) []pikpak.Option {
	backoff, _ := time.ParseDuration(resolvedCfg.Network.BaseBackoff)

	opts := []pikpak.Option{
		pikpak.WithLogger(logger),
		pikpak.WithHTTPClient(newHTTPClient()),
		pikpak.WithMaxAttempts(resolvedCfg.Network.MaxAttempts),
		pikpak.WithBaseBackoff(backoff),
	}

	deviceID := meta[credfile.MetaDeviceID]
	if deviceID == "" {
		deviceID = resolvedCfg.Auth.DeviceID
	}

	if deviceID != "" {
		opts = append(opts, pikpak.WithDeviceID(deviceID))
	}

	return opts
}

// newAPIContext loads saved credentials and builds an authenticated
// client. Returns an error directing the user to login when no usable
// credentials exist.
func newAPIContext(_ context.Context) (*apiContext, error) {
	logger := buildLogger()

	credsPath := config.CredentialsPath(resolvedCfg)

	tok, meta, err := credfile.Load(credsPath)
	if err != nil {
		return nil, err
	}

	if meta == nil {
		meta = make(map[string]string)
	}

	opts := clientOptions(logger, meta)

	switch {
	case tok != nil:
		opts = append(opts, pikpak.WithCredentialBundle(pikpak.EncodeBundle(tok.AccessToken, tok.RefreshToken)))
	case resolvedCfg.Auth.Username != "" && resolvedCfg.Auth.Password != "":
		opts = append(opts, pikpak.WithCredentials(resolvedCfg.Auth.Username, resolvedCfg.Auth.Password))
	default:
		return nil, fmt.Errorf("not logged in: run 'pikpak login' first")
	}

	client, err := pikpak.NewClient(opts...)
	if err != nil {
		return nil, err
	}

	// Credential files written before device IDs were recorded lack the
	// meta key. Backfill it so later runs reuse this fingerprint instead
	// of generating a fresh one per invocation.
	if tok != nil && meta[credfile.MetaDeviceID] == "" {
		deviceMeta := map[string]string{credfile.MetaDeviceID: client.DeviceID()}

		if mergeErr := credfile.LoadAndMergeMeta(credsPath, deviceMeta); mergeErr != nil {
			logger.Warn("recording device id failed",
				slog.String("path", credsPath),
				slog.String("error", mergeErr.Error()),
			)
		} else {
			meta[credfile.MetaDeviceID] = client.DeviceID()
		}
	}

	return &apiContext{
		client:    client,
		credsPath: credsPath,
		meta:      meta,
		loaded:    tok,
		logger:    logger,
	}, nil
}

// persist writes the current token pair back to the credential file when
// it changed during the command (the pipeline refreshes transparently).
// Called via defer; failures are logged, not fatal, because the command
// itself already succeeded.
func (ac *apiContext) persist() {
	info := ac.client.UserInfo()
	if info.AccessToken == "" {
		return
	}

	if ac.loaded != nil &&
		ac.loaded.AccessToken == info.AccessToken &&
		ac.loaded.RefreshToken == info.RefreshToken {
		return
	}

	if info.UserID != "" {
		ac.meta[credfile.MetaUserID] = info.UserID
	}

	ac.meta[credfile.MetaDeviceID] = ac.client.DeviceID()

	tok := &oauth2.Token{
		AccessToken:  info.AccessToken,
		RefreshToken: info.RefreshToken,
		TokenType:    "Bearer",
	}

	if err := credfile.Save(ac.credsPath, tok, ac.meta); err != nil {
		ac.logger.Warn("saving refreshed credentials failed",
			slog.String("path", ac.credsPath),
			slog.String("error", err.Error()),
		)

		return
	}

	ac.logger.Debug("credentials updated", slog.String("path", ac.credsPath))
}
