// Package commands provides the CLI commands for the Driftline client.
package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	driftline "github.com/driftline/driftline-go"
	"github.com/driftline/driftline-go/internal/config"
	"github.com/driftline/driftline-go/internal/logging"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	serverURL string
	token     string
	logLevel  string
	printLogs bool
)

var rootCmd = &cobra.Command{
	Use:   "driftline",
	Short: "Driftline - chat platform client",
	Long: `driftline talks to a Driftline chat server: log in, follow the
event stream, and post messages from the command line.

Configuration is read from driftline.json(c) files, .env, and
DRIFTLINE_* environment variables; flags override everything.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()

		level := logLevel
		if level == "" {
			if cfg, err := config.Load(""); err == nil {
				level = cfg.LogLevel
			}
		}
		out := os.Stderr
		logCfg := logging.Config{
			Level:  logging.ParseLevel(level),
			Output: out,
			Pretty: true,
		}
		if !printLogs {
			devNull, _ := os.Open(os.DevNull)
			logCfg.Output = devNull
		}
		logging.Init(logCfg)
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Server base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Session token (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().BoolVar(&printLogs, "print-logs", false, "Print logs to stderr")

	rootCmd.SetVersionTemplate(fmt.Sprintf("driftline %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(uploadCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig merges flag overrides over the layered config files.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if token != "" {
		cfg.Token = token
	}
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("no server URL configured (use --server or driftline.json)")
	}
	return cfg, nil
}

// newClient builds a client from config and authenticates it.
func newClient(ctx context.Context, cfg *config.Config) (*driftline.Client, error) {
	client, err := driftline.New(driftline.Options{
		ServerURL:         cfg.ServerURL,
		RequestTimeout:    cfg.RequestTimeout(),
		ReconnectInterval: cfg.ReconnectInterval(),
	})
	if err != nil {
		return nil, err
	}

	switch {
	case cfg.Token != "":
		_, err = client.LoginWithToken(ctx, cfg.Token)
	case cfg.LoginID != "" && cfg.Password != "":
		_, err = client.LoginWithPassword(ctx, cfg.LoginID, cfg.Password)
	default:
		err = fmt.Errorf("no credentials configured (set token or login_id/password)")
	}
	if err != nil {
		client.Dispose()
		return nil, err
	}
	return client, nil
}

// commandContext bounds one-shot commands.
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
