// Command statuscard serves and renders GitHub status cards.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/statuscard/internal/config"
	"github.com/okian/statuscard/pkg/logger"
)

// cli carries state shared between commands.
type cli struct {
	logLevel  string
	logFormat string

	cfg *config.Config
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "statuscard",
		Short: "Dynamic SVG status card for a GitHub user",
		Long: `statuscard renders an SVG card with a GitHub user's commit streak,
activity role, contribution totals, languages and latest commit.

Configuration is read from defaults, an optional YAML file (STATUSCARD_CONFIG),
a .env file and the environment (GITHUB_USERNAME, GITHUB_TOKEN, PORT,
STATUSCARD_*).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "Log format: text or json (overrides config)")

	root.AddCommand(newServeCmd(c), newRenderCmd(c))
	return root
}

// setup loads configuration and initializes logging for every subcommand.
// Logs go to stdout for the server and to stderr for one-shot commands so a
// rendered card can be piped.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if c.logFormat != "" {
		cfg.LogFormat = c.logFormat
	}

	out := cmd.OutOrStdout()
	if cmd.Name() != serveCmdName {
		out = cmd.ErrOrStderr()
	}
	if err := logger.InitWithFormat(out, cfg.LogFormat); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	c.cfg = cfg
	c.log = log
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Stderr.WriteString(strings.TrimSpace(err.Error()) + "\n")
		os.Exit(1)
	}
}
