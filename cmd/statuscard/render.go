package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/statuscard/internal/adapters/svgcard"
	app "github.com/okian/statuscard/internal/app"
	"github.com/okian/statuscard/pkg/logger"
)

type renderFlags struct {
	user    string
	out     string
	inspect bool
}

func newRenderCmd(c *cli) *cobra.Command {
	f := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one card to a file",
		Long: `Fetch stats for a user and write the rendered card to --out, or to stdout
when --out is "-". Useful from a scheduled workflow that commits the card.`,
		Example: `  statuscard render --user octocat --out card.svg
  GITHUB_TOKEN=... statuscard render --out - > card.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc := app.New(app.WithConfig(c.cfg), app.WithLogger(c.log.Named("card")))
			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer svc.Stop()

			username, err := svc.ResolveUsername(f.user)
			if err != nil {
				return err
			}
			doc, err := svc.Card(ctx, username)
			if err != nil {
				return fmt.Errorf("generate card: %w", err)
			}

			if err := writeCard(cmd.OutOrStdout(), f.out, doc); err != nil {
				return err
			}
			c.log.Info(ctx, "card written",
				logger.String("username", username),
				logger.String("out", f.out),
				logger.Int("bytes", len(doc)),
			)

			if f.inspect {
				return inspect(cmd.ErrOrStderr(), string(doc))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.user, "user", "u", "", "GitHub username (defaults to the configured username)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "card.svg", `Output file, or "-" for stdout`)
	cmd.Flags().BoolVar(&f.inspect, "inspect", false, "Print the rendered region values to stderr")
	return cmd
}

func writeCard(stdout io.Writer, path string, doc []byte) error {
	if path == "-" {
		_, err := stdout.Write(doc)
		return err
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil { //nolint:gosec // the card is public output
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// inspect prints each region id with the text it received.
func inspect(w io.Writer, doc string) error {
	for _, id := range svgcard.Regions() {
		val, err := svgcard.Extract(doc, id)
		if err != nil {
			val = "<missing>"
		}
		if _, err := fmt.Fprintf(w, "%-14s %s\n", id, val); err != nil {
			return err
		}
	}
	return nil
}
