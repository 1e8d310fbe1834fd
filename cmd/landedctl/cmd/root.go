package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"landedcost/internal/cli"
)

type globalFlags struct {
	apiBase string
	token   string
	output  string
	timeout time.Duration
	retries uint
}

func RootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "landedctl",
		Short:         "Command line interface to the landed cost analysis service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&g.apiBase, "api-base", envOr("LC_API_BASE", "http://localhost:8080"), "API base URL (env: LC_API_BASE)")
	root.PersistentFlags().StringVar(&g.token, "token", os.Getenv("LC_API_TOKEN"), "Bearer token (env: LC_API_TOKEN)")
	root.PersistentFlags().StringVarP(&g.output, "output", "o", "json", "Output format: json|yaml|text")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 15*time.Second, "Per-request timeout")
	root.PersistentFlags().UintVar(&g.retries, "retries", 2, "Retries for idempotent requests that fail to connect")

	root.AddCommand(
		jobsCmd(g),
		analyzeCmd(g),
	)
	return root
}

func (g *globalFlags) client() *cli.Client {
	c := &cli.Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(g.apiBase), "/"),
		Token:   strings.TrimSpace(g.token),
		Retries: g.retries,
	}
	return c
}

func (g *globalFlags) format() (cli.Format, error) {
	return cli.ParseFormat(g.output)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
