package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"landedcost/internal/cli"
	"landedcost/internal/jobs"
)

func jobsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Submit and control batch jobs",
	}
	cmd.AddCommand(
		jobsSubmitCmd(g),
		jobsGetCmd(g),
		jobsResultCmd(g),
		jobsListCmd(g),
	)
	for _, action := range []string{"pause", "resume", "cancel", "rerun"} {
		cmd.AddCommand(jobsControlCmd(g, action))
	}
	return cmd
}

func jobsSubmitCmd(g *globalFlags) *cobra.Command {
	var (
		priority   string
		params     string
		paramsFile string
		maxRetries int
	)
	cmd := &cobra.Command{
		Use:   "submit <type>",
		Short: "Submit a job (savings_analysis, scenario_comparison, recommendation_generation)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := []byte(params)
			if paramsFile != "" {
				b, err := os.ReadFile(paramsFile)
				if err != nil {
					return err
				}
				raw = b
			}
			if len(raw) == 0 {
				return fmt.Errorf("either --params or --params-file is required")
			}
			if !json.Valid(raw) {
				return fmt.Errorf("parameters are not valid JSON")
			}
			return run(cmd.Context(), g, func(ctx context.Context, c *cli.Client) (any, error) {
				return c.SubmitJob(ctx, jobs.SubmitRequest{
					Type:       args[0],
					Priority:   priority,
					Parameters: raw,
					MaxRetries: maxRetries,
				})
			})
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", jobs.PriorityMedium, "low|medium|high|urgent")
	cmd.Flags().StringVar(&params, "params", "", "Job parameters as inline JSON")
	cmd.Flags().StringVarP(&paramsFile, "params-file", "f", "", "Read job parameters from a JSON file")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 0, "Override the scheduler's retry limit for this job")
	return cmd
}

func jobsGetCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), g, func(ctx context.Context, c *cli.Client) (any, error) {
				return c.GetJob(ctx, args[0])
			})
		},
	}
}

func jobsResultCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "result <id>",
		Short: "Show the result of a completed job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), g, func(ctx context.Context, c *cli.Client) (any, error) {
				return c.JobResult(ctx, args[0])
			})
		},
	}
}

func jobsListCmd(g *globalFlags) *cobra.Command {
	var opts cli.ListJobsOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), g, func(ctx context.Context, c *cli.Client) (any, error) {
				items, _, err := c.ListJobs(ctx, opts)
				if err != nil {
					return nil, err
				}
				if f, _ := g.format(); f == cli.FormatText {
					return cli.Rows(items), nil
				}
				return items, nil
			})
		},
	}
	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "Filter by job type")
	cmd.Flags().StringSliceVarP(&opts.Statuses, "status", "s", nil, "Filter by status (comma separated)")
	cmd.Flags().StringVarP(&opts.WorkspaceID, "workspace", "w", "", "Filter by workspace id")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "Page size")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Offset")
	return cmd
}

func jobsControlCmd(g *globalFlags, action string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id>",
		Short: fmt.Sprintf("%s a job", action),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), g, func(ctx context.Context, c *cli.Client) (any, error) {
				return c.ControlJob(ctx, args[0], action)
			})
		},
	}
}

// run executes one API call under the global timeout and prints its result.
func run(parent context.Context, g *globalFlags, call func(ctx context.Context, c *cli.Client) (any, error)) error {
	format, err := g.format()
	if err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, g.timeout)
	defer cancel()
	out, err := call(ctx, g.client())
	if err != nil {
		return err
	}
	return cli.Write(os.Stdout, format, out)
}
