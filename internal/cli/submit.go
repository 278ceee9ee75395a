package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipebuilder/pkg/errors"
	"github.com/matzehuels/pipebuilder/pkg/graph"
	"github.com/matzehuels/pipebuilder/pkg/persist"
	"github.com/matzehuels/pipebuilder/pkg/submit"
)

func (c *CLI) submitCommand() *cobra.Command {
	var (
		noCache bool
		key     string
		session string
		ping    bool
	)

	cmd := &cobra.Command{
		Use:   "submit <snapshot>",
		Short: "Submit a pipeline to the validation service",
		Long: `Send a pipeline snapshot to the validation service and print its verdict:

  Nodes: N • Edges: M • DAG: Yes|No

Successful submissions are saved (best effort) to the configured persistence
backend under the key "pipeline:last", so 'pipebuilder restore' can bring
them back. Identical pipelines are answered from the local cache.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			snap, err := graph.ReadSnapshotFile(args[0])
			if err != nil {
				return err
			}

			runner, cleanup, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer cleanup()
			if runner.Key, err = persistKey(key, session); err != nil {
				return err
			}

			if ping {
				if err := runner.Client.Ping(ctx); err != nil {
					printError("Service unreachable at %s", runner.Client.BaseURL)
					return ErrReported
				}
			}

			spin := newSpinner(ctx, fmt.Sprintf("Submitting %d nodes to %s", len(snap.Nodes), runner.Client.BaseURL))
			spin.Start()
			out, err := runner.Submit(ctx, snap)
			spin.Stop()
			if spin.Cancelled() {
				return ctx.Err()
			}

			printNotice(out.Notice)
			if err != nil {
				if errors.Is(err, errors.ErrCodeEmptyPipeline) {
					return nil
				}
				return ErrReported
			}
			printStats(out.Response.NumNodes, out.Response.NumEdges, out.Cached)
			if !out.Response.IsDAG {
				printNextStep("Find the cycle", "pipebuilder validate "+args[0])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "always ask the service")
	cmd.Flags().StringVar(&key, "key", "", "persistence key (default "+persist.DefaultKey+")")
	cmd.Flags().StringVar(&session, "session", "", `save under an editor session id ("new" starts one)`)
	cmd.Flags().BoolVar(&ping, "ping", false, "check the service before submitting")
	cmd.MarkFlagsMutuallyExclusive("key", "session")

	return cmd
}

func (c *CLI) summaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <snapshot>",
		Short: "Print a plain-text summary of a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := graph.ReadSnapshotFile(args[0])
			if err != nil {
				return err
			}
			text, notice := submit.Summarize(snap)
			if text != "" {
				fmt.Println(text)
				fmt.Println()
			}
			printNotice(notice)
			return nil
		},
	}
}
