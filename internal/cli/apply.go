package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipebuilder/pkg/controller"
	"github.com/matzehuels/pipebuilder/pkg/graph"
	"github.com/matzehuels/pipebuilder/pkg/store"
)

type applyOpts struct {
	output   string
	from     string
	catalog  string
	strict   bool
	failFast bool
	remote   bool
	noCache  bool
}

func (c *CLI) applyCommand() *cobra.Command {
	var opts applyOpts

	cmd := &cobra.Command{
		Use:   "apply <script.yaml>",
		Short: "Replay an edit script and write the resulting pipeline",
		Long: `Replay an edit script through the editor controller.

Each step is the interaction a canvas would send: drop and touch place nodes
from the palette (nearby nodes auto-connect), move and drag reposition them,
connect wires two ports, select/delete/clear edit the canvas and set changes a
node parameter. Failing steps are reported and skipped.

With --remote, deletions are announced to the validation service and the
final pipeline is submitted.`,
		Example: `  pipebuilder apply flow.yaml -o flow.json
  pipebuilder apply more.yaml --from flow.json -o flow.json --remote`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runApply(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the snapshot here (.json or .yaml); prints a summary otherwise")
	cmd.Flags().StringVar(&opts.from, "from", "", "start from this snapshot instead of an empty canvas")
	cmd.Flags().StringVar(&opts.catalog, "catalog", "", "extra template catalog (TOML)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "validate parameter values against template fields")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "stop at the first failing step")
	cmd.Flags().BoolVar(&opts.remote, "remote", false, "notify the service of deletions and submit the result")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the validation cache")

	return cmd
}

func (c *CLI) runApply(ctx context.Context, path string, opts applyOpts) error {
	logger := loggerFromContext(ctx)

	script, err := LoadScript(path)
	if err != nil {
		return err
	}
	reg, err := c.registry(opts.catalog)
	if err != nil {
		return err
	}

	storeOpts := []store.Option{store.WithLogger(logger)}
	if opts.strict {
		storeOpts = append(storeOpts, store.WithStrictParameters())
	}
	s := store.New(reg, storeOpts...)

	if opts.from != "" {
		snap, err := graph.ReadSnapshotFile(opts.from)
		if err != nil {
			return err
		}
		if err := s.Restore(snap); err != nil {
			return err
		}
		logger.Debug("Restored snapshot", "path", opts.from, "nodes", len(snap.Nodes), "edges", len(snap.Edges))
	}

	ctrlOpts := []controller.Option{
		controller.WithThreshold(c.cfg.AutoConnectThreshold),
		controller.WithLogger(logger),
	}
	ctrlOpts = append(ctrlOpts, script.options()...)

	var submitFn func() error
	if opts.remote {
		runner, cleanup, err := c.newRunner(ctx, opts.noCache)
		if err != nil {
			return err
		}
		defer cleanup()
		ctrlOpts = append(ctrlOpts, controller.WithDeleteNotifier(func(res store.DeleteResult) {
			runner.NotifyDeleted(ctx, res)
		}))
		submitFn = func() error {
			out, err := runner.Submit(ctx, s.Snapshot())
			printNotice(out.Notice)
			if err != nil {
				return ErrReported
			}
			printStats(out.Response.NumNodes, out.Response.NumEdges, out.Cached)
			return nil
		}
	}

	ctrl := controller.New(s, ctrlOpts...)
	prog := newProgress(logger)
	reports, err := runScript(ctrl, script, opts.failFast)
	prog.lap("replay")
	failed := 0
	for _, rep := range reports {
		if rep.Err != nil {
			failed++
			printWarning("step %d (%s): %v", rep.Index, rep.Op, rep.Err)
			continue
		}
		logger.Debug("Applied step", "step", rep.Index, "op", rep.Op, "result", rep.Result)
	}
	if err != nil {
		return err
	}
	if err := s.Check(); err != nil {
		return fmt.Errorf("pipeline invariants violated: %w", err)
	}
	prog.done(fmt.Sprintf("Applied %d steps", len(reports)))

	snap := s.Snapshot()
	if opts.output != "" {
		if err := graph.WriteSnapshotFile(snap, opts.output); err != nil {
			return err
		}
		printSuccess("Wrote pipeline with %d nodes and %d edges", len(snap.Nodes), len(snap.Edges))
		printFile(opts.output)
	} else {
		fmt.Fprintln(os.Stdout, graph.Summary(snap))
	}
	if failed > 0 {
		printDetail("%d of %d steps failed", failed, len(reports))
	}

	if submitFn != nil {
		return submitFn()
	}
	return nil
}
