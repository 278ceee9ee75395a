package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipebuilder/pkg/dag"
	"github.com/matzehuels/pipebuilder/pkg/graph"
	"github.com/matzehuels/pipebuilder/pkg/store"
)

// localReport is what validate finds without asking the service.
type localReport struct {
	Nodes   int
	Edges   int
	Cycle   []string
	Order   []string
	Invalid error // snapshot does not load into a store
}

// checkLocal validates snap against reg and runs the acyclicity check the
// service would run.
func checkLocal(snap graph.Snapshot, s *store.Store) localReport {
	rep := localReport{Nodes: len(snap.Nodes), Edges: len(snap.Edges)}
	if err := s.Restore(snap); err != nil {
		rep.Invalid = err
	}

	edges := make([]dag.Edge, len(snap.Edges))
	for i, e := range snap.Edges {
		edges[i] = dag.Edge{From: e.Source, To: e.Target}
	}
	g := dag.FromEdges(edges)
	for _, n := range snap.Nodes {
		_ = g.AddNode(n.ID)
	}
	rep.Cycle = g.FindCycle()
	if rep.Cycle == nil {
		rep.Order, _ = g.TopologicalSort()
	}
	return rep
}

func (c *CLI) validateCommand() *cobra.Command {
	var catalog string

	cmd := &cobra.Command{
		Use:   "validate <snapshot>",
		Short: "Check a pipeline locally",
		Long: `Check a pipeline without contacting the service: every node kind must be
known, every edge must join declared ports of existing nodes, and the graph
must be acyclic. On success the execution order is printed; otherwise one
cycle is shown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := graph.ReadSnapshotFile(args[0])
			if err != nil {
				return err
			}
			reg, err := c.registry(catalog)
			if err != nil {
				return err
			}

			rep := checkLocal(snap, store.New(reg, store.WithLogger(c.Logger)))
			ok := true
			if rep.Invalid != nil {
				printError("%v", rep.Invalid)
				ok = false
			}
			if rep.Cycle != nil {
				printError("Pipeline has a cycle")
				printDetail("%s", strings.Join(rep.Cycle, " "+iconArrow+" "))
				ok = false
			}
			if !ok {
				return ErrReported
			}

			printSuccess("Nodes: %d • Edges: %d • DAG: Yes", rep.Nodes, rep.Edges)
			if len(rep.Order) > 0 {
				printDetail("Order: %s", strings.Join(rep.Order, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&catalog, "catalog", "", "extra template catalog (TOML)")
	return cmd
}
