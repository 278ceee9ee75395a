package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipebuilder/pkg/graph"
	"github.com/matzehuels/pipebuilder/pkg/persist"
	"github.com/matzehuels/pipebuilder/pkg/submit"
)

func (c *CLI) restoreCommand() *cobra.Command {
	var (
		key     string
		session string
		output  string
		forget  bool
	)

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore the last submitted pipeline",
		Long: `Load the most recently submitted pipeline from the persistence backend and
write it as a snapshot file. Without -o the pipeline summary is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			storeKey, err := persistKey(key, session)
			if err != nil {
				return err
			}
			p, err := c.newPersist(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			rec, err := p.Load(ctx, storeKey)
			if err != nil {
				return err
			}
			if rec == nil {
				printInfo("Nothing saved under %s", storeKey)
				return nil
			}

			snap := rec.Snapshot()
			printInfo("Saved %s", rec.SavedAt.Local().Format(time.DateTime))
			if rec.Response != nil {
				printDetail("%s", submit.SuccessText(*rec.Response))
			}

			if output == "" {
				text, notice := submit.Summarize(snap)
				if text != "" {
					printDetail("%s", text)
				}
				printNotice(notice)
			} else {
				if err := graph.WriteSnapshotFile(snap, output); err != nil {
					return err
				}
				printSuccess("Restored %d nodes and %d edges", len(snap.Nodes), len(snap.Edges))
				printFile(output)
			}

			if forget {
				return p.Delete(ctx, storeKey)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", persist.DefaultKey, "persistence key")
	cmd.Flags().StringVar(&session, "session", "", "restore an editor session instead of the last submission")
	cmd.Flags().StringVarP(&output, "output", "o", "", "snapshot file to write (.json or .yaml)")
	cmd.Flags().BoolVar(&forget, "forget", false, "delete the saved pipeline after restoring it")
	cmd.MarkFlagsMutuallyExclusive("key", "session")

	return cmd
}
