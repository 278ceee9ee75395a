package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipebuilder/pkg/cache"
	"github.com/matzehuels/pipebuilder/pkg/graph"
	"github.com/matzehuels/pipebuilder/pkg/observability"
	"github.com/matzehuels/pipebuilder/pkg/render/nodelink"
)

type renderOpts struct {
	output    string
	format    string
	direction string
	detailed  bool
	catalog   string
	noCache   bool
}

func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{direction: nodelink.DirectionLR}

	cmd := &cobra.Command{
		Use:   "render <snapshot>",
		Short: "Draw a pipeline as a node-link diagram",
		Long: `Render a pipeline snapshot with Graphviz. The format follows the output file
extension (.svg, .png, .dot) unless --format is given. Without -o the file is
written next to the snapshot.`,
		Example: `  pipebuilder render flow.json -o flow.svg
  pipebuilder render flow.json -f png --detailed --direction TB`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: svg (default), png, dot")
	cmd.Flags().StringVar(&opts.direction, "direction", opts.direction, "rank direction: LR or TB")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show parameters and port names")
	cmd.Flags().StringVar(&opts.catalog, "catalog", "", "extra template catalog (TOML)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the render cache")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

// resolveOutput picks the output path and format. An explicit format wins
// over the output extension.
func resolveOutput(input string, opts renderOpts) (path, format string, err error) {
	format = strings.ToLower(opts.format)
	if format == "" {
		format = outputFormat(opts.output, nodelink.FormatSVG)
	}
	if !nodelink.IsFormat(format) {
		return "", "", fmt.Errorf("unsupported format %q (want svg, png or dot)", format)
	}
	path = opts.output
	if path == "" {
		path = strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
	}
	return path, format, nil
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	path, format, err := resolveOutput(input, opts)
	if err != nil {
		return err
	}
	snap, err := graph.ReadSnapshotFile(input)
	if err != nil {
		return err
	}
	reg, err := c.registry(opts.catalog)
	if err != nil {
		return err
	}
	logger.Debugf("Loaded %s: %d nodes, %d edges", input, len(snap.Nodes), len(snap.Edges))
	prog.lap("load")

	ch, err := c.newCache(opts.noCache)
	if err != nil {
		return err
	}
	defer ch.Close()

	nlOpts := nodelink.Options{Direction: opts.direction, Detailed: opts.detailed, Registry: reg}
	data, cached, err := renderCached(ctx, ch, cache.NewDefaultKeyer(), snap, format, nlOpts)
	if err != nil {
		return err
	}
	prog.lap("render")

	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(data); err != nil {
		return err
	}
	prog.lap("write")

	prog.done(fmt.Sprintf("Rendered %s", format))
	printSuccess("Rendered %d nodes", len(snap.Nodes))
	printStats(len(snap.Nodes), len(snap.Edges), cached)
	printFile(path)
	return nil
}

// renderCached returns the artifact for snap, from the cache when an
// identical render was done before. The registry is not part of the key,
// so catalogs that restyle a kind should render with the cache disabled.
func renderCached(ctx context.Context, ch cache.Cache, keyer cache.Keyer, snap graph.Snapshot, format string, opts nodelink.Options) ([]byte, bool, error) {
	hooks := observability.Cache()
	key := keyer.ArtifactKey(graph.Hash(snap), cache.ArtifactKeyOpts{
		Format:    format,
		Direction: opts.Direction,
		Detailed:  opts.Detailed,
	})

	if data, ok, err := ch.Get(ctx, key); err == nil && ok {
		hooks.OnCacheHit(ctx, "artifact")
		return data, true, nil
	}
	hooks.OnCacheMiss(ctx, "artifact")

	data, err := nodelink.Render(ctx, snap, format, opts)
	if err != nil {
		return nil, false, err
	}
	if err := ch.Set(ctx, key, data, cache.TTLArtifact); err == nil {
		hooks.OnCacheSet(ctx, "artifact", len(data))
	}
	return data, false, nil
}
