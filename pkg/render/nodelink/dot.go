package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pipebuilder/pkg/graph"
	"github.com/matzehuels/pipebuilder/pkg/registry"
)

// Output formats understood by [Render].
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatDOT = "dot"
)

// Rank directions.
const (
	DirectionLR = "LR"
	DirectionTB = "TB"
)

// detailLimit caps the parameters printed in a detailed label.
const detailLimit = 4

// Options configures diagram generation.
type Options struct {
	// Direction is the Graphviz rankdir, "LR" (default) or "TB".
	Direction string

	// Detailed adds node parameters to labels and port names to edges.
	Detailed bool

	// Registry supplies titles and accent colors. Without one, nodes are
	// labelled with their kind and drawn in black.
	Registry *registry.Registry
}

func (o Options) direction() string {
	if o.Direction == DirectionTB {
		return DirectionTB
	}
	return DirectionLR
}

// ToDOT converts a pipeline snapshot to Graphviz DOT source.
// Nodes keep creation order and edges keep connection order, so the output
// is stable for equal snapshots.
func ToDOT(s graph.Snapshot, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", opts.direction())
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, penwidth=2, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#64748b\", fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for _, n := range s.Nodes {
		attrs := fmtAttrs(n, fmtLabel(n, opts), opts.Registry)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range s.Edges {
		if opts.Detailed && (e.SourceHandle != "" || e.TargetHandle != "") {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.Source, e.Target, e.SourceHandle+" → "+e.TargetHandle)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, opts Options) string {
	title := n.Type
	if opts.Registry != nil {
		if t, ok := opts.Registry.TemplateOf(n.Type); ok && t.Title != "" {
			title = t.Title
		}
	}
	label := title + "\n" + n.ID
	if !opts.Detailed {
		return label
	}

	keys := slices.DeleteFunc(slices.Sorted(maps.Keys(n.Data)), func(k string) bool {
		return k == "id" || k == "nodeType"
	})
	if len(keys) > detailLimit {
		keys = keys[:detailLimit]
	}
	for _, k := range keys {
		label += fmt.Sprintf("\n%s: %v", k, n.Data[k])
	}
	return label
}

func fmtAttrs(n graph.Node, label string, reg *registry.Registry) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if reg == nil {
		return attrs
	}
	t, ok := reg.TemplateOf(n.Type)
	if !ok {
		// Kinds missing from the registry stand out.
		return append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	if t.Accent != "" {
		attrs = append(attrs, fmt.Sprintf("color=%q", t.Accent))
	}
	return attrs
}

// RenderSVG lays out DOT source with Graphviz and returns SVG bytes.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG lays out DOT source with Graphviz and returns PNG bytes.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

// Render produces the artifact for one format from a snapshot.
func Render(ctx context.Context, s graph.Snapshot, format string, opts Options) ([]byte, error) {
	dot := ToDOT(s, opts)
	switch format {
	case FormatSVG:
		return RenderSVG(ctx, dot)
	case FormatPNG:
		return RenderPNG(ctx, dot)
	case FormatDOT:
		return []byte(dot), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// IsFormat reports whether format is supported by [Render].
func IsFormat(format string) bool {
	switch format {
	case FormatSVG, FormatPNG, FormatDOT:
		return true
	}
	return false
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing starts at the
// origin and carries explicit pixel dimensions.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
