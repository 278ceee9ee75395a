// Package nodelink draws pipelines as node-link diagrams.
//
// Each node becomes a rounded box labelled with its template title and id,
// outlined in the template's accent color. Edges follow the pipeline's
// connections; in detailed mode they are labelled "sourcePort → targetPort".
//
// # Usage
//
//	dot := nodelink.ToDOT(snap, nodelink.Options{Registry: registry.Builtin()})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// or in one step:
//
//	png, err := nodelink.Render(ctx, snap, nodelink.FormatPNG, opts)
//
// Layout runs in-process through [github.com/goccy/go-graphviz]; no Graphviz
// installation is needed.
package nodelink
