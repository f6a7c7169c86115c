package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/phrasal/phrasal/pkg/tree"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Addresses includes each node's tree address in its label, which is
	// useful when working out annotation targets.
	Addresses bool
}

// ToDOT converts a constituent tree to Graphviz DOT format for a node-link
// view of its structure. The resulting DOT string can be rendered with
// [RenderSVG]. Node ids are tree addresses, so they are unique by
// construction.
func ToDOT(root *tree.Node, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	root.Walk(func(addr tree.Address, n *tree.Node) bool {
		label := fmtLabel(addr, n, opts.Addresses)
		attrs := fmtAttrs(n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", addr.String(), attrs)
		return true
	})

	buf.WriteString("\n")
	root.Walk(func(addr tree.Address, n *tree.Node) bool {
		for i := 0; i < n.NumChildren(); i++ {
			fmt.Fprintf(&buf, "  %q -> %q;\n", addr.String(), addr.Child(i).String())
		}
		return true
	})

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(addr tree.Address, n *tree.Node, addresses bool) string {
	label := n.Label()
	if label == "" {
		label = "·"
	}
	if addresses {
		return label + "\n" + addr.String()
	}
	return label
}

func fmtAttrs(n *tree.Node, label string) string {
	attrs := fmt.Sprintf("label=%q", label)
	if n.Label() == "" {
		attrs += `, style="rounded,filled,dashed", fillcolor=lightgrey`
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
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
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the Graphviz SVG header so the document uses a
// zero-origin viewBox and pixel extents matching it.
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

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
