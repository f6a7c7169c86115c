// Package nodelink renders constituent trees as traditional node-link
// diagrams.
//
// # Overview
//
// This package produces directed graph visualizations using Graphviz, where
// every tree node appears as a box connected to its daughters by arrows.
// It's an alternative to the linguistic tree rendering in pkg/render for
// cases where a structural overview is preferred, for example when working
// out which address an annotation should target.
//
// # Usage
//
// Convert a tree to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(root, nodelink.Options{Addresses: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Addresses: When true, node labels include the node's tree address.
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be:
//
//   - Rendered directly via [RenderSVG]
//   - Saved and processed with external Graphviz tools
//   - Customized before rendering
//
// The generated DOT uses top-to-bottom layout (rankdir=TB) with rounded box
// nodes, matching the orientation of the linguistic rendering. Nodes with
// empty labels are drawn dashed and grey.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
