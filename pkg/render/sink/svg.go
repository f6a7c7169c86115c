// Package sink serializes finished tree layouts to SVG markup.
//
// Rendering is a pure function of the layout and its recorded annotations:
// the same layout always produces byte-identical markup, and rendering may
// be repeated without mutating the layout. Drawing primitives are emitted in
// a fixed order: edges first, node text second, constituent boxes and
// underlines third, movement arrows last, so annotations are never occluded
// by node content.
package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/phrasal/phrasal/pkg/render/layout"
	"github.com/phrasal/phrasal/pkg/tree"
)

// Diagram is one finished piece of vector markup together with its absolute
// pixel extent, which the figure compositor needs to position it.
type Diagram struct {
	SVG    []byte
	Width  float64 // px
	Height float64 // px
}

// String returns the markup as a string.
func (d Diagram) String() string { return string(d.SVG) }

// Option adjusts serialization output.
type Option func(*renderer)

// WithBackground fills the canvas with a solid color before any tree
// content is drawn. The default canvas is transparent.
func WithBackground(color string) Option {
	return func(r *renderer) { r.background = color }
}

// RenderSVG serializes a laid-out tree to SVG. Coordinates are emitted in
// relative em units or absolute pixels depending on the layout's unit and
// compatibility options; movement arrows and arrowheads always use user
// units, which coincide with pixels in both modes.
func RenderSVG(l *layout.TreeLayout, opts ...Option) Diagram {
	lopts := l.Options()
	r := renderer{
		layout:   l,
		opts:     lopts,
		fontSize: lopts.FontSize,
		relative: lopts.RelativeUnits,
		sep:      "\n",
	}
	for _, o := range opts {
		o(&r)
	}
	switch lopts.Compat {
	case layout.CompatAbsolute:
		r.relative = false
	case layout.CompatMarkdown:
		r.relative = false
		r.sep = " "
	}

	var buf bytes.Buffer
	r.buf = &buf
	r.emit()
	return Diagram{SVG: buf.Bytes(), Width: l.Width(), Height: l.Height()}
}

type renderer struct {
	layout     *layout.TreeLayout
	opts       layout.Options
	buf        *bytes.Buffer
	fontSize   float64
	relative   bool
	sep        string
	background string
}

// coord formats an em-denominated coordinate in the active unit mode.
func (r *renderer) coord(em float64) string {
	if r.relative {
		return fmt.Sprintf("%gem", trim(em))
	}
	return fmt.Sprintf("%g", trim(em*r.fontSize))
}

// px formats an em-denominated value in user units unconditionally, for
// primitives whose attributes cannot carry length units.
func (r *renderer) px(em float64) float64 { return trim(em * r.fontSize) }

// trim rounds to a fixed precision so float noise cannot leak into the
// markup and break byte-for-byte determinism.
func trim(v float64) float64 {
	const scale = 10000
	if v < 0 {
		return float64(int64(v*scale-0.5)) / scale
	}
	return float64(int64(v*scale+0.5)) / scale
}

func (r *renderer) line(format string, args ...any) {
	fmt.Fprintf(r.buf, format, args...)
	r.buf.WriteString(r.sep)
}

func (r *renderer) emit() {
	r.header()
	if r.background != "" {
		r.line(`<rect x="0" y="0" width="100%%" height="100%%" fill="%s" stroke="none" />`,
			escape(r.background))
	}
	for _, e := range r.layout.Edges() {
		r.edge(e)
	}
	for _, addr := range r.layout.Addresses() {
		box, _ := r.layout.Box(addr)
		r.text(box)
	}
	anns := r.layout.Annotations()
	for _, a := range anns {
		switch a.Kind {
		case layout.KindConstituentBox:
			r.constituentBox(a)
		case layout.KindConstituentUnderline:
			r.constituentUnderline(a)
		}
	}
	for _, a := range anns {
		if a.Kind == layout.KindMovementArrow {
			r.arrow(a)
		}
	}
	r.buf.WriteString("</svg>")
	if r.sep == "\n" {
		r.buf.WriteString("\n")
	}
}

func (r *renderer) header() {
	w, h := r.layout.Width(), r.layout.Height()
	baseCSS := r.opts.TextStyle().CSS()
	if r.relative {
		r.line(`<svg xmlns="http://www.w3.org/2000/svg" width="%gem" height="%gem" style="%s">`,
			trim(r.layout.EmWidth()), trim(r.layout.EmHeight()), escape(baseCSS))
		return
	}
	r.line(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %g %g" width="%g" height="%g" style="%s">`,
		trim(w), trim(h), trim(w), trim(h), escape(baseCSS))
}

func (r *renderer) edge(e layout.Edge) {
	switch {
	case e.Variant == layout.EdgeTriangle:
		// outline triangle across the child label, apex at the parent
		dodge := 0.8 * e.BaseWidth / 2
		xl, xr := e.X2-dodge, e.X2+dodge
		r.strokeLine(e.X1, e.Y1, xl, e.Y2)
		r.strokeLine(e.X1, e.Y1, xr, e.Y2)
		r.strokeLine(xl, e.Y2, xr, e.Y2)
	case e.BendY != 0:
		// segmented multi-level descent
		r.strokeLine(e.X1, e.Y1, e.X2, e.BendY)
		r.strokeLine(e.X2, e.BendY, e.X2, e.Y2)
	default:
		r.strokeLine(e.X1, e.Y1, e.X2, e.Y2)
	}
}

func (r *renderer) strokeLine(x1, y1, x2, y2 float64) {
	r.line(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="black" />`,
		r.coord(x1), r.coord(y1), r.coord(x2), r.coord(y2))
}

func (r *renderer) text(box layout.NodeBox) {
	lines := tree.SplitLabel(box.Label)
	if len(lines) == 0 {
		return
	}
	styleAttr := ""
	if box.Style != r.opts.TextStyle() {
		styleAttr = fmt.Sprintf(` style="%s"`, escape(box.Style.CSS()))
	}
	for i, line := range lines {
		// one text primitive per line, stacked a line-height apart
		baseline := box.Y + float64(i+1)*box.LineHeight
		r.line(`<text x="%s" y="%s" text-anchor="middle"%s>%s</text>`,
			r.coord(box.CenterX), r.coord(baseline), styleAttr, escape(line))
	}
}

func (r *renderer) constituentBox(a layout.Annotation) {
	bounds, err := r.layout.SubtreeBounds(a.Addr)
	if err != nil {
		// recorded annotations were validated; a miss here is unreachable
		return
	}
	r.line(`<rect x="%s" y="%s" width="%s" height="%s" rx="%g" ry="%g" stroke="none" fill="gray" fill-opacity="0.15" />`,
		r.coord(bounds.X), r.coord(bounds.Y), r.coord(bounds.W), r.coord(bounds.H),
		r.px(0.5), r.px(0.5))
}

func (r *renderer) constituentUnderline(a layout.Annotation) {
	bounds, err := r.layout.SubtreeBounds(a.Addr)
	if err != nil {
		return
	}
	y := bounds.Y + bounds.H
	r.line(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="black" shape-rendering="crispEdges" />`,
		r.coord(bounds.X), r.coord(y), r.coord(bounds.X+bounds.W), r.coord(y))
}

// arrow draws one movement arrow: down from the source's lower edge, across
// the reserved row, and up into the target's lower edge, with a small
// arrowhead. Polyline points carry no units, so these are always user
// units.
func (r *renderer) arrow(a layout.Annotation) {
	sb, err := r.layout.SubtreeBounds(a.From)
	if err != nil {
		return
	}
	db, err := r.layout.SubtreeBounds(a.To)
	if err != nil {
		return
	}

	x1, y1 := r.px(sb.X+sb.W/2), r.px(sb.Y+sb.H)
	x2, y2 := r.px(db.X+db.W/2), r.px(db.Y+db.H)
	routeY := r.px(a.RouteY)
	headDY := r.px(0.45)

	r.line(`<polyline points="%g,%g %g,%g %g,%g %g,%g" fill="none" stroke="black" shape-rendering="crispEdges" />`,
		x1, y1, x1, routeY, x2, routeY, x2, y2+headDY)
	r.line(`<polyline points="%g,%g %g,%g %g,%g" fill="black" stroke="none" />`,
		x2+3, y2+headDY, x2, y2, x2-3, y2+headDY)
}

// escape XML-escapes text content and attribute values.
func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
