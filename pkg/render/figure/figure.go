// Package figure composes finished diagrams into larger figures.
//
// Composition is purely geometric: each input diagram is wrapped in a
// translated coordinate group and positioned by its reported pixel extent.
// The layout engine is never re-run, and the input markup is embedded
// untouched.
package figure

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"

	"github.com/phrasal/phrasal/pkg/render/sink"
)

const (
	defaultPaddingPx  = 16
	captionFontSizePx = 16
)

// Option adjusts composition geometry.
type Option func(*settings)

type settings struct {
	padding float64
}

// WithPadding sets the gap between composed panels in pixels.
func WithPadding(px float64) Option {
	return func(s *settings) { s.padding = px }
}

func apply(opts []Option) settings {
	s := settings{padding: defaultPaddingPx}
	for _, o := range opts {
		o(&s)
	}
	return s
}

// SideBySide arranges diagrams left to right with fixed spacing, aligned on
// a common bottom baseline.
func SideBySide(diagrams []sink.Diagram, opts ...Option) sink.Diagram {
	s := apply(opts)
	var width, height float64
	for i, d := range diagrams {
		if i > 0 {
			width += s.padding
		}
		width += d.Width
		if d.Height > height {
			height = d.Height
		}
	}

	var buf bytes.Buffer
	openCanvas(&buf, width, height)
	x := 0.0
	for i, d := range diagrams {
		if i > 0 {
			x += s.padding
		}
		panel(&buf, d, x, height-d.Height)
		x += d.Width
	}
	closeCanvas(&buf)
	return sink.Diagram{SVG: buf.Bytes(), Width: width, Height: height}
}

// RowByRow stacks diagrams top to bottom with fixed spacing, each row
// aligned to the left edge. Rows are typically SideBySide compositions.
func RowByRow(diagrams []sink.Diagram, opts ...Option) sink.Diagram {
	s := apply(opts)
	var width, height float64
	for i, d := range diagrams {
		if i > 0 {
			height += s.padding
		}
		height += d.Height
		if d.Width > width {
			width = d.Width
		}
	}

	var buf bytes.Buffer
	openCanvas(&buf, width, height)
	y := 0.0
	for i, d := range diagrams {
		if i > 0 {
			y += s.padding
		}
		panel(&buf, d, 0, y)
		y += d.Height
	}
	closeCanvas(&buf)
	return sink.Diagram{SVG: buf.Bytes(), Width: width, Height: height}
}

// Caption appends an italic text block below a diagram and grows the
// bounding box to fit. The caption width is estimated heuristically from
// the glyph count, consistent with how node labels are sized.
func Caption(d sink.Diagram, text string, opts ...Option) sink.Diagram {
	s := apply(opts)

	captionWidth := float64(len([]rune(text))) * captionFontSizePx / 2
	width := d.Width
	if captionWidth > width {
		width = captionWidth
	}
	height := d.Height + s.padding + captionFontSizePx*1.5

	var buf bytes.Buffer
	openCanvas(&buf, width, height)
	panel(&buf, d, (width-d.Width)/2, 0)
	fmt.Fprintf(&buf,
		"<text x=\"%g\" y=\"%g\" text-anchor=\"middle\" style=\"font-family: times, serif; font-style: italic; font-size: %dpx;\">%s</text>\n",
		width/2, d.Height+s.padding+captionFontSizePx, captionFontSizePx, escape(text))
	closeCanvas(&buf)
	return sink.Diagram{SVG: buf.Bytes(), Width: width, Height: height}
}

func openCanvas(buf *bytes.Buffer, width, height float64) {
	fmt.Fprintf(buf, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %g %g\" width=\"%g\" height=\"%g\">\n",
		width, height, width, height)
}

func closeCanvas(buf *bytes.Buffer) {
	buf.WriteString("</svg>\n")
}

// panel embeds a finished diagram as a nested coordinate group. Each panel
// gets a unique id so embedding the same diagram twice, or composing
// figures into one document, cannot produce colliding element ids.
func panel(buf *bytes.Buffer, d sink.Diagram, x, y float64) {
	fmt.Fprintf(buf, "<g id=\"panel-%s\" transform=\"translate(%g,%g)\">\n", uuid.NewString(), x, y)
	buf.Write(stripTrailingNewline(d.SVG))
	buf.WriteString("\n</g>\n")
}

func stripTrailingNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == ' ') {
		b = b[:len(b)-1]
	}
	return b
}

func escape(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
