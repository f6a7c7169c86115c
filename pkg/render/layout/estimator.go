package layout

import (
	"strings"

	"github.com/phrasal/phrasal/pkg/tree"
)

// Estimator estimates text extent without a rendering surface. The layout
// engine must work headless and before any device exists to measure
// against, so estimates are heuristic and deterministic; implementations
// must be pure functions of their arguments.
type Estimator interface {
	// LineWidth estimates the width of a single line of text in ems.
	LineWidth(line string, style TextStyle) float64
	// LineHeight returns the line-height constant in ems.
	LineHeight(style TextStyle) float64
}

// WidthTable maps runes to estimated glyph widths in ems.
type WidthTable map[rune]float64

// TableEstimator estimates line widths by summing per-character widths from
// a table selected by font family, falling back to a fixed average glyph
// width for unknown characters and unknown families.
//
// The table values are inherently approximate; there is no canonical set
// across fonts and devices. Callers with unusual fonts should supply their
// own tables, or their own [Estimator] entirely.
type TableEstimator struct {
	// Tables maps a font family keyword ("serif", "sans-serif",
	// "monospace") to its width table.
	Tables map[string]WidthTable
	// AverageGlyphWidth is the fallback heuristic in glyphs per em.
	AverageGlyphWidth float64
	// LineHeightEm is the height of one text line in ems.
	LineHeightEm float64
}

// proportional width classes shared by the serif and sans tables.
const (
	glyphNarrow = 0.30
	glyphMedium = 0.50
	glyphWide   = 0.82
	glyphMono   = 0.62
)

// classTable assigns narrow and wide glyph classes; everything else falls
// back to the estimator's average width (glyphMedium for the shipped
// tables).
func classTable(narrow, wide float64) WidthTable {
	t := WidthTable{}
	for _, r := range `iIl.,:;'|!jft()[]- ` {
		t[r] = narrow
	}
	for _, r := range "mwMW@" {
		t[r] = wide
	}
	return t
}

// NewTableEstimator builds the default estimator with serif, sans-serif,
// and monospace tables.
func NewTableEstimator(avgGlyphWidth float64) TableEstimator {
	return TableEstimator{
		Tables: map[string]WidthTable{
			"serif":      classTable(glyphNarrow, glyphWide),
			"sans-serif": classTable(glyphNarrow, glyphWide),
			// fixed-pitch: every rune has the same advance
			"monospace": {},
		},
		AverageGlyphWidth: avgGlyphWidth,
		LineHeightEm:      1.0,
	}
}

// LineWidth implements [Estimator].
func (e TableEstimator) LineWidth(line string, style TextStyle) float64 {
	table, monospace := e.tableFor(style.Family)
	fallback := 1.0 / e.AverageGlyphWidth
	if monospace {
		fallback = glyphMono
	}
	var w float64
	for _, r := range line {
		if g, ok := table[r]; ok {
			w += g
		} else {
			w += fallback
		}
	}
	return w
}

// LineHeight implements [Estimator].
func (e TableEstimator) LineHeight(TextStyle) float64 { return e.LineHeightEm }

func (e TableEstimator) tableFor(family string) (WidthTable, bool) {
	lower := strings.ToLower(family)
	if strings.Contains(lower, "monospace") || strings.Contains(lower, "mono") {
		return e.Tables["monospace"], true
	}
	if strings.Contains(lower, "sans") {
		return e.Tables["sans-serif"], false
	}
	return e.Tables["serif"], false
}

// labelExtent returns the estimated width and height of a possibly
// multi-line label, in ems. A multi-line label is as wide as its widest
// line; an empty label has zero extent, which is what makes empty
// placeholder nodes layout-transparent.
func labelExtent(est Estimator, label string, style TextStyle) (w, h float64) {
	lines := tree.SplitLabel(label)
	for _, line := range lines {
		w = max(w, est.LineWidth(line, style))
	}
	return w, float64(len(lines)) * est.LineHeight(style)
}
