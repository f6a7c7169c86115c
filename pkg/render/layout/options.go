// Package layout computes the geometry of a constituent-tree diagram.
//
// The engine is a deterministic, single-pass pipeline over a normalized
// [tree.Node]: a bottom-up sizing pass assigns every label an estimated box
// (no real font measurement ever happens, see [Estimator]), then a top-down
// placement pass assigns absolute positions, producing a [TreeLayout] of
// node boxes and edges. Annotations (movement arrows, constituent boxes and
// underlines, style overrides) are recorded against node addresses on the
// finished layout and resolved against geometry only at emission time.
//
// All internal distances are in ems, relative to the base font size; the
// emitter decides whether output coordinates stay relative or are converted
// to absolute pixels.
package layout

import (
	"fmt"
	"strings"

	"github.com/phrasal/phrasal/pkg/errors"
)

// HorizSpacing selects how sibling slots are proportioned.
type HorizSpacing int

const (
	// SpacingText sizes sibling slots by estimated label width (default).
	SpacingText HorizSpacing = iota
	// SpacingEven gives every sibling an equal slot.
	SpacingEven
	// SpacingNodes sizes slots by the number of leaves underneath.
	SpacingNodes
)

// VertAlign selects how a node sits within its level's height.
type VertAlign int

const (
	// AlignCenter centers the label within the level height (default).
	AlignCenter VertAlign = iota
	// AlignTop aligns the label with the top of the level.
	AlignTop
	// AlignBottom aligns the label with the bottom of the level.
	AlignBottom
	// AlignFull stretches every node to the full level height.
	AlignFull
)

// EdgeVariant is the drawing style of a parent-child connector.
type EdgeVariant int

const (
	// EdgePlain draws a single straight line.
	EdgePlain EdgeVariant = iota
	// EdgeTriangle draws a filled-outline triangle spanning the child label,
	// conventionally used to indicate elided structure.
	EdgeTriangle
)

// CompatMode trades strict unit fidelity for broader tool support.
type CompatMode int

const (
	// CompatNone emits output per the RelativeUnits option.
	CompatNone CompatMode = iota
	// CompatAbsolute forces absolute pixel coordinates, for editors that
	// mishandle relative units inside nested coordinate groups.
	CompatAbsolute
	// CompatMarkdown forces absolute pixels and single-line, fully escaped
	// markup safe to inline in Markdown documents.
	CompatMarkdown
)

// TextStyle is the resolved text appearance of one node.
type TextStyle struct {
	Family string  // CSS font-family list, e.g. "times, serif"
	Weight string  // CSS font-weight, e.g. "normal", "bold"
	Slant  string  // CSS font-style, e.g. "normal", "italic"
	Size   float64 // font size in px (defines 1em)
	Color  string  // CSS fill color, empty inherits
	Stroke string  // CSS stroke, empty inherits
}

// CSS renders the style as a CSS declaration list, including font size.
func (s TextStyle) CSS() string {
	var b strings.Builder
	fmt.Fprintf(&b, "font-family: %s; font-weight: %s; font-style: %s; font-size: %gpx;",
		s.Family, s.Weight, s.Slant, s.Size)
	if s.Color != "" {
		fmt.Fprintf(&b, " fill: %s;", s.Color)
	}
	if s.Stroke != "" {
		fmt.Fprintf(&b, " stroke: %s;", s.Stroke)
	}
	return b.String()
}

// StylePatch is a partial text style; zero-valued fields are left unchanged
// when the patch is applied. Multiple patches to the same address compose by
// later-wins field merge.
type StylePatch struct {
	Family string
	Weight string
	Slant  string
	Size   float64
	Color  string
	Stroke string
}

// Apply merges the patch onto a style, returning the merged style.
func (p StylePatch) Apply(s TextStyle) TextStyle {
	if p.Family != "" {
		s.Family = p.Family
	}
	if p.Weight != "" {
		s.Weight = p.Weight
	}
	if p.Slant != "" {
		s.Slant = p.Slant
	}
	if p.Size != 0 {
		s.Size = p.Size
	}
	if p.Color != "" {
		s.Color = p.Color
	}
	if p.Stroke != "" {
		s.Stroke = p.Stroke
	}
	return s
}

// Common font family values. AverageGlyphWidth is calibrated against the
// serif and sans families; monospace fonts run wider.
const (
	FamilySerif = "times, serif"
	FamilySans  = "Arial, Helvetica, sans-serif"
	FamilyMono  = `"Lucida Console", Monaco, monospace`
)

// Options configures a single draw call. Values are copied, never shared by
// reference, across draw calls; mutating an Options after building a layout
// has no effect on that layout.
type Options struct {
	// FontFamily is the CSS font-family for node labels.
	FontFamily string
	// FontSize is the base font size in px; it defines how many px are in
	// one em and therefore scales the whole diagram in absolute mode.
	FontSize float64
	// FontWeight and FontSlant are CSS font-weight / font-style values.
	FontWeight string
	FontSlant  string
	// TextColor and TextStroke set label fill and stroke; empty inherits.
	TextColor  string
	TextStroke string

	// HorizSpacing selects the sibling slot proportioning scheme.
	HorizSpacing HorizSpacing
	// VertAlign selects vertical node alignment within a level.
	VertAlign VertAlign
	// LeafPadding is the horizontal gap between sibling subtrees, in glyph
	// counts (relative to AverageGlyphWidth).
	LeafPadding float64
	// DistanceToDaughter is the vertical gap between levels in ems,
	// excluding node heights.
	DistanceToDaughter float64
	// LeafNodesAlign forces all leaves onto the deepest level's row;
	// edges to structurally shallower leaves are stretched.
	LeafNodesAlign bool
	// LeafEdges controls whether the terminal edge segment to each leaf is
	// drawn at all.
	LeafEdges bool
	// DescendDirect draws multi-level edges as one straight segment; when
	// false they render as a segmented line, diagonal only at the first
	// level.
	DescendDirect bool
	// EdgeStyle is the default connector variant.
	EdgeStyle EdgeVariant

	// AverageGlyphWidth is the fallback text-width heuristic in glyphs per
	// em, used for characters absent from the estimator's width table.
	AverageGlyphWidth float64
	// Estimator overrides the text metrics strategy; nil uses the built-in
	// width-table estimator.
	Estimator Estimator

	// RelativeUnits emits coordinates in device-independent em units;
	// when false, coordinates are absolute px.
	RelativeUnits bool
	// Compat selects an output compatibility mode; any mode other than
	// CompatNone overrides RelativeUnits.
	Compat CompatMode
}

// TextStyle returns the base text style described by the options.
func (o Options) TextStyle() TextStyle {
	return TextStyle{
		Family: o.FontFamily,
		Weight: o.FontWeight,
		Slant:  o.FontSlant,
		Size:   o.FontSize,
		Color:  o.TextColor,
		Stroke: o.TextStroke,
	}
}

// GapEm is the horizontal gap between sibling slots in ems.
func (o Options) GapEm() float64 {
	return o.LeafPadding / o.AverageGlyphWidth
}

// Validate checks option values that would corrupt layout arithmetic.
func (o Options) Validate() error {
	if o.FontSize <= 0 {
		return errors.New(errors.ErrCodeInvalidOption, "font size must be positive, got %g", o.FontSize)
	}
	if o.AverageGlyphWidth <= 0 {
		return errors.New(errors.ErrCodeInvalidOption, "average glyph width must be positive, got %g", o.AverageGlyphWidth)
	}
	if o.LeafPadding < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "leaf padding must not be negative, got %g", o.LeafPadding)
	}
	if o.DistanceToDaughter < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "distance to daughter must not be negative, got %g", o.DistanceToDaughter)
	}
	return nil
}

// baseOptions are the shipped defaults, matching the conventional look for
// this diagram family.
func baseOptions() Options {
	return Options{
		FontFamily:         FamilySerif,
		FontSize:           16,
		FontWeight:         "normal",
		FontSlant:          "normal",
		HorizSpacing:       SpacingText,
		VertAlign:          AlignCenter,
		LeafPadding:        2,
		DistanceToDaughter: 2,
		LeafEdges:          true,
		DescendDirect:      true,
		EdgeStyle:          EdgePlain,
		AverageGlyphWidth:  2.0,
		RelativeUnits:      true,
	}
}

// defaultOptions is the process-wide default. It is deliberately a plain
// package variable: callers that need concurrent independent renders must
// pass explicit Options rather than mutating the shared default.
var defaultOptions = baseOptions()

// Defaults returns a copy of the process-wide default options.
func Defaults() Options { return defaultOptions }

// SetDefaults replaces the process-wide default options.
func SetDefaults(o Options) { defaultOptions = o }

// ResetDefaults restores the shipped default options.
func ResetDefaults() { defaultOptions = baseOptions() }
