package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phrasal/phrasal/pkg/errors"
	"github.com/phrasal/phrasal/pkg/render/layout"
	"github.com/phrasal/phrasal/pkg/render/sink"
	"github.com/phrasal/phrasal/pkg/tree"
)

// drawOpts holds the command-line flags for the draw command.
type drawOpts struct {
	output     string   // output file path; empty writes to stdout
	literal    string   // inline tree literal (alternative to the file arg)
	fontFamily string   // serif, sans, mono, or a raw CSS font-family list
	fontSize   float64  // base font size in px
	spacing    string   // sibling slot proportioning: text, even, nodes
	align      string   // vertical node alignment: center, top, bottom, full
	padding    float64  // horizontal sibling gap in glyph counts
	distance   float64  // vertical level gap in ems
	leafAlign  bool     // force all leaves onto the deepest row
	noLeafEdge bool     // suppress terminal edges to leaves
	segmented  bool     // draw multi-level edges as segmented lines
	absolute   bool     // emit absolute pixel coordinates
	markdown   bool     // emit single-line markup safe for Markdown
	triangles  []string // addresses drawn with a triangle connector
	arrows     []string // movement arrows as "from:to" address pairs
	boxes      []string // addresses highlighted with a shaded box
	underlines []string // addresses highlighted with an underline
}

// newDrawCmd creates the draw command for rendering a single tree.
//
// The tree is written as a bracketed literal, a JSON array whose first
// element is the node label and whose remaining elements are daughters. The
// positional argument may be the literal itself or a file containing one:
//
//	phrasal draw '["S", ["NP", "Mary"], ["VP", "left"]]'
//	phrasal draw sentence.json -o sentence.svg
//	phrasal draw -t '["XP", "who", ["X'", "did", "you", "see"]]' --arrow 1.2:0
func newDrawCmd() *cobra.Command {
	var opts drawOpts

	cmd := &cobra.Command{
		Use:   "draw [tree|file]",
		Short: "Render a constituent tree to SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			literal, err := loadLiteral(args, opts.literal)
			if err != nil {
				return err
			}
			return runDraw(cmd.Context(), literal, &opts)
		},
	}

	defaults := layout.Defaults()
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.literal, "tree", "t", "", "inline tree literal instead of a file")
	cmd.Flags().StringVar(&opts.fontFamily, "font", "", "font family: serif (default), sans, mono, or a CSS list")
	cmd.Flags().Float64Var(&opts.fontSize, "font-size", defaults.FontSize, "base font size in px")
	cmd.Flags().StringVar(&opts.spacing, "spacing", "", "sibling spacing: text (default), even, nodes")
	cmd.Flags().StringVar(&opts.align, "align", "", "vertical alignment: center (default), top, bottom, full")
	cmd.Flags().Float64Var(&opts.padding, "leaf-padding", defaults.LeafPadding, "horizontal sibling gap in glyph counts")
	cmd.Flags().Float64Var(&opts.distance, "distance", defaults.DistanceToDaughter, "vertical level gap in ems")
	cmd.Flags().BoolVar(&opts.leafAlign, "leaf-align", false, "force all leaves onto the deepest row")
	cmd.Flags().BoolVar(&opts.noLeafEdge, "no-leaf-edges", false, "suppress edges to leaf nodes")
	cmd.Flags().BoolVar(&opts.segmented, "segmented", false, "draw multi-level edges as segmented lines")
	cmd.Flags().BoolVar(&opts.absolute, "absolute", false, "emit absolute pixel coordinates")
	cmd.Flags().BoolVar(&opts.markdown, "markdown", false, "emit single-line markup safe for Markdown")
	cmd.Flags().StringArrayVar(&opts.triangles, "triangle", nil, "draw a triangle connector to this address (repeatable)")
	cmd.Flags().StringArrayVar(&opts.arrows, "arrow", nil, "movement arrow as from:to addresses (repeatable)")
	cmd.Flags().StringArrayVar(&opts.boxes, "box", nil, "shade the constituent at this address (repeatable)")
	cmd.Flags().StringArrayVar(&opts.underlines, "underline", nil, "underline the constituent at this address (repeatable)")

	return cmd
}

// loadLiteral resolves the tree literal from an inline flag, a positional
// argument, or stdin when the argument is "-". A positional argument that
// opens like a tree literal is taken verbatim; anything else is read as a
// file path.
func loadLiteral(args []string, inline string) (string, error) {
	if inline != "" {
		if len(args) > 0 {
			return "", errors.New(errors.ErrCodeInvalidOption, "pass either a tree argument or --tree, not both")
		}
		return inline, nil
	}
	if len(args) == 0 {
		return "", errors.New(errors.ErrCodeInvalidOption, "no tree given: pass a tree literal, a file, or --tree")
	}
	if args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInputShape, err, "read stdin")
		}
		return string(data), nil
	}
	if t := strings.TrimSpace(args[0]); strings.HasPrefix(t, "[") || strings.HasPrefix(t, `"`) {
		return args[0], nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInputShape, err, "read %s", args[0])
	}
	return string(data), nil
}

// layoutOptions translates draw flags into layout options, starting from
// the process-wide defaults (which a --config file may have replaced).
func layoutOptions(opts *drawOpts) (layout.Options, error) {
	lo := layout.Defaults()
	if opts.fontFamily != "" {
		lo.FontFamily = resolveFamily(opts.fontFamily)
	}
	lo.FontSize = opts.fontSize
	lo.LeafPadding = opts.padding
	lo.DistanceToDaughter = opts.distance
	if opts.spacing != "" {
		v, err := parseSpacing(opts.spacing)
		if err != nil {
			return layout.Options{}, err
		}
		lo.HorizSpacing = v
	}
	if opts.align != "" {
		v, err := parseAlign(opts.align)
		if err != nil {
			return layout.Options{}, err
		}
		lo.VertAlign = v
	}
	if opts.leafAlign {
		lo.LeafNodesAlign = true
	}
	if opts.noLeafEdge {
		lo.LeafEdges = false
	}
	if opts.segmented {
		lo.DescendDirect = false
	}
	if opts.absolute {
		lo.Compat = layout.CompatAbsolute
	}
	if opts.markdown {
		lo.Compat = layout.CompatMarkdown
	}
	return lo, nil
}

// annotate records the annotation flags on a finished layout.
func annotate(l *layout.TreeLayout, opts *drawOpts) error {
	for _, s := range opts.triangles {
		addr, err := tree.ParseAddress(s)
		if err != nil {
			return err
		}
		if err := l.SetEdgeStyle(addr, layout.EdgeTriangle); err != nil {
			return err
		}
	}
	for _, s := range opts.arrows {
		from, to, ok := strings.Cut(s, ":")
		if !ok {
			return errors.New(errors.ErrCodeInvalidOption, "invalid arrow %q: want from:to", s)
		}
		fromAddr, err := tree.ParseAddress(from)
		if err != nil {
			return err
		}
		toAddr, err := tree.ParseAddress(to)
		if err != nil {
			return err
		}
		if err := l.MovementArrow(fromAddr, toAddr); err != nil {
			return err
		}
	}
	for _, s := range opts.boxes {
		addr, err := tree.ParseAddress(s)
		if err != nil {
			return err
		}
		if err := l.BoxConstituent(addr); err != nil {
			return err
		}
	}
	for _, s := range opts.underlines {
		addr, err := tree.ParseAddress(s)
		if err != nil {
			return err
		}
		if err := l.UnderlineConstituent(addr); err != nil {
			return err
		}
	}
	return nil
}

func runDraw(ctx context.Context, literal string, opts *drawOpts) error {
	logger := loggerFromContext(ctx)
	track := newProgress(logger)

	root, err := tree.Parse(literal)
	if err != nil {
		return err
	}

	lo, err := layoutOptions(opts)
	if err != nil {
		return err
	}
	l, err := layout.New(root, lo)
	if err != nil {
		return err
	}
	if err := annotate(l, opts); err != nil {
		return err
	}

	d := sink.RenderSVG(l)
	logger.Debugf("Generated SVG: %d bytes, %gx%g px", len(d.SVG), d.Width, d.Height)

	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(d.SVG); err != nil {
		return err
	}

	if opts.output != "" {
		track.done("Rendered tree")
		printSuccess("Rendered tree")
		printFile(opts.output)
	}
	return nil
}

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
