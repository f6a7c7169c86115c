package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/phrasal/phrasal/pkg/errors"
	"github.com/phrasal/phrasal/pkg/render/figure"
	"github.com/phrasal/phrasal/pkg/render/layout"
	"github.com/phrasal/phrasal/pkg/render/sink"
	"github.com/phrasal/phrasal/pkg/tree"
)

// figureOpts holds the command-line flags for the figure command.
type figureOpts struct {
	output  string  // output file path; empty writes to stdout
	perRow  int     // trees per row; 0 puts everything in one row
	caption string  // optional caption below the composed figure
	padding float64 // gap between panels in px
}

// newFigureCmd creates the figure command for composing several trees into
// one document. Each argument is a file containing one tree literal; panels
// are laid out left to right, wrapping after --per-row trees.
//
//	phrasal figure a.json b.json -o pair.svg
//	phrasal figure *.json --per-row 2 --caption "Derivation steps"
func newFigureCmd() *cobra.Command {
	var opts figureOpts

	cmd := &cobra.Command{
		Use:   "figure [file...]",
		Short: "Compose several trees into one SVG figure",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFigure(cmd.Context(), args, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().IntVar(&opts.perRow, "per-row", 0, "trees per row (default all in one row)")
	cmd.Flags().StringVar(&opts.caption, "caption", "", "caption text below the figure")
	cmd.Flags().Float64Var(&opts.padding, "padding", 16, "gap between panels in px")

	return cmd
}

func runFigure(ctx context.Context, files []string, opts *figureOpts) error {
	logger := loggerFromContext(ctx)
	track := newProgress(logger)

	if opts.perRow < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "per-row must not be negative, got %d", opts.perRow)
	}

	// Panels are repositioned by pixel offsets, so each one is rendered
	// with absolute coordinates regardless of the configured unit mode.
	lo := layout.Defaults()
	lo.Compat = layout.CompatAbsolute

	diagrams := make([]sink.Diagram, 0, len(files))
	for _, f := range files {
		literal, err := loadLiteral([]string{f}, "")
		if err != nil {
			return err
		}
		root, err := tree.Parse(literal)
		if err != nil {
			return errors.Wrap(errors.GetCode(err), err, "%s", f)
		}
		l, err := layout.New(root, lo)
		if err != nil {
			return err
		}
		diagrams = append(diagrams, sink.RenderSVG(l))
	}
	logger.Debugf("Rendered %d panels", len(diagrams))

	pad := figure.WithPadding(opts.padding)
	var d sink.Diagram
	if opts.perRow == 0 || opts.perRow >= len(diagrams) {
		d = figure.SideBySide(diagrams, pad)
	} else {
		var rows []sink.Diagram
		for start := 0; start < len(diagrams); start += opts.perRow {
			end := min(start+opts.perRow, len(diagrams))
			rows = append(rows, figure.SideBySide(diagrams[start:end], pad))
		}
		d = figure.RowByRow(rows, pad)
	}
	if opts.caption != "" {
		d = figure.Caption(d, opts.caption, pad)
	}

	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(d.SVG); err != nil {
		return err
	}

	if opts.output != "" {
		track.done("Composed figure")
		printSuccess("Composed figure from %d trees", len(files))
		printFile(opts.output)
	}
	return nil
}
