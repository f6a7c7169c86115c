package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/phrasal/phrasal/pkg/errors"
	"github.com/phrasal/phrasal/pkg/render/nodelink"
	"github.com/phrasal/phrasal/pkg/tree"
)

// dotOpts holds the command-line flags for the dot command.
type dotOpts struct {
	output    string // output file path; empty writes to stdout
	literal   string // inline tree literal
	format    string // output format: dot or svg
	addresses bool   // include tree addresses in node labels
}

// newDotCmd creates the dot command for structural node-link views. Unlike
// draw, this ignores all linguistic layout conventions and shows raw tree
// shape, which is handy when working out annotation addresses.
func newDotCmd() *cobra.Command {
	var opts dotOpts

	cmd := &cobra.Command{
		Use:   "dot [file]",
		Short: "Emit a Graphviz node-link view of a tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			literal, err := loadLiteral(args, opts.literal)
			if err != nil {
				return err
			}
			return runDot(cmd.Context(), literal, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.literal, "tree", "t", "", "inline tree literal instead of a file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "dot", "output format: dot (default), svg")
	cmd.Flags().BoolVar(&opts.addresses, "addresses", false, "include tree addresses in node labels")

	return cmd
}

func runDot(ctx context.Context, literal string, opts *dotOpts) error {
	logger := loggerFromContext(ctx)

	root, err := tree.Parse(literal)
	if err != nil {
		return err
	}

	dot := nodelink.ToDOT(root, nodelink.Options{Addresses: opts.addresses})

	var data []byte
	switch opts.format {
	case "dot":
		data = []byte(dot)
	case "svg":
		data, err = nodelink.RenderSVG(dot)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternalLayout, err, "render node-link view")
		}
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %s (must be 'dot' or 'svg')", opts.format)
	}
	logger.Debugf("Generated %s: %d bytes", opts.format, len(data))

	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(data); err != nil {
		return err
	}

	if opts.output != "" {
		printFile(opts.output)
	}
	return nil
}
