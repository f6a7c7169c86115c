package cli

import (
	"context"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/phrasal/phrasal/pkg/errors"
	"github.com/phrasal/phrasal/pkg/render/layout"
)

// fileConfig mirrors the TOML config file schema. Every field is optional;
// unset fields keep their shipped defaults.
//
//	font-family = "sans"        # serif | sans | mono | raw CSS list
//	font-size = 14.0
//	leaf-padding = 2.0
//	distance-to-daughter = 2.0
//	horiz-spacing = "even"      # text | even | nodes
//	vert-align = "top"          # center | top | bottom | full
//	leaf-nodes-align = true
//	leaf-edges = false
//	descend-direct = false
//	average-glyph-width = 2.2
//	relative-units = false
//	text-color = "darkblue"
type fileConfig struct {
	FontFamily         *string  `toml:"font-family"`
	FontSize           *float64 `toml:"font-size"`
	FontWeight         *string  `toml:"font-weight"`
	FontSlant          *string  `toml:"font-slant"`
	TextColor          *string  `toml:"text-color"`
	TextStroke         *string  `toml:"text-stroke"`
	HorizSpacing       *string  `toml:"horiz-spacing"`
	VertAlign          *string  `toml:"vert-align"`
	LeafPadding        *float64 `toml:"leaf-padding"`
	DistanceToDaughter *float64 `toml:"distance-to-daughter"`
	LeafNodesAlign     *bool    `toml:"leaf-nodes-align"`
	LeafEdges          *bool    `toml:"leaf-edges"`
	DescendDirect      *bool    `toml:"descend-direct"`
	AverageGlyphWidth  *float64 `toml:"average-glyph-width"`
	RelativeUnits      *bool    `toml:"relative-units"`
}

// applyConfig loads a TOML options file, merges it over the shipped
// defaults, and installs the result as the process-wide default so every
// subsequent draw in this invocation starts from it. An empty path is a
// no-op.
func applyConfig(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	logger := loggerFromContext(ctx)

	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOption, err, "load config %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		logger.Warnf("config %s: unknown keys %v", path, undecoded)
	}

	opts := layout.Defaults()
	if err := mergeConfig(&opts, cfg); err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	layout.SetDefaults(opts)
	logger.Debugf("Loaded options from %s", path)
	return nil
}

func mergeConfig(opts *layout.Options, cfg fileConfig) error {
	if cfg.FontFamily != nil {
		opts.FontFamily = resolveFamily(*cfg.FontFamily)
	}
	if cfg.FontSize != nil {
		opts.FontSize = *cfg.FontSize
	}
	if cfg.FontWeight != nil {
		opts.FontWeight = *cfg.FontWeight
	}
	if cfg.FontSlant != nil {
		opts.FontSlant = *cfg.FontSlant
	}
	if cfg.TextColor != nil {
		opts.TextColor = *cfg.TextColor
	}
	if cfg.TextStroke != nil {
		opts.TextStroke = *cfg.TextStroke
	}
	if cfg.HorizSpacing != nil {
		v, err := parseSpacing(*cfg.HorizSpacing)
		if err != nil {
			return err
		}
		opts.HorizSpacing = v
	}
	if cfg.VertAlign != nil {
		v, err := parseAlign(*cfg.VertAlign)
		if err != nil {
			return err
		}
		opts.VertAlign = v
	}
	if cfg.LeafPadding != nil {
		opts.LeafPadding = *cfg.LeafPadding
	}
	if cfg.DistanceToDaughter != nil {
		opts.DistanceToDaughter = *cfg.DistanceToDaughter
	}
	if cfg.LeafNodesAlign != nil {
		opts.LeafNodesAlign = *cfg.LeafNodesAlign
	}
	if cfg.LeafEdges != nil {
		opts.LeafEdges = *cfg.LeafEdges
	}
	if cfg.DescendDirect != nil {
		opts.DescendDirect = *cfg.DescendDirect
	}
	if cfg.AverageGlyphWidth != nil {
		opts.AverageGlyphWidth = *cfg.AverageGlyphWidth
	}
	if cfg.RelativeUnits != nil {
		opts.RelativeUnits = *cfg.RelativeUnits
	}
	return nil
}

// resolveFamily maps the shorthand family names to their CSS lists; any
// other value passes through as a raw CSS font-family list.
func resolveFamily(s string) string {
	switch strings.ToLower(s) {
	case "serif":
		return layout.FamilySerif
	case "sans", "sans-serif":
		return layout.FamilySans
	case "mono", "monospace":
		return layout.FamilyMono
	}
	return s
}

func parseSpacing(s string) (layout.HorizSpacing, error) {
	switch strings.ToLower(s) {
	case "text":
		return layout.SpacingText, nil
	case "even":
		return layout.SpacingEven, nil
	case "nodes":
		return layout.SpacingNodes, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidOption, "invalid horiz-spacing %q (must be 'text', 'even', or 'nodes')", s)
}

func parseAlign(s string) (layout.VertAlign, error) {
	switch strings.ToLower(s) {
	case "center":
		return layout.AlignCenter, nil
	case "top":
		return layout.AlignTop, nil
	case "bottom":
		return layout.AlignBottom, nil
	case "full":
		return layout.AlignFull, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidOption, "invalid vert-align %q (must be 'center', 'top', 'bottom', or 'full')", s)
}
