package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"

	"github.com/phrasal/phrasal/pkg/errors"
	"github.com/phrasal/phrasal/pkg/render/layout"
)

func TestMergeConfig(t *testing.T) {
	var cfg fileConfig
	_, err := toml.Decode(`
font-family = "sans"
font-size = 14.0
leaf-padding = 3.0
horiz-spacing = "even"
vert-align = "top"
leaf-nodes-align = true
relative-units = false
`, &cfg)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	opts := layout.Defaults()
	if err := mergeConfig(&opts, cfg); err != nil {
		t.Fatalf("mergeConfig() error: %v", err)
	}

	if opts.FontFamily != layout.FamilySans {
		t.Errorf("FontFamily = %q", opts.FontFamily)
	}
	if opts.FontSize != 14 || opts.LeafPadding != 3 {
		t.Errorf("FontSize = %g, LeafPadding = %g", opts.FontSize, opts.LeafPadding)
	}
	if opts.HorizSpacing != layout.SpacingEven || opts.VertAlign != layout.AlignTop {
		t.Errorf("spacing = %v, align = %v", opts.HorizSpacing, opts.VertAlign)
	}
	if !opts.LeafNodesAlign || opts.RelativeUnits {
		t.Errorf("bools not applied: %+v", opts)
	}
	// unset keys keep their defaults
	if opts.DistanceToDaughter != 2 {
		t.Errorf("DistanceToDaughter = %g, want default 2", opts.DistanceToDaughter)
	}
}

func TestMergeConfig_BadEnum(t *testing.T) {
	var cfg fileConfig
	if _, err := toml.Decode(`horiz-spacing = "diagonal"`, &cfg); err != nil {
		t.Fatal(err)
	}
	opts := layout.Defaults()
	err := mergeConfig(&opts, cfg)
	if !errors.Is(err, errors.ErrCodeInvalidOption) {
		t.Errorf("mergeConfig() error = %v, want INVALID_OPTION", err)
	}
}

func TestApplyConfig_File(t *testing.T) {
	defer layout.ResetDefaults()

	path := filepath.Join(t.TempDir(), "phrasal.toml")
	if err := os.WriteFile(path, []byte("font-size = 20.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := applyConfig(t.Context(), path); err != nil {
		t.Fatalf("applyConfig() error: %v", err)
	}
	if got := layout.Defaults().FontSize; got != 20 {
		t.Errorf("FontSize = %g, want 20 from config", got)
	}
}

func TestApplyConfig_InvalidValue(t *testing.T) {
	defer layout.ResetDefaults()

	path := filepath.Join(t.TempDir(), "phrasal.toml")
	if err := os.WriteFile(path, []byte("font-size = -4.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := applyConfig(t.Context(), path)
	if !errors.Is(err, errors.ErrCodeInvalidOption) {
		t.Errorf("applyConfig() error = %v, want INVALID_OPTION", err)
	}
}

func TestApplyConfig_EmptyPath(t *testing.T) {
	if err := applyConfig(t.Context(), ""); err != nil {
		t.Errorf("applyConfig(\"\") error: %v", err)
	}
}

func TestResolveFamily(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"serif", layout.FamilySerif},
		{"sans", layout.FamilySans},
		{"Sans-Serif", layout.FamilySans},
		{"mono", layout.FamilyMono},
		{"Futura, sans-serif", "Futura, sans-serif"}, // raw CSS passes through
	}
	for _, tt := range tests {
		if got := resolveFamily(tt.in); got != tt.want {
			t.Errorf("resolveFamily(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseSpacing(t *testing.T) {
	for in, want := range map[string]layout.HorizSpacing{
		"text": layout.SpacingText, "even": layout.SpacingEven, "nodes": layout.SpacingNodes,
	} {
		got, err := parseSpacing(in)
		if err != nil || got != want {
			t.Errorf("parseSpacing(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := parseSpacing("spiral"); !errors.Is(err, errors.ErrCodeInvalidOption) {
		t.Errorf("parseSpacing(bad) error = %v, want INVALID_OPTION", err)
	}
}

func TestParseAlign(t *testing.T) {
	for in, want := range map[string]layout.VertAlign{
		"center": layout.AlignCenter, "top": layout.AlignTop,
		"bottom": layout.AlignBottom, "full": layout.AlignFull,
	} {
		got, err := parseAlign(in)
		if err != nil || got != want {
			t.Errorf("parseAlign(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := parseAlign("sideways"); !errors.Is(err, errors.ErrCodeInvalidOption) {
		t.Errorf("parseAlign(bad) error = %v, want INVALID_OPTION", err)
	}
}
