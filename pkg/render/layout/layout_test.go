package layout

import (
	"math"
	"testing"

	"github.com/phrasal/phrasal/pkg/errors"
	"github.com/phrasal/phrasal/pkg/tree"
)

const tol = 1e-6

func near(a, b float64) bool { return math.Abs(a-b) < tol }

func mustLayout(t *testing.T, root *tree.Node, opts Options) *TreeLayout {
	t.Helper()
	l, err := New(root, opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return l
}

// flat tree: S over two leaves
func flatTree() *tree.Node {
	return tree.New("S", tree.New("NP"), tree.New("VP"))
}

// two-level tree: TP over NP(D, N) and VP(V)
func deepTree() *tree.Node {
	return tree.New("TP",
		tree.New("NP", tree.New("D"), tree.New("N")),
		tree.New("VP", tree.New("V")),
	)
}

func TestNew_NilTree(t *testing.T) {
	_, err := New(nil, Defaults())
	if !errors.Is(err, errors.ErrCodeInputShape) {
		t.Errorf("New(nil) error = %v, want INPUT_SHAPE", err)
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	opts := Defaults()
	opts.FontSize = 0
	_, err := New(flatTree(), opts)
	if !errors.Is(err, errors.ErrCodeInvalidOption) {
		t.Errorf("New() error = %v, want INVALID_OPTION", err)
	}
}

func TestLayout_FlatTreeGeometry(t *testing.T) {
	// with the default estimator: S=0.5em, NP=VP=1.0em, gap=1.0em
	l := mustLayout(t, flatTree(), Defaults())

	if !near(l.EmWidth(), 3.0) {
		t.Errorf("EmWidth() = %g, want 3.0", l.EmWidth())
	}

	root, _ := l.Box(tree.Root)
	np, _ := l.Box(tree.Address{0})
	vp, _ := l.Box(tree.Address{1})
	if !near(root.CenterX, 1.5) {
		t.Errorf("root CenterX = %g, want 1.5", root.CenterX)
	}
	if !near(np.CenterX, 0.5) || !near(vp.CenterX, 2.5) {
		t.Errorf("leaf centers = %g, %g, want 0.5, 2.5", np.CenterX, vp.CenterX)
	}
	if root.Depth != 0 || np.Depth != 1 || vp.Depth != 1 {
		t.Errorf("depths = %d, %d, %d, want 0, 1, 1", root.Depth, np.Depth, vp.Depth)
	}
	if !near(np.Y, vp.Y) {
		t.Errorf("sibling leaves at different Y: %g vs %g", np.Y, vp.Y)
	}
	if np.Y <= root.Bottom() {
		t.Error("child row must start below the parent's lower edge")
	}
}

func TestLayout_RootSpansChildrenPlusGaps(t *testing.T) {
	for name, root := range map[string]*tree.Node{
		"flat": flatTree(),
		"deep": deepTree(),
	} {
		l := mustLayout(t, root, Defaults())
		var childSum float64
		for i := 0; i < root.NumChildren(); i++ {
			b, err := l.SubtreeBounds(tree.Address{i})
			if err != nil {
				t.Fatalf("%s: SubtreeBounds: %v", name, err)
			}
			childSum += b.W - 2*annotationMargin
		}
		gaps := float64(root.NumChildren()-1) * l.Options().GapEm()
		if l.EmWidth()+tol < childSum+gaps {
			t.Errorf("%s: root span %g < children %g + gaps %g",
				name, l.EmWidth(), childSum, gaps)
		}
	}
}

func TestLayout_LeafCentersStrictlyIncrease(t *testing.T) {
	l := mustLayout(t, deepTree(), Defaults())
	prev := math.Inf(-1)
	for _, leaf := range l.Root().LeafAddresses() {
		b, _ := l.Box(leaf)
		if b.CenterX <= prev {
			t.Fatalf("leaf %s center %g does not increase past %g", leaf, b.CenterX, prev)
		}
		prev = b.CenterX
	}
}

func TestLayout_DeepTreeSlots(t *testing.T) {
	// NP subtree spans 2.0em, VP 1.0em; slots are proportional
	l := mustLayout(t, deepTree(), Defaults())

	if !near(l.EmWidth(), 4.0) {
		t.Fatalf("EmWidth() = %g, want 4.0", l.EmWidth())
	}
	np, _ := l.Box(tree.Address{0})
	vp, _ := l.Box(tree.Address{1})
	if !near(np.CenterX, 1.0) {
		t.Errorf("NP CenterX = %g, want 1.0", np.CenterX)
	}
	if !near(vp.CenterX, 3.5) {
		t.Errorf("VP CenterX = %g, want 3.5", vp.CenterX)
	}
}

func TestLayout_LevelYs(t *testing.T) {
	// every level is one line high, levels are 2em apart
	l := mustLayout(t, deepTree(), Defaults())
	for d, want := range []float64{0, 3, 6} {
		if !near(l.LevelY(d), want) {
			t.Errorf("LevelY(%d) = %g, want %g", d, l.LevelY(d), want)
		}
	}
	if !near(l.EmHeight(), 7.5) {
		t.Errorf("EmHeight() = %g, want 7.5", l.EmHeight())
	}
}

func TestLayout_PixelExtent(t *testing.T) {
	l := mustLayout(t, flatTree(), Defaults())
	if !near(l.Width(), l.EmWidth()*16) || !near(l.Height(), l.EmHeight()*16) {
		t.Errorf("pixel extent %gx%g, em extent %gx%g at 16px/em",
			l.Width(), l.Height(), l.EmWidth(), l.EmHeight())
	}
}

func TestLayout_LeafAlignment(t *testing.T) {
	// "a" is structurally one level up from "b"
	root := tree.New("S", tree.New("a"), tree.New("NP", tree.New("b")))

	opts := Defaults()
	opts.LeafNodesAlign = true
	aligned := mustLayout(t, root, opts)
	a, _ := aligned.Box(tree.Address{0})
	b, _ := aligned.Box(tree.Address{1, 0})
	if !near(a.Y, b.Y) {
		t.Errorf("aligned leaves at %g and %g, want same row", a.Y, b.Y)
	}
	if a.Depth != b.Depth {
		t.Errorf("aligned leaf depths %d and %d", a.Depth, b.Depth)
	}

	opts.LeafNodesAlign = false
	plain := mustLayout(t, root, opts)
	a, _ = plain.Box(tree.Address{0})
	b, _ = plain.Box(tree.Address{1, 0})
	if near(a.Y, b.Y) {
		t.Error("unaligned leaves at different structural depths share a row")
	}
}

func TestLayout_AlignedLeavesShareRow(t *testing.T) {
	opts := Defaults()
	opts.LeafNodesAlign = true
	l := mustLayout(t, deepTree(), opts)

	d, _ := l.Box(tree.Address{0, 0})
	n, _ := l.Box(tree.Address{0, 1})
	v, _ := l.Box(tree.Address{1, 0})
	if !near(d.Y, n.Y) || !near(n.Y, v.Y) {
		t.Errorf("leaf rows %g, %g, %g, want identical", d.Y, n.Y, v.Y)
	}
	np, _ := l.Box(tree.Address{0})
	vp, _ := l.Box(tree.Address{1})
	if near(np.Y, d.Y) || near(vp.Y, d.Y) {
		t.Error("phrase level must sit above the leaf row")
	}
}

func TestLayout_SpacingEven(t *testing.T) {
	opts := Defaults()
	opts.HorizSpacing = SpacingEven
	l := mustLayout(t, deepTree(), opts)
	np, _ := l.Box(tree.Address{0})
	vp, _ := l.Box(tree.Address{1})
	root, _ := l.Box(tree.Root)
	// equal slots are symmetric about the root center
	if !near(root.CenterX-np.CenterX, vp.CenterX-root.CenterX) {
		t.Errorf("even slots not symmetric: %g, %g, %g",
			np.CenterX, root.CenterX, vp.CenterX)
	}
}

func TestLayout_EdgeList(t *testing.T) {
	l := mustLayout(t, deepTree(), Defaults())
	edges := l.Edges()
	if len(edges) != 5 {
		t.Fatalf("got %d edges, want 5", len(edges))
	}
	for _, e := range edges {
		pb, _ := l.Box(e.Parent)
		cb, _ := l.Box(e.Child)
		if !near(e.X1, pb.CenterX) || !near(e.Y1, pb.Bottom()) {
			t.Errorf("edge %s->%s starts at (%g,%g), want parent lower edge", e.Parent, e.Child, e.X1, e.Y1)
		}
		if !near(e.X2, cb.CenterX) || !near(e.Y2, cb.Y) {
			t.Errorf("edge %s->%s ends at (%g,%g), want child upper edge", e.Parent, e.Child, e.X2, e.Y2)
		}
		if e.Y2 <= e.Y1 {
			t.Errorf("edge %s->%s does not descend", e.Parent, e.Child)
		}
	}
}

func TestLayout_NoLeafEdges(t *testing.T) {
	opts := Defaults()
	opts.LeafEdges = false
	l := mustLayout(t, deepTree(), opts)
	for _, e := range l.Edges() {
		n, _ := l.Root().Resolve(e.Child)
		if n.IsLeaf() {
			t.Errorf("edge to leaf %s drawn despite LeafEdges=false", e.Child)
		}
	}
	if len(l.Edges()) != 2 {
		t.Errorf("got %d edges, want 2 (TP->NP, TP->VP)", len(l.Edges()))
	}
}

func TestLayout_TransparentProjectionMerge(t *testing.T) {
	// the empty-label unary node is skipped; one edge spans both levels
	root := tree.New("XP", tree.New("", tree.New("a")))
	l := mustLayout(t, root, Defaults())

	edges := l.Edges()
	if len(edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(edges))
	}
	e := edges[0]
	if e.Child.String() != "0.0" {
		t.Errorf("merged edge ends at %s, want 0.0", e.Child)
	}
	if !e.SkipsLevels {
		t.Error("merged edge should report SkipsLevels")
	}
	if e.BendY != 0 {
		t.Error("direct descent should have no bend")
	}
}

func TestLayout_SegmentedDescent(t *testing.T) {
	root := tree.New("XP", tree.New("", tree.New("a")))
	opts := Defaults()
	opts.DescendDirect = false
	l := mustLayout(t, root, opts)

	e := l.Edges()[0]
	if e.BendY == 0 {
		t.Fatal("segmented multi-level edge should have an elbow")
	}
	if !near(e.BendY, l.LevelY(1)) {
		t.Errorf("elbow at %g, want level 1 top %g", e.BendY, l.LevelY(1))
	}
}

func TestLayout_SetEdgeStyle(t *testing.T) {
	l := mustLayout(t, deepTree(), Defaults())
	if err := l.SetEdgeStyle(tree.Address{0}, EdgeTriangle); err != nil {
		t.Fatalf("SetEdgeStyle() error: %v", err)
	}
	var found bool
	for _, e := range l.Edges() {
		if e.Child.String() == "0" {
			found = true
			if e.Variant != EdgeTriangle {
				t.Error("edge variant not overridden")
			}
			if !near(e.BaseWidth, 1.0) {
				t.Errorf("triangle base width %g, want NP label width 1.0", e.BaseWidth)
			}
		} else if e.Variant != EdgePlain {
			t.Errorf("edge to %s affected by unrelated override", e.Child)
		}
	}
	if !found {
		t.Fatal("edge to 0 missing")
	}

	err := l.SetEdgeStyle(tree.Address{5}, EdgeTriangle)
	if !errors.Is(err, errors.ErrCodeAddressing) {
		t.Errorf("SetEdgeStyle(bad addr) error = %v, want ADDRESSING", err)
	}
}

func TestLayout_SubtreeBounds(t *testing.T) {
	l := mustLayout(t, deepTree(), Defaults())
	b, err := l.SubtreeBounds(tree.Address{0})
	if err != nil {
		t.Fatalf("SubtreeBounds() error: %v", err)
	}
	// NP subtree: D left edge 0.0, N right edge 2.0, NP top 3, leaf bottoms 7.25
	if !near(b.X, -annotationMargin) || !near(b.W, 2.0+2*annotationMargin) {
		t.Errorf("bounds X=%g W=%g", b.X, b.W)
	}
	if !near(b.Y, 3-annotationMargin) || !near(b.H, 4.25+2*annotationMargin) {
		t.Errorf("bounds Y=%g H=%g", b.Y, b.H)
	}

	if _, err := l.SubtreeBounds(tree.Address{3}); !errors.Is(err, errors.ErrCodeAddressing) {
		t.Errorf("SubtreeBounds(bad addr) error = %v, want ADDRESSING", err)
	}
}

func TestLayout_AddressesPreOrder(t *testing.T) {
	l := mustLayout(t, deepTree(), Defaults())
	want := []string{"root", "0", "0.0", "0.1", "1", "1.0"}
	addrs := l.Addresses()
	if len(addrs) != len(want) {
		t.Fatalf("Addresses() = %v, want %v", addrs, want)
	}
	for i, addr := range addrs {
		if addr.String() != want[i] {
			t.Errorf("address %d = %s, want %s", i, addr, want[i])
		}
	}
}

func TestLayout_Determinism(t *testing.T) {
	a := mustLayout(t, deepTree(), Defaults())
	b := mustLayout(t, deepTree(), Defaults())
	for _, addr := range a.Addresses() {
		ba, _ := a.Box(addr)
		bb, _ := b.Box(addr)
		if ba.CenterX != bb.CenterX || ba.Y != bb.Y || ba.Width != bb.Width || ba.Height != bb.Height {
			t.Fatalf("box %s differs across identical runs: %+v vs %+v", addr, ba, bb)
		}
	}
}

func TestDefaults_CopySemantics(t *testing.T) {
	defer ResetDefaults()
	opts := Defaults()
	opts.FontSize = 99
	if Defaults().FontSize == 99 {
		t.Fatal("mutating a Defaults() copy must not change the shared default")
	}
	SetDefaults(opts)
	if Defaults().FontSize != 99 {
		t.Fatal("SetDefaults() did not take effect")
	}
	ResetDefaults()
	if Defaults().FontSize != 16 {
		t.Fatal("ResetDefaults() did not restore shipped defaults")
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero font size", func(o *Options) { o.FontSize = 0 }},
		{"negative glyph width", func(o *Options) { o.AverageGlyphWidth = -1 }},
		{"negative padding", func(o *Options) { o.LeafPadding = -1 }},
		{"negative distance", func(o *Options) { o.DistanceToDaughter = -0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Defaults()
			tt.mutate(&opts)
			if err := opts.Validate(); !errors.Is(err, errors.ErrCodeInvalidOption) {
				t.Errorf("Validate() error = %v, want INVALID_OPTION", err)
			}
		})
	}
	if err := Defaults().Validate(); err != nil {
		t.Errorf("default options invalid: %v", err)
	}
}
