package layout

import (
	"github.com/phrasal/phrasal/pkg/errors"
	"github.com/phrasal/phrasal/pkg/tree"
)

const (
	eps = 1e-9

	// descenderMargin leaves room under a label for glyph descenders before
	// an edge starts.
	descenderMargin = 0.25
	// annotationMargin pads the lower edge of subtree bounds so constituent
	// boxes and underlines clear the text.
	annotationMargin = 0.25
	// baseClearance is the minimum empty space kept under the deepest
	// level.
	baseClearance = 0.5
)

// NodeBox is the computed geometry for one node. All distances are in ems.
type NodeBox struct {
	Addr       tree.Address
	Label      string
	Width      float64 // estimated content width
	Height     float64 // estimated content height (line count based)
	LineHeight float64 // height of one text line
	CenterX    float64 // horizontal center, from the diagram's left edge
	Y          float64 // top offset, from the diagram's top edge
	Depth      int     // level index after any leaf alignment reassignment
	Style      TextStyle
}

// Bottom returns the lower edge of the box including descender room.
func (b NodeBox) Bottom() float64 {
	if b.Height <= 0 {
		return b.Y
	}
	return b.Y + b.Height + descenderMargin
}

// Left and Right are the horizontal extents of the label box.
func (b NodeBox) Left() float64  { return b.CenterX - b.Width/2 }
func (b NodeBox) Right() float64 { return b.CenterX + b.Width/2 }

// Edge is a drawable connector between a parent box and a child box. When
// intermediate empty-label structure was elided, Child is the further
// endpoint and SkipsLevels is set.
type Edge struct {
	Parent tree.Address
	Child  tree.Address

	Variant     EdgeVariant
	SkipsLevels bool

	X1, Y1 float64 // parent lower edge center
	X2, Y2 float64 // child upper edge center
	// BendY is the y of the elbow for segmented multi-level descents;
	// zero when the edge descends directly.
	BendY float64
	// BaseWidth is the child label width, the base of the triangle variant.
	BaseWidth float64
}

// Rect is an axis-aligned rectangle in ems.
type Rect struct {
	X, Y, W, H float64
}

type sizing struct {
	subtree float64 // full subtree span including internal gaps
	leaves  int
}

// TreeLayout is the finished geometry of one draw call: the normalized tree,
// a box per node address, the edge list, and any annotations recorded so
// far. It is built once, optionally annotated, then rendered; rendering does
// not mutate it. A TreeLayout is owned by the draw call that created it and
// is not safe for concurrent use.
type TreeLayout struct {
	root *tree.Node
	opts Options
	est  Estimator

	boxes        map[string]*NodeBox
	order        []tree.Address
	edges        []Edge
	sizes        map[string]sizing
	levelHeights []float64
	levelY       []float64
	maxDepth     int
	width        float64 // ems
	extraY       float64 // clearance below the deepest level, ems

	annotations   []Annotation
	arrowRows     []arrowRow
	styleOverride map[string][]StylePatch
	edgeOverride  map[string]EdgeVariant
}

// New builds the layout for a normalized tree using explicit options.
func New(root *tree.Node, opts Options) (*TreeLayout, error) {
	if root == nil {
		return nil, errors.New(errors.ErrCodeInputShape, "cannot lay out a nil tree")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	est := opts.Estimator
	if est == nil {
		est = NewTableEstimator(opts.AverageGlyphWidth)
	}

	l := &TreeLayout{
		root:          root,
		opts:          opts,
		est:           est,
		boxes:         map[string]*NodeBox{},
		sizes:         map[string]sizing{},
		extraY:        baseClearance,
		styleOverride: map[string][]StylePatch{},
		edgeOverride:  map[string]EdgeVariant{},
	}
	l.maxDepth = root.Depth() - 1
	l.levelHeights = make([]float64, l.maxDepth+1)

	l.measure(root, tree.Address{}, 0)
	l.calcLevelYs()
	l.width = l.sizes["root"].subtree
	if err := l.place(root, tree.Address{}, 0, l.width); err != nil {
		return nil, err
	}
	l.buildEdges(root, tree.Address{})
	return l, nil
}

// NewDefault builds the layout using the process-wide default options.
func NewDefault(root *tree.Node) (*TreeLayout, error) {
	return New(root, Defaults())
}

// measure runs the bottom-up sizing pass: label extents, per-level heights,
// and subtree spans.
func (l *TreeLayout) measure(n *tree.Node, addr tree.Address, depth int) sizing {
	l.order = append(l.order, addr)

	effDepth := depth
	if n.IsLeaf() && l.opts.LeafNodesAlign {
		effDepth = l.maxDepth
	}

	style := l.opts.TextStyle()
	labelW, labelH := labelExtent(l.est, n.Label(), style)
	l.levelHeights[effDepth] = max(l.levelHeights[effDepth], labelH)

	var childSum float64
	leaves := 0
	for i, c := range n.Children() {
		s := l.measure(c, addr.Child(i), depth+1)
		childSum += s.subtree
		leaves += s.leaves
	}
	if n.IsLeaf() {
		leaves = 1
	} else {
		childSum += float64(n.NumChildren()-1) * l.opts.GapEm()
	}

	s := sizing{subtree: max(labelW, childSum), leaves: leaves}
	l.sizes[addr.String()] = s
	l.boxes[addr.String()] = &NodeBox{
		Addr:       addr,
		Label:      n.Label(),
		Width:      labelW,
		Height:     labelH,
		LineHeight: l.est.LineHeight(style),
		Depth:      effDepth,
		Style:      style,
	}
	return s
}

func (l *TreeLayout) calcLevelYs() {
	l.levelY = make([]float64, l.maxDepth+1)
	for d := 1; d <= l.maxDepth; d++ {
		l.levelY[d] = l.levelY[d-1] + l.levelHeights[d-1] + l.opts.DistanceToDaughter
	}
}

// slotWeight returns the relative horizontal share of a subtree under the
// configured spacing scheme.
func (l *TreeLayout) slotWeight(addr tree.Address) float64 {
	s := l.sizes[addr.String()]
	switch l.opts.HorizSpacing {
	case SpacingEven:
		return 1
	case SpacingNodes:
		return float64(s.leaves)
	default:
		return s.subtree
	}
}

// place runs the top-down placement pass. Each node is centered in its
// span; children receive contiguous slots proportional to their weights,
// scaled so they always fill the parent's span exactly.
func (l *TreeLayout) place(n *tree.Node, addr tree.Address, left, span float64) error {
	box := l.boxes[addr.String()]
	box.CenterX = left + span/2
	if l.opts.VertAlign == AlignFull {
		box.Height = l.levelHeights[box.Depth]
	}
	box.Y = l.levelY[box.Depth] + l.dodgeTop(box.Depth, box.Height)

	count := n.NumChildren()
	if count == 0 {
		return nil
	}

	gaps := float64(count-1) * l.opts.GapEm()
	avail := span - gaps
	if avail < -eps {
		return errors.New(errors.ErrCodeInternalLayout,
			"node %s: span %.4fem cannot hold %d gaps of %.4fem",
			addr, span, count-1, l.opts.GapEm())
	}

	var weightSum float64
	for i := range count {
		weightSum += l.slotWeight(addr.Child(i))
	}

	cursor := left
	for i, c := range n.Children() {
		caddr := addr.Child(i)
		var slot float64
		if weightSum <= eps {
			slot = avail / float64(count)
		} else {
			slot = avail * l.slotWeight(caddr) / weightSum
		}
		if slot < -eps {
			return errors.New(errors.ErrCodeInternalLayout,
				"node %s: negative slot width %.4fem", caddr, slot)
		}
		if err := l.place(c, caddr, cursor, slot); err != nil {
			return err
		}
		cursor += slot + l.opts.GapEm()
	}
	if cursor-l.opts.GapEm() > left+span+eps {
		return errors.New(errors.ErrCodeInternalLayout,
			"node %s: children overflow span by %.4fem",
			addr, cursor-l.opts.GapEm()-left-span)
	}
	return nil
}

// dodgeTop is the distance between a level's top and a node's top under the
// configured vertical alignment.
func (l *TreeLayout) dodgeTop(depth int, height float64) float64 {
	switch l.opts.VertAlign {
	case AlignTop, AlignFull:
		return 0
	case AlignBottom:
		return l.levelHeights[depth] - height
	default:
		return (l.levelHeights[depth] - height) / 2
	}
}

// buildEdges walks the tree and records one edge per drawn connector,
// merging through transparent projections (empty label, single child) so a
// single edge spans the combined distance.
func (l *TreeLayout) buildEdges(n *tree.Node, addr tree.Address) {
	for i, c := range n.Children() {
		caddr := addr.Child(i)

		target, taddr := c, caddr
		skipped := false
		for target.Label() == "" && target.NumChildren() == 1 {
			skipped = true
			next, _ := target.Child(0)
			taddr = taddr.Child(0)
			target = next
		}

		pbox := l.boxes[addr.String()]
		tbox := l.boxes[taddr.String()]

		if l.opts.LeafEdges || !target.IsLeaf() {
			e := Edge{
				Parent:      addr,
				Child:       taddr,
				Variant:     l.opts.EdgeStyle,
				SkipsLevels: skipped || tbox.Depth > pbox.Depth+1,
				X1:          pbox.CenterX,
				Y1:          pbox.Bottom(),
				X2:          tbox.CenterX,
				Y2:          tbox.Y,
				BaseWidth:   tbox.Width,
			}
			if e.SkipsLevels && !l.opts.DescendDirect && pbox.Depth+1 <= l.maxDepth {
				// segmented descent: diagonal only across the first level,
				// then straight down, like an edge to an empty node on the
				// next level
				e.BendY = l.levelY[pbox.Depth+1]
			}
			l.edges = append(l.edges, e)
		}

		l.buildEdges(target, taddr)
	}
}

// Root returns the normalized tree this layout was built from.
func (l *TreeLayout) Root() *tree.Node { return l.root }

// Options returns a copy of the effective options of this layout.
func (l *TreeLayout) Options() Options { return l.opts }

// Box returns the computed box for an address, with the node's style
// resolved against any recorded overrides.
func (l *TreeLayout) Box(addr tree.Address) (NodeBox, bool) {
	b, ok := l.boxes[addr.String()]
	if !ok {
		return NodeBox{}, false
	}
	out := *b
	out.Style = l.ResolvedStyle(addr)
	return out, true
}

// Addresses returns every node address in deterministic pre-order.
func (l *TreeLayout) Addresses() []tree.Address {
	out := make([]tree.Address, len(l.order))
	copy(out, l.order)
	return out
}

// Edges returns the drawable edge list with any per-edge style overrides
// applied.
func (l *TreeLayout) Edges() []Edge {
	out := make([]Edge, len(l.edges))
	copy(out, l.edges)
	for i := range out {
		if v, ok := l.edgeOverride[out[i].Child.String()]; ok {
			out[i].Variant = v
		}
	}
	return out
}

// SetEdgeStyle overrides the variant of the edge arriving at addr. Returns
// an ADDRESSING error when no edge in the layout ends at addr.
func (l *TreeLayout) SetEdgeStyle(addr tree.Address, v EdgeVariant) error {
	for _, e := range l.edges {
		if e.Child.Equal(addr) {
			l.edgeOverride[addr.String()] = v
			return nil
		}
	}
	return errors.New(errors.ErrCodeAddressing, "no edge ends at node %s", addr)
}

// EmWidth and EmHeight are the overall diagram extent in ems.
func (l *TreeLayout) EmWidth() float64 { return l.width }

func (l *TreeLayout) EmHeight() float64 {
	return l.levelY[l.maxDepth] + l.levelHeights[l.maxDepth] + l.extraY
}

// Width and Height are the overall diagram extent in absolute px.
func (l *TreeLayout) Width() float64  { return l.EmWidth() * l.opts.FontSize }
func (l *TreeLayout) Height() float64 { return l.EmHeight() * l.opts.FontSize }

// LevelY returns the top offset of a level in ems.
func (l *TreeLayout) LevelY(depth int) float64 {
	d := min(depth, l.maxDepth)
	return l.levelY[d]
}

// SubtreeBounds computes the rectangle covering the addressed node's box and
// every descendant leaf box, expanded by the annotation padding.
func (l *TreeLayout) SubtreeBounds(addr tree.Address) (Rect, error) {
	node, ok := l.root.Resolve(addr)
	if !ok {
		return Rect{}, errors.New(errors.ErrCodeAddressing, "no node at address %s", addr)
	}
	box := l.boxes[addr.String()]
	left, right := box.Left(), box.Right()
	bottom := box.Bottom()
	node.Walk(func(rel tree.Address, sub *tree.Node) bool {
		if !sub.IsLeaf() {
			return true
		}
		lb := l.boxes[joinAddr(addr, rel).String()]
		left = min(left, lb.Left())
		right = max(right, lb.Right())
		bottom = max(bottom, lb.Bottom())
		return true
	})
	return Rect{
		X: left - annotationMargin,
		Y: box.Y - annotationMargin,
		W: right - left + 2*annotationMargin,
		H: bottom - box.Y + 2*annotationMargin,
	}, nil
}

func joinAddr(base, rel tree.Address) tree.Address {
	out := make(tree.Address, 0, len(base)+len(rel))
	out = append(out, base...)
	return append(out, rel...)
}

// mustBox panics on a missing address; it is used only for addresses the
// layout itself generated, where absence is an internal invariant violation.
func (l *TreeLayout) mustBox(addr tree.Address) *NodeBox {
	b, ok := l.boxes[addr.String()]
	if !ok {
		panic(errors.New(errors.ErrCodeInternalLayout, "missing box for address %s", addr))
	}
	return b
}
