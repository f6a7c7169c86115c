package layout

import (
	"math"

	"github.com/phrasal/phrasal/pkg/errors"
	"github.com/phrasal/phrasal/pkg/tree"
)

// AnnotationKind tags the annotation variants.
type AnnotationKind int

const (
	// KindMovementArrow connects two node addresses with a routed arrow.
	KindMovementArrow AnnotationKind = iota
	// KindConstituentBox draws a rounded rectangle over a subtree's extent.
	KindConstituentBox
	// KindConstituentUnderline underlines a subtree's horizontal span.
	KindConstituentUnderline
	// KindNodeStyle overrides the text style of one node.
	KindNodeStyle
)

// Annotation is one recorded post-layout decoration. Annotations are stored
// by node address and resolved against geometry only at emission time, so
// they can be declared in any order and the same address may receive several.
type Annotation struct {
	Kind AnnotationKind

	// From and To are the endpoints of a movement arrow.
	From, To tree.Address
	// Addr is the target of boxes, underlines, and style overrides.
	Addr tree.Address
	// Patch is the partial style for KindNodeStyle.
	Patch StylePatch
	// RouteY is the reserved horizontal-run row of a movement arrow, in
	// ems. It is chosen when the arrow is recorded so later arrows can
	// avoid it.
	RouteY float64
}

// arrowRow tracks one occupied horizontal arrow run for collision
// avoidance between movement arrows.
type arrowRow struct {
	x1, x2, y float64
}

// resolveAddr validates that addr exists in the layout.
func (l *TreeLayout) resolveAddr(addr tree.Address) error {
	if _, ok := l.root.Resolve(addr); !ok {
		return errors.New(errors.ErrCodeAddressing, "no node at address %s", addr)
	}
	return nil
}

// MovementArrow records a routed arrow from the lower edge of the node at
// from to the node at to. The horizontal run is placed below the deepest
// leaf between the endpoints, and arrows that would overlap are pushed to
// successive rows. Fails with an ADDRESSING error when either address does
// not resolve, and with a DEGENERATE_ANNOTATION error for a self-loop,
// whose routing is undefined.
func (l *TreeLayout) MovementArrow(from, to tree.Address) error {
	if err := l.resolveAddr(from); err != nil {
		return err
	}
	if err := l.resolveAddr(to); err != nil {
		return err
	}
	if from.Equal(to) {
		return errors.New(errors.ErrCodeDegenerateAnnotation,
			"movement arrow endpoints are both %s", from)
	}

	// the drop descends from the center of the whole subtree span, not the
	// label box, so it stays clear of skewed daughter structure
	sb, err := l.SubtreeBounds(from)
	if err != nil {
		return err
	}
	db, err := l.SubtreeBounds(to)
	if err != nil {
		return err
	}
	x1 := sb.X + sb.W/2
	x2 := db.X + db.W/2

	depth := l.deepestInterveningLeaf(from, to, min(x1, x2), max(x1, x2))
	yBase := l.levelY[depth] + l.levelHeights[depth]
	routeY := l.findArrowRow(min(x1, x2), max(x1, x2), yBase+1.5)

	floor := l.levelY[l.maxDepth] + l.levelHeights[l.maxDepth]
	l.extraY = max(l.extraY, routeY+baseClearance-floor)

	l.annotations = append(l.annotations, Annotation{
		Kind:   KindMovementArrow,
		From:   from,
		To:     to,
		RouteY: routeY,
	})
	return nil
}

// deepestInterveningLeaf finds the deepest level among leaves lying in the
// horizontal span between the two addressed subtrees, including leaves
// under either endpoint.
func (l *TreeLayout) deepestInterveningLeaf(a, b tree.Address, left, right float64) int {
	depth := max(l.mustBox(a).Depth, l.mustBox(b).Depth)
	for _, leaf := range l.root.LeafAddresses() {
		box := l.mustBox(leaf)
		if box.CenterX >= left-eps && box.CenterX <= right+eps {
			depth = max(depth, box.Depth)
		}
	}
	return depth
}

// findArrowRow returns the first free horizontal run at or below y for the
// span [x1, x2], stepping down half an em per occupied row.
func (l *TreeLayout) findArrowRow(x1, x2, y float64) float64 {
	for _, row := range l.arrowRows {
		if math.Abs(y-row.y) < eps && x1 < row.x2 && x2 > row.x1 {
			return l.findArrowRow(x1, x2, y+0.5)
		}
	}
	l.arrowRows = append(l.arrowRows, arrowRow{x1: x1, x2: x2, y: y})
	return y
}

// BoxConstituent records a rounded box covering the addressed node and all
// of its descendant leaves.
func (l *TreeLayout) BoxConstituent(addr tree.Address) error {
	if err := l.resolveAddr(addr); err != nil {
		return err
	}
	l.annotations = append(l.annotations, Annotation{
		Kind: KindConstituentBox,
		Addr: append(tree.Address{}, addr...),
	})
	return nil
}

// UnderlineConstituent records an underline across the horizontal span of
// the addressed subtree.
func (l *TreeLayout) UnderlineConstituent(addr tree.Address) error {
	if err := l.resolveAddr(addr); err != nil {
		return err
	}
	bounds, err := l.SubtreeBounds(addr)
	if err != nil {
		return err
	}
	floor := l.levelY[l.maxDepth] + l.levelHeights[l.maxDepth]
	l.extraY = max(l.extraY, bounds.Y+bounds.H+baseClearance-floor)

	l.annotations = append(l.annotations, Annotation{
		Kind: KindConstituentUnderline,
		Addr: append(tree.Address{}, addr...),
	})
	return nil
}

// SetNodeStyle records a style override for the addressed node, resolved at
// emission time. Repeated overrides to the same address compose by
// later-wins field merge.
func (l *TreeLayout) SetNodeStyle(addr tree.Address, patch StylePatch) error {
	if err := l.resolveAddr(addr); err != nil {
		return err
	}
	l.styleOverride[addr.String()] = append(l.styleOverride[addr.String()], patch)
	l.annotations = append(l.annotations, Annotation{
		Kind:  KindNodeStyle,
		Addr:  append(tree.Address{}, addr...),
		Patch: patch,
	})
	return nil
}

// SetLeafStyle records a style override for every leaf node.
func (l *TreeLayout) SetLeafStyle(patch StylePatch) error {
	for _, leaf := range l.root.LeafAddresses() {
		if err := l.SetNodeStyle(leaf, patch); err != nil {
			return err
		}
	}
	return nil
}

// Annotations returns a copy of the recorded annotations, in declaration
// order.
func (l *TreeLayout) Annotations() []Annotation {
	out := make([]Annotation, len(l.annotations))
	copy(out, l.annotations)
	return out
}

// ResolvedStyle returns the effective text style for a node after applying
// any recorded overrides in declaration order.
func (l *TreeLayout) ResolvedStyle(addr tree.Address) TextStyle {
	style := l.opts.TextStyle()
	for _, p := range l.styleOverride[addr.String()] {
		style = p.Apply(style)
	}
	return style
}
