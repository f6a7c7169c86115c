// Package tree provides the normalized constituent-tree representation used
// by the layout engine.
//
// Heterogeneous inputs (lisp-style nested sequences, plain strings, or
// foreign tree types made acceptable through a registered [Adapter]) are
// reconciled here once, by [Normalize]; everything downstream of this package
// operates on immutable [Node] values and never inspects input shape again.
package tree

import (
	"strconv"
	"strings"

	"github.com/phrasal/phrasal/pkg/errors"
)

// Address identifies one node by its path of zero-based child indices from
// the root. The empty address is the root. Addresses are value-like: methods
// never mutate the receiver.
type Address []int

// Root is the address of the root node.
var Root = Address{}

// String renders the address in dotted form, e.g. "0.1.2".
// The root address renders as "root".
func (a Address) String() string {
	if len(a) == 0 {
		return "root"
	}
	parts := make([]string, len(a))
	for i, idx := range a {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ".")
}

// ParseAddress parses the dotted form produced by [Address.String], e.g.
// "0.1.2". Both "" and "root" parse to the root address.
func ParseAddress(s string) (Address, error) {
	if s == "" || s == "root" {
		return Address{}, nil
	}
	parts := strings.Split(s, ".")
	addr := make(Address, len(parts))
	for i, p := range parts {
		idx, err := strconv.Atoi(p)
		if err != nil || idx < 0 {
			return nil, errors.New(errors.ErrCodeAddressing, "invalid address %q: component %q is not a child index", s, p)
		}
		addr[i] = idx
	}
	return addr, nil
}

// Parent returns the address of the node's parent. The root's parent is the
// root itself.
func (a Address) Parent() Address {
	if len(a) == 0 {
		return Address{}
	}
	return append(Address{}, a[:len(a)-1]...)
}

// Child returns the address of the i-th child of the addressed node.
func (a Address) Child(i int) Address {
	child := make(Address, len(a), len(a)+1)
	copy(child, a)
	return append(child, i)
}

// Equal reports whether two addresses identify the same node.
func (a Address) Equal(b Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// IsAncestorOf reports whether a is a strict prefix of b.
func (a Address) IsAncestorOf(b Address) bool {
	if len(a) >= len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CommonPrefix returns the address of the deepest shared ancestor of a and b.
func CommonPrefix(a, b Address) Address {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return append(Address{}, a[:i]...)
		}
	}
	if len(a) < len(b) {
		return append(Address{}, a...)
	}
	return append(Address{}, b...)
}

// Node is a labeled vertex with an ordered sequence of children. A node with
// no children is a leaf. Labels may contain "\n" to indicate a multi-line
// label.
//
// Nodes are immutable once built; the layout engine relies on this to reuse
// a tree across independent draw calls.
type Node struct {
	label    string
	children []*Node
}

// New builds a node from a label and ordered children.
func New(label string, children ...*Node) *Node {
	kids := make([]*Node, len(children))
	copy(kids, children)
	return &Node{label: label, children: kids}
}

// Label returns the node's label.
func (n *Node) Label() string { return n.label }

// Lines returns the label split on explicit line-break markers. An empty
// label yields no lines at all, which gives empty placeholder nodes zero
// height during layout.
func (n *Node) Lines() []string {
	return SplitLabel(n.label)
}

// SplitLabel splits a label on explicit line-break markers, returning nil
// for an empty label. This is the single definition of the multi-line
// label convention, shared by layout and emission.
func SplitLabel(label string) []string {
	if label == "" {
		return nil
	}
	return strings.Split(label, "\n")
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int { return len(n.children) }

// Child returns the i-th child, or false if i is out of range.
func (n *Node) Child(i int) (*Node, bool) {
	if i < 0 || i >= len(n.children) {
		return nil, false
	}
	return n.children[i], true
}

// Children returns a copy of the ordered child sequence.
func (n *Node) Children() []*Node {
	kids := make([]*Node, len(n.children))
	copy(kids, n.children)
	return kids
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// Depth returns the number of levels below and including this node, so a
// bare leaf has depth 1.
func (n *Node) Depth() int {
	sub := 0
	for _, c := range n.children {
		sub = max(sub, c.Depth())
	}
	return sub + 1
}

// Resolve follows addr from this node and returns the addressed node, or
// false when any index along the path is out of range.
func (n *Node) Resolve(addr Address) (*Node, bool) {
	cur := n
	for _, i := range addr {
		next, ok := cur.Child(i)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Walk visits every node in pre-order (parent before children, children
// left to right) together with its address. Returning false from fn stops
// the walk.
func (n *Node) Walk(fn func(addr Address, node *Node) bool) {
	n.walk(Address{}, fn)
}

func (n *Node) walk(addr Address, fn func(Address, *Node) bool) bool {
	if !fn(addr, n) {
		return false
	}
	for i, c := range n.children {
		if !c.walk(addr.Child(i), fn) {
			return false
		}
	}
	return true
}

// LeafAddresses returns the addresses of all leaves, in left-to-right order.
func (n *Node) LeafAddresses() []Address {
	var leaves []Address
	n.Walk(func(addr Address, node *Node) bool {
		if node.IsLeaf() {
			leaves = append(leaves, addr)
		}
		return true
	})
	return leaves
}
