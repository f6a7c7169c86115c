package tree

import (
	"github.com/phrasal/phrasal/pkg/errors"
)

// Adapter makes a foreign tree representation acceptable to [Normalize].
// Adapters are registered explicitly by the hosting environment; the engine
// never patches or inspects foreign types beyond the three callbacks here.
type Adapter struct {
	// Match reports whether this adapter can split v.
	Match func(v any) bool
	// Label extracts the node label from a matched value.
	Label func(v any) string
	// Children returns the ordered child values of a matched value. Each
	// child is normalized recursively and may itself be any supported shape.
	Children func(v any) []any
}

// adapters is the process-wide adapter registry. Like the default layout
// options, it is not safe for concurrent mutation; register adapters during
// program initialization.
var adapters []Adapter

// RegisterAdapter adds an adapter to the registry. Adapters are consulted in
// registration order, after the built-in shapes.
func RegisterAdapter(a Adapter) error {
	if a.Match == nil || a.Label == nil || a.Children == nil {
		return errors.New(errors.ErrCodeInvalidOption,
			"adapter requires Match, Label, and Children functions")
	}
	adapters = append(adapters, a)
	return nil
}

// ResetAdapters clears the adapter registry.
func ResetAdapters() {
	adapters = nil
}

// Normalize converts any supported tree shape into a *Node:
//
//   - *Node values pass through unchanged
//   - a string is a bare leaf
//   - []any is lisp-style: the first element is a string label, the rest are
//     child trees or leaf labels; an empty sequence is an empty-label leaf
//   - []string is the same shape restricted to leaf children
//   - anything matched by a registered [Adapter]
//
// Any other value fails with an INPUT_SHAPE error. This is the single place
// input representations are reconciled; the layout engine never sees raw
// input.
func Normalize(v any) (*Node, error) {
	switch t := v.(type) {
	case *Node:
		return t, nil
	case string:
		return New(t), nil
	case []any:
		return normalizeSeq(t)
	case []string:
		seq := make([]any, len(t))
		for i, s := range t {
			seq[i] = s
		}
		return normalizeSeq(seq)
	}
	for _, a := range adapters {
		if a.Match(v) {
			return normalizeAdapted(a, v)
		}
	}
	return nil, errors.New(errors.ErrCodeInputShape,
		"unsupported tree element of type %T", v)
}

func normalizeSeq(seq []any) (*Node, error) {
	if len(seq) == 0 {
		// empty leaf placeholder
		return New(""), nil
	}
	label, ok := seq[0].(string)
	if !ok {
		return nil, errors.New(errors.ErrCodeInputShape,
			"tree label must be a string, got %T", seq[0])
	}
	children := make([]*Node, 0, len(seq)-1)
	for _, c := range seq[1:] {
		child, err := Normalize(c)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return New(label, children...), nil
}

func normalizeAdapted(a Adapter, v any) (*Node, error) {
	raw := a.Children(v)
	children := make([]*Node, 0, len(raw))
	for _, c := range raw {
		child, err := Normalize(c)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return New(a.Label(v), children...), nil
}
