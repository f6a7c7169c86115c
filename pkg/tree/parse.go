package tree

import (
	"encoding/json"
	"strings"

	"github.com/phrasal/phrasal/pkg/errors"
)

// Parse reads a tree literal in JSON array notation, e.g.
//
//	["TP", ["NP", "D", "N"], ["VP", "V"]]
//
// Strings at child positions are leaves. A bare JSON string is a single
// leaf. Numbers, objects, and other JSON values are rejected with an
// INPUT_SHAPE error.
func Parse(literal string) (*Node, error) {
	literal = strings.TrimSpace(literal)
	if literal == "" {
		return nil, errors.New(errors.ErrCodeInputShape, "empty tree literal")
	}
	var v any
	if err := json.Unmarshal([]byte(literal), &v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInputShape, err, "parse tree literal")
	}
	return Normalize(v)
}
