package nodelink

import (
	"strings"
	"testing"

	"github.com/phrasal/phrasal/pkg/tree"
)

func TestToDOT_Structure(t *testing.T) {
	root := tree.New("TP",
		tree.New("NP", tree.New("D"), tree.New("N")),
		tree.New("VP", tree.New("V")),
	)

	dot := ToDOT(root, Options{})

	if !strings.HasPrefix(dot, "digraph G {") || !strings.HasSuffix(dot, "}\n") {
		t.Fatalf("malformed DOT:\n%s", dot)
	}
	for _, node := range []string{`"root"`, `"0"`, `"0.0"`, `"0.1"`, `"1"`, `"1.0"`} {
		if !strings.Contains(dot, node+" [") {
			t.Errorf("missing node %s:\n%s", node, dot)
		}
	}
	for _, edge := range []string{`"root" -> "0";`, `"0" -> "0.1";`, `"1" -> "1.0";`} {
		if !strings.Contains(dot, edge) {
			t.Errorf("missing edge %s:\n%s", edge, dot)
		}
	}
}

func TestToDOT_Labels(t *testing.T) {
	root := tree.New("S", tree.New("NP"))

	plain := ToDOT(root, Options{})
	if !strings.Contains(plain, `label="NP"`) {
		t.Errorf("missing label:\n%s", plain)
	}
	if strings.Contains(plain, `label="NP\nroot`) {
		t.Error("addresses included without Addresses option")
	}

	detailed := ToDOT(root, Options{Addresses: true})
	if !strings.Contains(detailed, `label="NP\n0"`) {
		t.Errorf("missing address in label:\n%s", detailed)
	}
}

func TestToDOT_EmptyLabel(t *testing.T) {
	root := tree.New("XP", tree.New("", tree.New("a")))
	dot := ToDOT(root, Options{})
	if !strings.Contains(dot, "dashed") {
		t.Errorf("empty-label node not marked dashed:\n%s", dot)
	}
}

func TestToDOT_Deterministic(t *testing.T) {
	root := tree.New("TP", tree.New("NP", tree.New("D")), tree.New("V"))
	first := ToDOT(root, Options{})
	for i := 0; i < 10; i++ {
		if got := ToDOT(root, Options{}); got != first {
			t.Fatal("ToDOT output varies across identical calls")
		}
	}
}
