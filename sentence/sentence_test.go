package sentence

import (
	"testing"

	"github.com/go-test/deep"
)

func TestGraph_AddArc_RejectsSelfLoop(t *testing.T) {
	g := NewGraph(3)
	if err := g.AddArc(2, 2, "det"); err != ErrSelfLoop {
		t.Fatalf("got %v, want ErrSelfLoop", err)
	}
}

func TestGraph_AddArc_RejectsCycle(t *testing.T) {
	g := NewGraph(3)
	mustAdd(t, g, 1, 2, "det")
	mustAdd(t, g, 2, 3, "nsubj")
	if err := g.AddArc(3, 1, "extra"); err != ErrCycle {
		t.Fatalf("got %v, want ErrCycle", err)
	}
}

func TestGraph_HasPathTo(t *testing.T) {
	g := NewGraph(3)
	mustAdd(t, g, 1, 2, "det")
	mustAdd(t, g, 2, 3, "nsubj")
	if !g.HasPathTo(1, 3) {
		t.Fatal("expected 1 to be an ancestor of 3")
	}
	if g.HasPathTo(3, 1) {
		t.Fatal("did not expect 3 to be an ancestor of 1")
	}
}

func TestGraph_Headless(t *testing.T) {
	g := NewGraph(3)
	mustAdd(t, g, 1, 2, "det")
	headless := g.Headless()
	if len(headless) != 2 || headless[0] != 1 || headless[1] != 3 {
		t.Fatalf("got %v, want [1 3]", headless)
	}
}

func TestGraph_Equal(t *testing.T) {
	a := NewGraph(2)
	mustAdd(t, a, 0, 1, "root")
	mustAdd(t, a, 1, 2, "obj")

	b := NewGraph(2)
	mustAdd(t, b, 1, 2, "obj")
	mustAdd(t, b, 0, 1, "root")

	if !a.Equal(b) {
		t.Fatal("expected order-independent arc-set equality")
	}
}

func TestGraph_Heads_PreservesInsertionOrderAndLabels(t *testing.T) {
	g := NewGraph(3)
	mustAdd(t, g, 2, 1, "det")
	mustAdd(t, g, 3, 1, "extra")

	got := g.Heads(1)
	want := []Arc{{Head: 2, Label: "det"}, {Head: 3, Label: "extra"}}
	if diff := deep.Equal(got, want); diff != nil {
		t.Fatalf("Heads(1) diff: %v", diff)
	}
}

func mustAdd(t *testing.T, g *Graph, head, child int, label string) {
	t.Helper()
	if err := g.AddArc(head, child, label); err != nil {
		t.Fatalf("AddArc(%d,%d,%q): %v", head, child, label, err)
	}
}
