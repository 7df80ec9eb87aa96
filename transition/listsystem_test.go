package transition

import (
	"testing"

	"github.com/nihei9/depar/pstate"
	"github.com/nihei9/depar/sentence"
)

func TestListSystem_CanProcess_ProjectiveTree(t *testing.T) {
	gold := buildGold(3, []int{0, 3, 1}, []string{"root", "det", "obj"})
	sys := NewListSystem()
	if !sys.CanProcess(gold) {
		t.Fatal("expected list-system to process a simple projective tree")
	}
}

func TestListSystem_CanProcess_MultiHeadGraph(t *testing.T) {
	// Token 2 has two gold heads: 1 and 3 — exactly the shape arc-eager's
	// primary oracle cannot reconstruct but the list system's pass
	// buffer is built to revisit.
	g := sentence.NewGraph(3)
	mustAdd(t, g, 0, 1, "root")
	mustAdd(t, g, 1, 3, "obj")
	mustAdd(t, g, 1, 2, "x")
	mustAdd(t, g, 3, 2, "y")
	sys := NewListSystem()
	if !sys.CanProcess(g) {
		t.Fatal("expected list-system to process a multi-head graph")
	}
}

func TestListSystem_Run_ProducesGoldGraph(t *testing.T) {
	gold := buildGold(4, []int{0, 1, 1, 3}, []string{"root", "nsubj", "obj", "nmod"})
	sys := NewListSystem()
	c := pstate.New(gold.Len())
	_, ok := Run(sys, c, gold)
	if !ok {
		t.Fatal("oracle diverged")
	}
	if !c.Graph().Equal(gold) {
		t.Fatal("final graph does not match gold")
	}
}

func TestListSystem_IsTerminal_RequiresEmptyPass(t *testing.T) {
	sys := NewListSystem()
	c := pstate.New(2)
	c.AdvanceBuffer()
	c.AdvanceBuffer()
	// Drain buffer fully first.
	if !sys.IsTerminal(c) {
		t.Fatal("empty input and pass buffers should be terminal whatever the stack holds")
	}
	c.PushPass(c.PopStack())
	if sys.IsTerminal(c) {
		t.Fatal("a non-empty pass buffer must block termination even with an empty input buffer")
	}
}

func TestListSystem_Evaluate_PerfectMatch(t *testing.T) {
	gold := buildGold(3, []int{0, 3, 1}, []string{"root", "det", "obj"})
	sys := NewListSystem()
	score := sys.Evaluate([]*sentence.Graph{gold}, []*sentence.Graph{gold})
	if score.UnlabeledF != 1 || score.LabeledF != 1 {
		t.Fatalf("expected perfect scores, got %+v", score)
	}
}
