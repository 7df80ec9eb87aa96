package driver

import (
	"testing"

	"github.com/nihei9/depar/pstate"
	"github.com/nihei9/depar/sentence"
	"github.com/nihei9/depar/transition"
)

func TestExtractTransitionSequence_ReconstructsGold(t *testing.T) {
	sys := transition.NewArcEager()
	sent, gold := buildTestSentence()

	results, stats := ExtractTransitionSequence(sys, []*sentence.Sentence{sent}, []*sentence.Graph{gold})

	if stats.OracleDivergence != 0 || stats.UnreachableGraph != 0 {
		t.Fatalf("unexpected divergence/unreachable counts: %+v", stats)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Diverged {
		t.Fatalf("expected the oracle to reach gold without diverging")
	}
	if len(results[0].Actions) == 0 {
		t.Fatalf("expected a non-empty action sequence")
	}

	c := pstate.New(sent.Len())
	for _, a := range results[0].Actions {
		sys.Apply(c, a)
	}
	if !c.Graph().Equal(gold) {
		t.Fatalf("replaying the recorded actions did not reconstruct gold")
	}
}

func TestExtractTransitionSequence_CountsOracleDivergence(t *testing.T) {
	sys := transition.NewArcEager()
	sent, _ := buildTestSentence()

	// A multi-head gold graph (token 1 headed by both 2 and 3) is
	// unreachable under the arc-eager system's single-gold-head primary
	// oracle, which runs out of applicable moves partway through.
	gold := sentence.NewGraph(3)
	gold.AddArc(2, 1, "det")
	gold.AddArc(3, 1, "extra")
	gold.AddArc(3, 2, "nsubj")
	gold.AddArc(sentence.Root, 3, "root")

	results, stats := ExtractTransitionSequence(sys, []*sentence.Sentence{sent}, []*sentence.Graph{gold})
	if stats.OracleDivergence != 1 {
		t.Fatalf("got OracleDivergence=%d, want 1", stats.OracleDivergence)
	}
	if !results[0].Diverged {
		t.Fatalf("expected the result to be marked diverged")
	}
}
