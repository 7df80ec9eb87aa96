package driver

import (
	"testing"

	"github.com/nihei9/depar/classifier"
	"github.com/nihei9/depar/dict"
	"github.com/nihei9/depar/feature"
	"github.com/nihei9/depar/sentence"
	"github.com/nihei9/depar/transition"
)

func TestRepair_AttachesHeadlessTokens(t *testing.T) {
	sys := transition.NewArcEager()
	sent, gold := buildTestSentence()
	d, ext := buildTestDictAndExtractor(sys, sent, gold, "root")

	labels := actionLabels(d)
	actions := sys.Actions(labels)
	m := buildTestModel(d, actions, ext.Flags, 3)

	// A partial graph with token 1 left headless, as Predict's decode
	// loop can leave behind at a genuinely stuck configuration.
	partial := sentence.NewGraph(3)
	partial.AddArc(3, 2, "nsubj")
	partial.AddArc(sentence.Root, 3, "root")

	repaired := Repair(ext, m, sent, partial, "root")

	if len(repaired.Headless()) != 0 {
		t.Fatalf("expected Repair to attach every headless token, got %v", repaired.Headless())
	}
	if !repaired.HasHead(1) {
		t.Fatalf("expected token 1 to have gained a head")
	}
}

func TestRepair_FallsBackToRootWhenNoAcyclicCandidate(t *testing.T) {
	sys := transition.NewArcEager()
	sent, gold := buildTestSentence()
	d, ext := buildTestDictAndExtractor(sys, sent, gold, "root")

	labels := actionLabels(d)
	actions := sys.Actions(labels)
	m := buildTestModel(d, actions, ext.Flags, 3)

	// A single-token sentence has no possible governor other than ROOT.
	oneTok := buildSingleTokenSentence()
	partial := sentence.NewGraph(1)

	repaired := Repair(ext, m, oneTok, partial, "root")

	heads := repaired.Heads(1)
	if len(heads) != 1 || heads[0].Head != sentence.Root || heads[0].Label != "root" {
		t.Fatalf("expected token 1 to fall back to ROOT/root, got %+v", heads)
	}
}

func buildSingleTokenSentence() *sentence.Sentence {
	return sentence.New([]sentence.Token{{Form: "hi", POS: "INTJ"}})
}

// TestBestGovernor_ForwardScanUsesCorrectStackBufferOrder guards against
// the stack/buffer inversion that pstate.NewForPair(n, candHead,
// candChild) used to introduce whenever bestGovernor's forward scan
// (j > i) found the best-scoring candidate: that call always placed
// candHead in Stack(0) and candChild in Buffer(0), so a forward
// candidate's scratch configuration had the two swapped relative to
// every configuration the classifier trains on (Stack(0) holding the
// smaller index, Buffer(0) the larger).
//
// The model here is built by hand, not trained, so its score for a
// scratch configuration can be predicted exactly: HiddenSize=1, W1
// reads only the Σ0 slot's embedding (coefficient 1, every other slot
// 0), b1=0, so h = Σ0_embedding³ and each action's logit equals h
// (W2 row of all 1s). Token 1 ("A") embeds to 2, token 2 ("B", the
// headless token i) to 1, token 3 ("C") to 3.
//
// Correctly ordered (Stack(0)=min, Buffer(0)=max):
//   - backward candidate j=1: Σ0 = token 1 = A = 2, logit = 2³ = 8
//   - forward candidate  j=3: Σ0 = token 2 = B = 1, logit = 1³ = 1
//     -> backward wins: head=1, label="r"
//
// With the inverted order the old code produced on the forward scan:
//   - forward candidate j=3: Σ0 = token 3 = C = 3, logit = 3³ = 27
//     -> forward wrongly wins: head=3, label="l"
func TestBestGovernor_ForwardScanUsesCorrectStackBufferOrder(t *testing.T) {
	sent := sentence.New([]sentence.Token{
		{Form: "A", POS: "X"},
		{Form: "B", POS: "X"},
		{Form: "C", POS: "X"},
	})

	b := dict.NewBuilder(1, "root", false)
	b.ObserveToken("A", "X", "")
	b.ObserveToken("B", "X", "")
	b.ObserveToken("C", "X", "")
	b.ObserveLabel("l")
	b.ObserveLabel("r")
	d := b.Build()

	ext := feature.NewExtractor(feature.Flags{}, d)

	actions := []transition.Action{
		{Kind: transition.LeftArc, Label: "l"},
		{Kind: transition.RightArc, Label: "r"},
	}
	dims := classifier.Dims{Embed: 1}
	m := classifier.NewModel(d, feature.Flags{}, dims, actions, 1)

	words := d.WordsTable()
	setWordEmbedding := func(form string, value float64) {
		id, ok := words.ID(form)
		if !ok {
			t.Fatalf("expected %q to be interned", form)
		}
		m.Eb.Set(int(d.GlobalID(dict.Words, id)), 0, value)
	}
	setWordEmbedding("A", 2)
	setWordEmbedding("B", 1)
	setWordEmbedding("C", 3)

	// Σ0 is slot 1 of [Σ1, Σ0, β0, β1, Π0, ...]; zero every input column
	// but Σ0's so only its embedding reaches the hidden unit.
	for col := 0; col < m.InputDim(); col++ {
		m.W1.Set(0, col, 0)
	}
	m.W1.Set(0, 1, 1)
	m.B1[0] = 0
	m.W2.Set(0, 0, 1) // LeftArc
	m.W2.Set(1, 0, 1) // RightArc

	graph := sentence.NewGraph(3)
	head, label, ok := bestGovernor(ext, m, sent, graph, 2, 3)
	if !ok {
		t.Fatal("expected a candidate governor to be found")
	}
	if head != 1 || label != "r" {
		t.Fatalf("expected the backward candidate (head=1, label=r) to win, got head=%d label=%q — "+
			"a forward-scan candidate winning with head=3 label=l would mean Stack/Buffer got inverted again",
			head, label)
	}
}
