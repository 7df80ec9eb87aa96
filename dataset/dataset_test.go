package dataset

import (
	"testing"

	"github.com/nihei9/depar/dict"
	"github.com/nihei9/depar/feature"
	"github.com/nihei9/depar/sentence"
	"github.com/nihei9/depar/transition"
)

func buildFixture(t *testing.T) (*sentence.Sentence, *sentence.Graph, *dict.Dictionaries) {
	t.Helper()
	sent := sentence.New([]sentence.Token{
		{Form: "the", POS: "DET"},
		{Form: "cat", POS: "NOUN"},
		{Form: "sat", POS: "VERB"},
	})
	gold := sentence.NewGraph(3)
	must := func(head, child int, label string) {
		if err := gold.AddArc(head, child, label); err != nil {
			t.Fatal(err)
		}
	}
	must(2, 1, "det")
	must(3, 2, "nsubj")
	must(0, 3, "root")

	b := dict.NewBuilder(1, "root", false)
	for _, tok := range sent.Tokens {
		b.ObserveToken(tok.Form, tok.POS, "")
	}
	b.ObserveLabel("det")
	b.ObserveLabel("nsubj")
	b.ObserveDynamic(0, 0, 0)
	return sent, gold, b.Build()
}

func TestBuilder_AddSentence_EachSampleHasExactlyOneGoldLabel(t *testing.T) {
	sent, gold, d := buildFixture(t)
	ext := feature.NewExtractor(feature.Flags{UsePOS: true}, d)
	sys := transition.NewArcEager()
	b := NewBuilder(sys, []string{"det", "nsubj", "root"}, ext)

	samples := b.AddSentence(sent, gold)
	if len(samples) == 0 {
		t.Fatal("expected at least one sample for a processable sentence")
	}
	for i, s := range samples {
		if len(s.Features) != ext.Flags.NumTokens() {
			t.Fatalf("sample %d: feature length %d != %d", i, len(s.Features), ext.Flags.NumTokens())
		}
		var plus, zero, minus int
		for _, l := range s.Labels {
			switch l {
			case 1:
				plus++
			case 0:
				zero++
			case -1:
				minus++
			default:
				t.Fatalf("sample %d: unexpected label value %d", i, l)
			}
		}
		if plus != 1 {
			t.Fatalf("sample %d: expected exactly one +1 label, got %d", i, plus)
		}
	}
	if b.Stats.SamplesGenerated != len(samples) {
		t.Fatalf("expected Stats.SamplesGenerated to track generated sample count")
	}
}

func TestBuilder_AddSentence_UnreachableGraphIsSkipped(t *testing.T) {
	// Token 2 has two gold heads: unreachable under arc-eager's
	// single-head primary oracle.
	g := sentence.NewGraph(2)
	mustAddArc(t, g, 0, 1, "root")
	mustAddArc(t, g, 0, 2, "x")
	mustAddArc(t, g, 1, 2, "y")
	sent := sentence.New([]sentence.Token{{Form: "a", POS: "X"}, {Form: "b", POS: "Y"}})

	d := dict.NewBuilder(1, "root", false).Build()
	ext := feature.NewExtractor(feature.Flags{}, d)
	sys := transition.NewArcEager()
	b := NewBuilder(sys, []string{"x", "y", "root"}, ext)

	samples := b.AddSentence(sent, g)
	if samples != nil {
		t.Fatal("expected no samples for an unreachable graph")
	}
	if b.Stats.UnreachableGraph != 1 {
		t.Fatalf("expected UnreachableGraph to be counted, got %d", b.Stats.UnreachableGraph)
	}
}

func mustAddArc(t *testing.T, g *sentence.Graph, head, child int, label string) {
	t.Helper()
	if err := g.AddArc(head, child, label); err != nil {
		t.Fatal(err)
	}
}
