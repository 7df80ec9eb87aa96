package feature

import (
	"testing"

	"github.com/nihei9/depar/dict"
	"github.com/nihei9/depar/pstate"
	"github.com/nihei9/depar/sentence"
)

func buildDict(t *testing.T) *dict.Dictionaries {
	t.Helper()
	b := dict.NewBuilder(1, "root", false)
	b.ObserveToken("a", "DET", "")
	b.ObserveToken("dog", "NOUN", "")
	b.ObserveLabel("det")
	b.ObserveDynamic(1, 0, 2)
	return b.Build()
}

func buildSentence() *sentence.Sentence {
	return sentence.New([]sentence.Token{
		{Form: "a", POS: "DET"},
		{Form: "dog", POS: "NOUN"},
	})
}

func TestFlags_NumTokens_MatchesExtractLength(t *testing.T) {
	d := buildDict(t)
	sent := buildSentence()
	c := pstate.New(sent.Len())

	for _, flags := range []Flags{
		{},
		{UsePOS: true},
		{UsePOS: true, UseDistance: true},
		{UsePOS: true, UseValency: true, UseCluster: true, UseLength: true, UseDistance: true},
	} {
		e := NewExtractor(flags, d)
		got := e.Extract(c, sent)
		if len(got) != flags.NumTokens() {
			t.Fatalf("flags=%+v: expected length %d, got %d", flags, flags.NumTokens(), len(got))
		}
	}
}

func TestExtractor_Extract_MissingPositionsFallBackToNIL(t *testing.T) {
	d := buildDict(t)
	sent := buildSentence()
	c := pstate.New(sent.Len()) // stack=[ROOT], buffer=[1,2], pass=[]

	e := NewExtractor(Flags{UsePOS: true}, d)
	got := e.Extract(c, sent)

	words := d.WordsTable()
	nilWordGlobal := d.GlobalID(dict.Words, words.NilID())

	// Stack(1) is out of range (only ROOT on the stack) and Pass(0) is
	// empty: both must resolve to the NIL sentinel's global word id.
	// Slot order: [Σ1(word,pos), Σ0(word,pos), β0(word,pos), β1(word,pos), Π0(word,pos), ...]
	stack1WordIdx := 0
	pass0WordIdx := 4 * 2
	if got[stack1WordIdx] != nilWordGlobal {
		t.Fatalf("expected Σ[1] word id to be NIL sentinel, got %d want %d", got[stack1WordIdx], nilWordGlobal)
	}
	if got[pass0WordIdx] != nilWordGlobal {
		t.Fatalf("expected Π[0] word id to be NIL sentinel, got %d want %d", got[pass0WordIdx], nilWordGlobal)
	}
}

func TestFlags_SlotGroups_LengthAndOrderMatchExtract(t *testing.T) {
	for _, flags := range []Flags{
		{},
		{UsePOS: true},
		{UsePOS: true, UseCluster: true, UseDistance: true, UseValency: true, UseLength: true},
	} {
		groups := flags.SlotGroups()
		if len(groups) != flags.NumTokens() {
			t.Fatalf("flags=%+v: SlotGroups length %d != NumTokens %d", flags, len(groups), flags.NumTokens())
		}
		if groups[0] != dict.Words {
			t.Fatalf("flags=%+v: expected first slot group to be Words, got %v", flags, groups[0])
		}
	}
}

func TestExtractor_Extract_RootSlotUsesRootSentinel(t *testing.T) {
	d := buildDict(t)
	sent := buildSentence()
	c := pstate.New(sent.Len()) // Σ[0] == ROOT

	e := NewExtractor(Flags{}, d)
	got := e.Extract(c, sent)

	words := d.WordsTable()
	rootLocal, ok := words.RootID()
	if !ok {
		t.Fatal("expected words table to reserve a ROOT row")
	}
	rootGlobal := d.GlobalID(dict.Words, rootLocal)

	stack0WordIdx := 1 // Σ1 then Σ0
	if got[stack0WordIdx] != rootGlobal {
		t.Fatalf("expected Σ[0]==ROOT to use the ROOT sentinel id, got %d want %d", got[stack0WordIdx], rootGlobal)
	}
}
